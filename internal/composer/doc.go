// Package composer flattens a descriptor tree into a launch plan. It walks
// each descriptor depth-first in declaration order, evaluates gates before
// anything else in a declaration so a false gate suppresses the whole
// subtree, expands includes into fresh child scopes seeded only with
// explicitly passed arguments, and detects include cycles with a visited
// path stack. Composition is side-effect free: it spawns nothing and either
// yields a complete plan or fails as a whole.
package composer
