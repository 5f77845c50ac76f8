// Package model holds the format-agnostic launch model: the fully resolved
// node specifications and the flattened plan produced by composition. Nothing
// in this package is mutated after a plan has been built.
package model
