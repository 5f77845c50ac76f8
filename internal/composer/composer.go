package composer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/specialistvlad/launchgridgo/internal/ctxlog"
	"github.com/specialistvlad/launchgridgo/internal/model"
	"github.com/specialistvlad/launchgridgo/internal/schema"
	"github.com/specialistvlad/launchgridgo/internal/scope"
	"github.com/specialistvlad/launchgridgo/internal/subst"
)

// Composer turns descriptor files into flattened launch plans. It is
// stateless across Compose calls; the package index is the only shared
// collaborator.
type Composer struct {
	index subst.PackageIndex
}

// New returns a composer resolving $(find ...) against the given index.
func New(index subst.PackageIndex) *Composer {
	return &Composer{index: index}
}

// Compose flattens the descriptor at path into a launch plan. Overrides seed
// the top-level scope as explicitly passed values, with the same precedence
// as include-passed arguments. Any failure aborts the whole composition; a
// partial plan is never returned.
func (c *Composer) Compose(ctx context.Context, path string, overrides map[string]string) (*model.Plan, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	root := scope.New()
	for name, value := range overrides {
		root.Set(name, value)
	}

	plan := &model.Plan{RootDir: filepath.Dir(abs)}
	if err := c.expand(ctx, abs, root, nil, plan); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return plan, nil
}

// expand parses one descriptor and walks its declarations in document order,
// appending resolved nodes to the plan. stack holds the chain of descriptor
// paths currently being expanded, for cycle detection.
func (c *Composer) expand(ctx context.Context, path string, sc *scope.Table, stack []string, plan *model.Plan) error {
	path = filepath.Clean(path)
	for _, seen := range stack {
		if seen == path {
			return fmt.Errorf("%w: %s", ErrCyclicInclude, strings.Join(append(stack, path), " -> "))
		}
	}

	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrMissingIncludeTarget, path)
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	decls, err := schema.Parse(src, path)
	if err != nil {
		return err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Expanding descriptor.", "path", path, "depth", len(stack), "declarations", len(decls))

	stack = append(stack, path)
	resolver := subst.New(sc, c.index)

	for _, decl := range decls {
		materialize, err := gateAllows(resolver, decl)
		if err != nil {
			return err
		}
		if !materialize {
			logger.Debug("Declaration gated out, skipping subtree.", "at", decl.DefRange.String())
			continue
		}

		switch {
		case decl.Arg != nil:
			if err := declareArg(resolver, sc, decl.Arg); err != nil {
				return err
			}
		case decl.Node != nil:
			spec, err := c.buildNode(resolver, decl.Node)
			if err != nil {
				return err
			}
			plan.Nodes = append(plan.Nodes, spec)
		case decl.Include != nil:
			if err := c.expandInclude(ctx, path, resolver, decl.Include, stack, plan); err != nil {
				return err
			}
		}
	}
	return nil
}

// gateAllows evaluates a declaration's conditional. Gates are resolved
// before a declaration's own content is touched, so nothing from a gated-out
// declaration is ever registered.
func gateAllows(resolver *subst.Resolver, decl *schema.Declaration) (bool, error) {
	g := decl.Gate()
	if g.If != nil && g.Unless != nil {
		return false, fmt.Errorf("%s: if and unless are mutually exclusive", decl.DefRange.String())
	}

	var expr, want string
	switch {
	case g.If != nil:
		expr, want = *g.If, "true"
	case g.Unless != nil:
		expr, want = *g.Unless, "false"
	default:
		return true, nil
	}

	resolved, err := resolver.Resolve(expr)
	if err != nil {
		return false, err
	}
	if resolved != "true" && resolved != "false" {
		return false, fmt.Errorf("%w: %s: gate resolved to %q, want \"true\" or \"false\"", ErrInvalidBooleanLiteral, decl.DefRange.String(), resolved)
	}
	return resolved == want, nil
}

// declareArg registers an argument's default in the current scope. A name
// already resolved in this scope keeps its value.
func declareArg(resolver *subst.Resolver, sc *scope.Table, arg *schema.Arg) error {
	if arg.Default == nil {
		// Declared without a default: the name resolves only if the
		// parent passed a value, which is already in the scope.
		return nil
	}
	resolved, err := resolver.Resolve(*arg.Default)
	if err != nil {
		return err
	}
	sc.Declare(arg.Name, resolved)
	return nil
}

// buildNode resolves every string attribute of a node declaration against
// the current scope and produces an immutable NodeSpec.
func (c *Composer) buildNode(resolver *subst.Resolver, node *schema.Node) (*model.NodeSpec, error) {
	name, err := resolver.Resolve(node.Name)
	if err != nil {
		return nil, err
	}

	pkg, err := resolver.Resolve(node.Package)
	if err != nil {
		return nil, err
	}
	pkgRoot, err := c.index.Root(pkg)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}

	executable, err := resolver.Resolve(node.Executable)
	if err != nil {
		return nil, err
	}

	var args string
	if node.Args != nil {
		if args, err = resolver.Resolve(*node.Args); err != nil {
			return nil, err
		}
	}

	output := model.OutputLog
	if node.Output != nil {
		resolved, err := resolver.Resolve(*node.Output)
		if err != nil {
			return nil, err
		}
		switch model.OutputMode(resolved) {
		case model.OutputLog, model.OutputScreen:
			output = model.OutputMode(resolved)
		default:
			return nil, fmt.Errorf("node %q: invalid output %q, want \"log\" or \"screen\"", name, resolved)
		}
	}

	cwd := model.CwdLaunch
	if node.Cwd != nil {
		if cwd, err = resolver.Resolve(*node.Cwd); err != nil {
			return nil, err
		}
	}

	env, err := resolveAttrs(resolver, node.Env)
	if err != nil {
		return nil, fmt.Errorf("node %q env: %w", name, err)
	}

	remaps, err := resolveRemaps(resolver, node.Remaps)
	if err != nil {
		return nil, fmt.Errorf("node %q: %w", name, err)
	}

	return &model.NodeSpec{
		Name:        name,
		Package:     pkg,
		PackageRoot: pkgRoot,
		Executable:  executable,
		Args:        args,
		Required:    node.Required != nil && *node.Required,
		Respawn:     node.Respawn != nil && *node.Respawn,
		Output:      output,
		Cwd:         cwd,
		Env:         env,
		Remaps:      remaps,
	}, nil
}

// expandInclude resolves an include's target and passed arguments in the
// current scope, then recurses into the target with a fresh child scope.
// Only explicitly passed arguments cross the boundary, in either direction.
func (c *Composer) expandInclude(ctx context.Context, parentPath string, resolver *subst.Resolver, inc *schema.Include, stack []string, plan *model.Plan) error {
	target, err := resolver.Resolve(inc.Path)
	if err != nil {
		return err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(parentPath), target)
	}

	passed, err := resolveAttrs(resolver, inc.Args)
	if err != nil {
		return fmt.Errorf("include %s args: %w", inc.Path, err)
	}

	child := scope.New()
	for name, value := range passed {
		child.Set(name, value)
	}

	return c.expand(ctx, target, child, stack, plan)
}

// resolveAttrs evaluates an open attribute block (env or passed include
// args) to plain strings: HCL expression first, substitution second.
// Attributes are processed in sorted name order so failures are
// deterministic.
func resolveAttrs(resolver *subst.Resolver, block *schema.AttrsBlock) (map[string]string, error) {
	exprs, diags := block.Attributes()
	if diags.HasErrors() {
		return nil, diags
	}
	if len(exprs) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(exprs))
	for name := range exprs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]string, len(exprs))
	for _, name := range names {
		raw, err := evalString(exprs[name])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		resolved, err := resolver.Resolve(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		out[name] = resolved
	}
	return out, nil
}

// resolveRemaps substitutes each remap pair and drops duplicate From
// entries, first match wins.
func resolveRemaps(resolver *subst.Resolver, blocks []*schema.RemapBlock) ([]model.Remap, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(blocks))
	remaps := make([]model.Remap, 0, len(blocks))
	for _, b := range blocks {
		from, err := resolver.Resolve(b.From)
		if err != nil {
			return nil, err
		}
		to, err := resolver.Resolve(b.To)
		if err != nil {
			return nil, err
		}
		if seen[from] {
			continue
		}
		seen[from] = true
		remaps = append(remaps, model.Remap{From: from, To: to})
	}
	return remaps, nil
}

// evalString evaluates an HCL expression down to a string value.
func evalString(expr hcl.Expression) (string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	if val.IsNull() {
		return "", fmt.Errorf("value must not be null")
	}
	return val.AsString(), nil
}
