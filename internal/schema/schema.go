// Package schema defines the HCL block structures of a launch descriptor and
// parses descriptor files into an ordered declaration list. Declaration order
// is significant: the composer flattens the tree depth-first in exactly the
// order blocks appear, so parsing preserves document order instead of
// grouping blocks by type.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Gate is the optional conditional carried by any declaration. If and Unless
// are mutually exclusive; enforcing that is the composer's job so the error
// can name the declaration.
type Gate struct {
	If     *string
	Unless *string
}

// ArgBody is the content of an `arg "name" { ... }` block.
type ArgBody struct {
	Default *string `hcl:"default,optional"`
	If      *string `hcl:"if,optional"`
	Unless  *string `hcl:"unless,optional"`
}

// Arg is a declared argument with its label attached.
type Arg struct {
	Name string
	ArgBody
}

// RemapBlock is one `remap { from = ..., to = ... }` block inside a node.
type RemapBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// AttrsBlock is a block whose body is an open set of attributes, used for a
// node's `env` block and an include's `args` block.
type AttrsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Attributes returns the block's attributes as raw HCL expressions, or nil
// for an absent block. The composer evaluates them against the appropriate
// scope.
func (b *AttrsBlock) Attributes() (map[string]hcl.Expression, hcl.Diagnostics) {
	if b == nil || b.Body == nil {
		return nil, nil
	}
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, nil
}

// NodeBody is the content of a `node "name" { ... }` block.
type NodeBody struct {
	Package    string        `hcl:"package"`
	Executable string        `hcl:"executable"`
	Args       *string       `hcl:"args,optional"`
	Required   *bool         `hcl:"required,optional"`
	Respawn    *bool         `hcl:"respawn,optional"`
	Output     *string       `hcl:"output,optional"`
	Cwd        *string       `hcl:"cwd,optional"`
	Env        *AttrsBlock   `hcl:"env,block"`
	Remaps     []*RemapBlock `hcl:"remap,block"`
	If         *string       `hcl:"if,optional"`
	Unless     *string       `hcl:"unless,optional"`
}

// Node is a node declaration with its label attached.
type Node struct {
	Name string
	NodeBody
}

// IncludeBody is the content of an `include { ... }` block.
type IncludeBody struct {
	Path   string      `hcl:"path"`
	Args   *AttrsBlock `hcl:"args,block"`
	If     *string     `hcl:"if,optional"`
	Unless *string     `hcl:"unless,optional"`
}

// Include is an include directive.
type Include struct {
	IncludeBody
}

// Declaration is one top-level block of a descriptor in document order.
// Exactly one of Arg, Node, Include is non-nil.
type Declaration struct {
	Arg     *Arg
	Node    *Node
	Include *Include
	// DefRange is the block's source range, used in error messages.
	DefRange hcl.Range
}

// Gate returns the declaration's conditional.
func (d *Declaration) Gate() Gate {
	switch {
	case d.Arg != nil:
		return Gate{If: d.Arg.If, Unless: d.Arg.Unless}
	case d.Node != nil:
		return Gate{If: d.Node.If, Unless: d.Node.Unless}
	case d.Include != nil:
		return Gate{If: d.Include.If, Unless: d.Include.Unless}
	}
	return Gate{}
}
