package schema

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Parse reads one descriptor file into its ordered declaration list. It is
// purely syntactic: no gate evaluation, no substitution, no includes are
// followed here.
func Parse(src []byte, filename string) ([]*Declaration, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("parsing %s: unexpected body type", filename)
	}

	for _, attr := range body.Attributes {
		return nil, fmt.Errorf("%s: unexpected top-level attribute %q; only arg, node and include blocks are allowed", attr.Range().String(), attr.Name)
	}

	decls := make([]*Declaration, 0, len(body.Blocks))
	for _, block := range body.Blocks {
		decl, err := parseBlock(block)
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

func parseBlock(block *hclsyntax.Block) (*Declaration, error) {
	decl := &Declaration{DefRange: block.DefRange()}

	switch block.Type {
	case "arg":
		name, err := singleLabel(block)
		if err != nil {
			return nil, err
		}
		arg := &Arg{Name: name}
		if err := decodeBody(block, &arg.ArgBody); err != nil {
			return nil, err
		}
		decl.Arg = arg

	case "node":
		name, err := singleLabel(block)
		if err != nil {
			return nil, err
		}
		node := &Node{Name: name}
		if err := decodeBody(block, &node.NodeBody); err != nil {
			return nil, err
		}
		decl.Node = node

	case "include":
		if len(block.Labels) != 0 {
			return nil, fmt.Errorf("%s: include blocks take no labels", block.DefRange().String())
		}
		inc := &Include{}
		if err := decodeBody(block, &inc.IncludeBody); err != nil {
			return nil, err
		}
		decl.Include = inc

	default:
		return nil, fmt.Errorf("%s: unknown block type %q; expected arg, node or include", block.DefRange().String(), block.Type)
	}

	return decl, nil
}

func singleLabel(block *hclsyntax.Block) (string, error) {
	if len(block.Labels) != 1 || block.Labels[0] == "" {
		return "", fmt.Errorf("%s: %s blocks take exactly one non-empty label", block.DefRange().String(), block.Type)
	}
	return block.Labels[0], nil
}

func decodeBody(block *hclsyntax.Block, target any) error {
	if diags := gohcl.DecodeBody(block.Body, nil, target); diags.HasErrors() {
		return fmt.Errorf("decoding %s block at %s: %w", block.Type, block.DefRange().String(), diags)
	}
	return nil
}
