// Package subst resolves the $(op operand...) substitution syntax embedded
// in descriptor attribute values. Resolution is a single left-to-right pass:
// a substituted value is spliced into the output verbatim and never
// re-scanned, so values cannot inject further substitutions.
package subst

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnresolvedExpression is returned when an operator is unknown, its
// operand cannot be resolved, or a substitution is malformed.
var ErrUnresolvedExpression = errors.New("unresolved expression")

// Args resolves argument names against the current scope.
type Args interface {
	Lookup(name string) (string, error)
}

// PackageIndex maps a package name to its filesystem root. The resolver
// depends on it but does not implement it.
type PackageIndex interface {
	Root(name string) (string, error)
}

// Resolver evaluates substitutions against one scope's argument table and a
// shared package index.
type Resolver struct {
	args  Args
	index PackageIndex
}

// New returns a resolver bound to the given scope and package index.
func New(args Args, index PackageIndex) *Resolver {
	return &Resolver{args: args, index: index}
}

// Resolve substitutes every $(...) occurrence in s. Text outside
// substitutions is copied through unchanged.
func (r *Resolver) Resolve(s string) (string, error) {
	if !strings.Contains(s, "$(") {
		return s, nil
	}

	var out strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "$(")
		if start < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:start])
		rest = rest[start+2:]

		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated substitution in %q", ErrUnresolvedExpression, s)
		}
		expr := rest[:end]
		rest = rest[end+1:]

		value, err := r.eval(expr)
		if err != nil {
			return "", err
		}
		out.WriteString(value)
	}
}

// eval resolves the body of a single $(...) expression.
func (r *Resolver) eval(expr string) (string, error) {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty substitution", ErrUnresolvedExpression)
	}
	op, operands := fields[0], fields[1:]

	switch op {
	case "arg":
		if len(operands) != 1 {
			return "", fmt.Errorf("%w: arg takes exactly one operand, got %q", ErrUnresolvedExpression, expr)
		}
		v, err := r.args.Lookup(operands[0])
		if err != nil {
			return "", fmt.Errorf("%w: $(arg %s): %w", ErrUnresolvedExpression, operands[0], err)
		}
		return v, nil

	case "find":
		if len(operands) != 1 {
			return "", fmt.Errorf("%w: find takes exactly one operand, got %q", ErrUnresolvedExpression, expr)
		}
		root, err := r.index.Root(operands[0])
		if err != nil {
			return "", fmt.Errorf("%w: $(find %s): %w", ErrUnresolvedExpression, operands[0], err)
		}
		return root, nil

	case "env":
		if len(operands) != 1 {
			return "", fmt.Errorf("%w: env takes exactly one operand, got %q", ErrUnresolvedExpression, expr)
		}
		v, ok := os.LookupEnv(operands[0])
		if !ok {
			return "", fmt.Errorf("%w: $(env %s): variable not set", ErrUnresolvedExpression, operands[0])
		}
		return v, nil

	case "optenv":
		if len(operands) < 1 {
			return "", fmt.Errorf("%w: optenv takes at least one operand", ErrUnresolvedExpression)
		}
		if v, ok := os.LookupEnv(operands[0]); ok {
			return v, nil
		}
		return strings.Join(operands[1:], " "), nil
	}

	return "", fmt.Errorf("%w: unknown operator %q", ErrUnresolvedExpression, op)
}
