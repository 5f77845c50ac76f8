// Package scope implements the argument table attached to one point in the
// include tree. Each include creates a fresh table; values never leak in
// either direction unless explicitly passed.
package scope

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUndeclaredArgument is returned by Lookup when a name has neither a
// passed value nor a declared default in this scope.
var ErrUndeclaredArgument = errors.New("undeclared argument")

type entry struct {
	value string
	// explicit marks a value passed in from outside (include pass-through
	// or CLI override) as opposed to a declared default.
	explicit bool
}

// Table is a single scope's argument table. Explicitly passed values always
// beat declared defaults for the same name, no matter which lands first.
type Table struct {
	entries map[string]entry
}

// New returns an empty argument table.
func New() *Table {
	return &Table{entries: make(map[string]entry)}
}

// Set records an explicitly passed value. It overrides a declared default
// for the same name even if the declaration was processed first. A second
// Set for the same name is a no-op: once explicitly resolved, a name is
// never mutated within its scope instance.
func (t *Table) Set(name, value string) {
	if e, ok := t.entries[name]; ok && e.explicit {
		return
	}
	t.entries[name] = entry{value: value, explicit: true}
}

// Declare registers a declared default. If the name is already resolved in
// this scope, whether explicitly or by an earlier declaration, the call is
// a no-op rather than an overwrite.
func (t *Table) Declare(name, defaultValue string) {
	if _, ok := t.entries[name]; ok {
		return
	}
	t.entries[name] = entry{value: defaultValue}
}

// Lookup resolves a name in this scope.
func (t *Table) Lookup(name string) (string, error) {
	e, ok := t.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUndeclaredArgument, name)
	}
	return e.value, nil
}

// Names returns the resolved argument names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports how many arguments are resolved in this scope.
func (t *Table) Len() int {
	return len(t.entries)
}
