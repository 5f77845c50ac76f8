package model

// OutputMode selects where a node's stdout and stderr are routed.
type OutputMode string

const (
	// OutputLog routes the node's output to a per-node log file.
	OutputLog OutputMode = "log"
	// OutputScreen routes the node's output to the launching terminal.
	OutputScreen OutputMode = "screen"
)

// Working-directory selectors for NodeSpec.Cwd. Any other value is treated
// as a literal path.
const (
	// CwdLaunch runs the node in the directory of the root descriptor.
	CwdLaunch = "launch"
	// CwdNode runs the node in its package root.
	CwdNode = "node"
)

// Remap renames one logical communication channel for a single node.
type Remap struct {
	From string
	To   string
}

// NodeSpec is one fully resolved node-launch request. All fields are plain
// strings with every substitution already applied; the supervisor never
// consults the argument scopes or the package index.
type NodeSpec struct {
	// Name is the node's instance name, unique within the plan.
	Name string
	// Package is the declared package name; PackageRoot is its resolved
	// filesystem root.
	Package     string
	PackageRoot string
	// Executable is the program to run, joined onto PackageRoot unless
	// it is already an absolute path.
	Executable string
	// Args is the resolved command-line argument string, split on
	// whitespace at spawn time.
	Args string

	// Required marks a node whose crash is fatal to the whole launch.
	Required bool
	// Respawn marks a node that is restarted whenever it exits.
	Respawn bool

	Output OutputMode
	// Cwd is CwdLaunch, CwdNode, or a literal path.
	Cwd string

	// Env holds extra environment entries for the spawned process.
	Env map[string]string

	// Remaps is the node's private remap table, in declaration order with
	// duplicate From entries already dropped (first wins).
	Remaps []Remap
}

// RemapFor returns the remapped name for a channel, or the original name if
// no remap matches.
func (n *NodeSpec) RemapFor(from string) string {
	for _, r := range n.Remaps {
		if r.From == from {
			return r.To
		}
	}
	return from
}

// Plan is the flattened, ordered launch plan: the sole input to the
// supervisor. Node order is the depth-first, left-to-right declaration order
// across the whole include tree and must be treated as read-only.
type Plan struct {
	// RootDir is the directory of the root descriptor, used for nodes
	// launched with Cwd == CwdLaunch.
	RootDir string
	Nodes   []*NodeSpec
}
