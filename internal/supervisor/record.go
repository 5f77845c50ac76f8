package supervisor

import (
	"os"
	"os/exec"
	"sync/atomic"

	"github.com/specialistvlad/launchgridgo/internal/model"
)

// State is the lifecycle state of one supervised process.
type State int32

const (
	// StatePending means the process has not been spawned yet.
	StatePending State = iota
	// StateRunning means the process is alive.
	StateRunning
	// StateExited means the process ended voluntarily with code 0 and no
	// respawn policy; terminal.
	StateExited
	// StateCrashed means the process ended with a nonzero code or a
	// signal; transient if a restart follows, else followed by Terminated.
	StateCrashed
	// StateRestarting means a respawn has been scheduled after a crash or
	// voluntary exit.
	StateRestarting
	// StateTerminated means the process was stopped for good; terminal.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateCrashed:
		return "crashed"
	case StateRestarting:
		return "restarting"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Record is the runtime record of one plan node. State, pid, restart count
// and last exit code are stored atomically so tests and status surfaces may
// read them while the coordinating loop writes them.
type Record struct {
	Spec *model.NodeSpec

	state    atomic.Int32
	pid      atomic.Int64
	restarts atomic.Int32
	lastExit atomic.Int32

	// cmd and logFile are owned by the coordinating loop.
	cmd     *exec.Cmd
	logFile *os.File
}

func newRecord(spec *model.NodeSpec) *Record {
	return &Record{Spec: spec}
}

// State returns the record's current lifecycle state.
func (r *Record) State() State {
	return State(r.state.Load())
}

func (r *Record) setState(s State) {
	r.state.Store(int32(s))
}

// PID returns the last spawned process id, or 0 before the first spawn.
func (r *Record) PID() int {
	return int(r.pid.Load())
}

// Restarts returns how many times the process has been respawned.
func (r *Record) Restarts() int {
	return int(r.restarts.Load())
}

// LastExitCode returns the most recent exit code, -1 for a signal
// termination, or 0 before any exit.
func (r *Record) LastExitCode() int {
	return int(r.lastExit.Load())
}

func (r *Record) closeLog() {
	if r.logFile != nil {
		r.logFile.Close()
		r.logFile = nil
	}
}
