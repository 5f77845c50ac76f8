package supervisor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/specialistvlad/launchgridgo/internal/model"
)

// remapEnvPrefix is the prefix of the environment entries that carry a
// node's remap table into the spawned process.
const remapEnvPrefix = "LAUNCHGRID_REMAP_"

// spawn starts the record's process and registers a monitor goroutine that
// reports the exit on the events channel.
func (s *Supervisor) spawn(logger *slog.Logger, rec *Record) error {
	spec := rec.Spec

	exe := spec.Executable
	if !filepath.IsAbs(exe) {
		exe = filepath.Join(spec.PackageRoot, exe)
	}

	cmd := exec.Command(exe, strings.Fields(spec.Args)...)
	cmd.Dir = s.workingDir(spec)
	cmd.Env = s.environ(spec)

	switch spec.Output {
	case model.OutputScreen:
		cmd.Stdout = s.opts.Stdout
		cmd.Stderr = s.opts.Stderr
	default:
		if rec.logFile == nil {
			path := filepath.Join(s.opts.LogDir, spec.Name+".log")
			f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("%w: opening log file for %s: %v", ErrSpawnFailure, spec.Name, err)
			}
			rec.logFile = f
		}
		cmd.Stdout = rec.logFile
		cmd.Stderr = rec.logFile
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSpawnFailure, spec.Name, err)
	}

	rec.cmd = cmd
	rec.pid.Store(int64(cmd.Process.Pid))
	rec.setState(StateRunning)
	logger.Info("Node started.", "node", spec.Name, "pid", cmd.Process.Pid, "executable", exe)

	s.monitors.Go(func() error {
		err := cmd.Wait()
		code, signaled := exitStatus(err)
		s.events <- exitEvent{rec: rec, code: code, signaled: signaled}
		return nil
	})
	return nil
}

// workingDir resolves the node's working directory selector.
func (s *Supervisor) workingDir(spec *model.NodeSpec) string {
	switch spec.Cwd {
	case model.CwdLaunch, "":
		return s.plan.RootDir
	case model.CwdNode:
		return spec.PackageRoot
	default:
		return spec.Cwd
	}
}

// environ builds the child environment: the supervisor's own environment,
// the node's env entries, then the node's remap table. Sorted so spawns are
// reproducible.
func (s *Supervisor) environ(spec *model.NodeSpec) []string {
	env := os.Environ()

	names := make([]string, 0, len(spec.Env))
	for name := range spec.Env {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		env = append(env, name+"="+spec.Env[name])
	}

	for i, r := range spec.Remaps {
		env = append(env, fmt.Sprintf("%s%d=%s=%s", remapEnvPrefix, i, r.From, r.To))
	}
	return env
}

// signalTerm asks a running process to stop.
func (s *Supervisor) signalTerm(rec *Record) error {
	if rec.cmd == nil || rec.cmd.Process == nil {
		return nil
	}
	return rec.cmd.Process.Signal(syscall.SIGTERM)
}

// exitStatus extracts the exit code from a Wait error. Signal terminations
// report code -1.
func exitStatus(err error) (code int, signaled bool) {
	if err == nil {
		return 0, false
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
		return code, code == -1
	}
	return -1, false
}
