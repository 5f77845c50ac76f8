package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/launchgridgo/internal/ctxlog"
	"github.com/specialistvlad/launchgridgo/internal/model"
)

var (
	// ErrSpawnFailure is returned when a process cannot be started at all.
	ErrSpawnFailure = errors.New("process spawn failure")
	// ErrRequiredNodeExit is the fatal error surfaced when a required
	// node crashes (or cannot be spawned) and the whole launch is torn
	// down because of it.
	ErrRequiredNodeExit = errors.New("required node failed")
)

// Options tunes a supervisor run. The zero value is usable: defaults are
// filled in by New.
type Options struct {
	// Grace is how long terminated processes get between the termination
	// request and a forceful kill during shutdown.
	Grace time.Duration
	// LogDir receives the per-node log files of nodes with output "log".
	// Created on demand; defaults to a fresh directory under os.TempDir.
	LogDir string
	// BackoffBase and BackoffCap bound the exponential respawn backoff.
	BackoffBase time.Duration
	BackoffCap  time.Duration
	// Stdout and Stderr receive the output of nodes with output "screen".
	Stdout io.Writer
	Stderr io.Writer
}

func (o *Options) fillDefaults() {
	if o.Grace <= 0 {
		o.Grace = 5 * time.Second
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 100 * time.Millisecond
	}
	if o.BackoffCap <= 0 {
		o.BackoffCap = 5 * time.Second
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// exitEvent is what a monitor goroutine reports when its process ends.
type exitEvent struct {
	rec      *Record
	code     int
	signaled bool
}

// Supervisor runs one flattened plan to completion. It is single-use: create
// a new one per launch.
type Supervisor struct {
	plan    *model.Plan
	opts    Options
	records []*Record

	events   chan exitEvent
	restarts chan *Record
	// shutdownCh is closed by the coordinating loop when shutdown begins,
	// releasing pending restart timers early.
	shutdownCh chan struct{}

	// fatal is the launch-wide crash flag; test-and-set decides which
	// crash gets to cascade the shutdown.
	fatal atomic.Bool

	monitors errgroup.Group
}

// New builds a supervisor for the given plan.
func New(plan *model.Plan, opts Options) *Supervisor {
	opts.fillDefaults()
	records := make([]*Record, len(plan.Nodes))
	for i, spec := range plan.Nodes {
		records[i] = newRecord(spec)
	}
	return &Supervisor{
		plan:       plan,
		opts:       opts,
		records:    records,
		events:     make(chan exitEvent, len(plan.Nodes)+1),
		restarts:   make(chan *Record, len(plan.Nodes)+1),
		shutdownCh: make(chan struct{}),
	}
}

// Records returns the supervisor's process records in spawn order.
func (s *Supervisor) Records() []*Record {
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// loop is the coordinating event loop's private state. All record
// transitions happen here, on a single goroutine.
type loop struct {
	s      *Supervisor
	ctx    context.Context
	logger *slog.Logger

	live            int
	pendingRestarts int
	fatalErr        error
	shuttingDown    bool
	graceCh         <-chan time.Time
}

// Run spawns every node in plan order and supervises until all records are
// terminal. Cancelling ctx starts an ordered shutdown. The returned error is
// nil on a clean stop, or wraps ErrRequiredNodeExit when a required node
// took the launch down.
func (s *Supervisor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	if len(s.records) == 0 {
		logger.Warn("Plan is empty, nothing to supervise.")
		return nil
	}

	if s.opts.LogDir == "" {
		dir, err := os.MkdirTemp("", "launchgrid-logs-*")
		if err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		s.opts.LogDir = dir
	} else if err := os.MkdirAll(s.opts.LogDir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logger.Debug("Supervisor starting.", "nodes", len(s.records), "logDir", s.opts.LogDir)

	l := &loop{s: s, ctx: ctx, logger: logger}
	l.spawnAll()
	l.run()

	s.monitors.Wait()
	for _, rec := range s.records {
		rec.closeLog()
	}
	return l.fatalErr
}

// spawnAll starts every node strictly in plan order. A required node that
// cannot be spawned aborts the launch; later nodes are never started.
func (l *loop) spawnAll() {
	for _, rec := range l.s.records {
		if l.shuttingDown {
			rec.setState(StateTerminated)
			continue
		}
		if err := l.s.spawn(l.logger, rec); err != nil {
			l.logger.Error("Failed to spawn node.", "node", rec.Spec.Name, "error", err)
			if rec.Spec.Required {
				rec.setState(StateCrashed)
				l.s.fatal.Store(true)
				l.fatalErr = fmt.Errorf("%w: %s: %v", ErrRequiredNodeExit, rec.Spec.Name, err)
				l.beginShutdown(rec)
				rec.setState(StateTerminated)
				continue
			}
			rec.setState(StateTerminated)
			continue
		}
		l.live++
	}
}

// run processes exit and restart events until every record is terminal.
func (l *loop) run() {
	done := l.ctx.Done()
	for l.live > 0 || l.pendingRestarts > 0 {
		select {
		case <-done:
			done = nil
			l.logger.Info("Shutdown requested, terminating all nodes.")
			l.beginShutdown(nil)

		case <-l.graceCh:
			l.graceCh = nil
			l.killStragglers()

		case ev := <-l.s.events:
			l.live--
			l.handleExit(ev)

		case rec := <-l.s.restarts:
			l.pendingRestarts--
			l.handleRestart(rec)
		}
	}
}

// beginShutdown requests termination of every live process in reverse spawn
// order, skipping the record that triggered the shutdown, and arms the
// grace timer. Idempotent.
func (l *loop) beginShutdown(except *Record) {
	if l.shuttingDown {
		return
	}
	l.shuttingDown = true
	close(l.s.shutdownCh)
	for i := len(l.s.records) - 1; i >= 0; i-- {
		rec := l.s.records[i]
		if rec == except || rec.State() != StateRunning {
			continue
		}
		l.logger.Info("Terminating node.", "node", rec.Spec.Name, "pid", rec.PID())
		if err := l.s.signalTerm(rec); err != nil {
			l.logger.Warn("Failed to signal node.", "node", rec.Spec.Name, "error", err)
		}
	}
	if l.graceCh == nil {
		l.graceCh = time.After(l.s.opts.Grace)
	}
}

// killStragglers forcefully kills anything still running after the grace
// window, in reverse spawn order.
func (l *loop) killStragglers() {
	for i := len(l.s.records) - 1; i >= 0; i-- {
		rec := l.s.records[i]
		if rec.State() != StateRunning {
			continue
		}
		l.logger.Warn("Grace window expired, killing node.", "node", rec.Spec.Name, "pid", rec.PID())
		if rec.cmd != nil && rec.cmd.Process != nil {
			rec.cmd.Process.Kill()
		}
	}
}

// handleExit applies the per-node policy to one process exit.
func (l *loop) handleExit(ev exitEvent) {
	rec := ev.rec
	rec.lastExit.Store(int32(ev.code))
	spec := rec.Spec

	if l.shuttingDown {
		rec.setState(StateTerminated)
		rec.closeLog()
		l.logger.Info("Node terminated.", "node", spec.Name, "exitCode", ev.code)
		return
	}

	switch {
	case ev.code == 0 && !spec.Respawn:
		rec.setState(StateExited)
		rec.closeLog()
		l.logger.Info("Node exited cleanly.", "node", spec.Name)

	case ev.code != 0 && spec.Required:
		rec.setState(StateCrashed)
		l.logger.Error("Required node crashed, aborting launch.", "node", spec.Name, "exitCode", ev.code, "signaled", ev.signaled)
		if l.s.fatal.CompareAndSwap(false, true) {
			l.fatalErr = fmt.Errorf("%w: %s (exit code %d)", ErrRequiredNodeExit, spec.Name, ev.code)
			l.beginShutdown(rec)
		}
		rec.setState(StateTerminated)
		rec.closeLog()

	case spec.Respawn:
		rec.setState(StateRestarting)
		backoff := l.s.backoffFor(rec.Restarts())
		l.logger.Warn("Node exited, scheduling respawn.", "node", spec.Name, "exitCode", ev.code, "backoff", backoff)
		l.pendingRestarts++
		l.s.monitors.Go(func() error {
			timer := time.NewTimer(backoff)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-l.s.shutdownCh:
			case <-l.ctx.Done():
			}
			l.s.restarts <- rec
			return nil
		})

	default:
		// Nonzero exit, not required, no respawn: logged, not fatal.
		rec.setState(StateCrashed)
		rec.setState(StateTerminated)
		rec.closeLog()
		l.logger.Warn("Node crashed.", "node", spec.Name, "exitCode", ev.code, "signaled", ev.signaled)
	}
}

// handleRestart respawns a node whose backoff elapsed, unless the launch is
// already coming down.
func (l *loop) handleRestart(rec *Record) {
	if l.shuttingDown {
		rec.setState(StateTerminated)
		rec.closeLog()
		return
	}
	rec.restarts.Add(1)
	if err := l.s.spawn(l.logger, rec); err != nil {
		l.logger.Error("Respawn failed.", "node", rec.Spec.Name, "error", err)
		if rec.Spec.Required && l.s.fatal.CompareAndSwap(false, true) {
			l.fatalErr = fmt.Errorf("%w: %s: %v", ErrRequiredNodeExit, rec.Spec.Name, err)
			l.beginShutdown(rec)
		}
		rec.setState(StateTerminated)
		rec.closeLog()
		return
	}
	l.logger.Info("Node respawned.", "node", rec.Spec.Name, "restarts", rec.Restarts())
	l.live++
}

// backoffFor returns the exponential restart delay after the given number
// of respawns so far.
func (s *Supervisor) backoffFor(restarts int) time.Duration {
	backoff := s.opts.BackoffBase
	for i := 0; i < restarts; i++ {
		backoff *= 2
		if backoff >= s.opts.BackoffCap {
			return s.opts.BackoffCap
		}
	}
	return backoff
}
