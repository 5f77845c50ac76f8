package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/launchgridgo/internal/ctxlog"
	"github.com/specialistvlad/launchgridgo/internal/model"
	"github.com/specialistvlad/launchgridgo/internal/supervisor"
)

// Run composes the descriptor tree and, unless this is a dry run, hands the
// flattened plan to the supervisor. Composition failures are returned before
// any process is spawned.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "descriptor", a.config.DescriptorPath)

	plan, err := a.composer.Compose(ctx, a.config.DescriptorPath, a.config.Overrides)
	if err != nil {
		return err
	}
	a.logger.Info("Launch plan composed.", "nodes", len(plan.Nodes))

	if a.config.DryRun {
		a.printPlan(plan)
		return nil
	}

	sup := supervisor.New(plan, supervisor.Options{
		Grace:  a.config.Grace,
		LogDir: a.config.LogDir,
		Stdout: a.outW,
		Stderr: a.outW,
	})
	if err := sup.Run(ctx); err != nil {
		return err
	}

	a.logger.Info("All nodes stopped, launch finished.")
	return nil
}

// printPlan writes one line per node in plan order.
func (a *App) printPlan(plan *model.Plan) {
	for i, n := range plan.Nodes {
		fmt.Fprintf(a.outW, "%d. %s package=%s executable=%s args=%q required=%t respawn=%t output=%s cwd=%s\n",
			i+1, n.Name, n.Package, n.Executable, n.Args, n.Required, n.Respawn, n.Output, n.Cwd)
		for _, r := range n.Remaps {
			fmt.Fprintf(a.outW, "   remap %s -> %s\n", r.From, r.To)
		}
	}
}
