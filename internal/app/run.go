package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/vk/flowgridgo/internal/codegen"
	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/scheduler"
)

// ErrCheckFailed is returned when the graph has error diagnostics.
var ErrCheckFailed = errors.New("graph check failed")

// Run executes the main application logic based on the configuration: load
// the graph, report its diagnostics, then save, emit or interpret it.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.MetricsPort > 0 {
		a.startServer(a.config.MetricsPort)
		defer a.stopServer()
	}

	g, err := a.LoadGraph(ctx)
	if err != nil {
		return err
	}
	a.logger.Debug("Graph loaded.", "nodes", len(g.Objects()), "variables", len(g.Variables()))

	report := g.Check()
	for _, d := range report.Diags {
		if a.config.CheckOnly {
			fmt.Fprintln(a.outW, d.Error())
		}
		a.logger.Warn("Graph diagnostic.", "severity", d.Severity, "summary", d.Summary, "detail", d.Detail)
	}
	if report.HasErrors() {
		return fmt.Errorf("%w: %w", ErrCheckFailed, report.Err())
	}
	if a.config.CheckOnly {
		a.logger.Info("Graph check passed.", "nodes", len(g.Objects()))
		return nil
	}

	if a.config.SavePath != "" {
		if err := a.SaveGraph(g, a.config.SavePath); err != nil {
			return fmt.Errorf("failed to save graph: %w", err)
		}
	}
	if a.config.EmitPath != "" {
		return a.emit(g)
	}
	return a.interpret(ctx, g)
}

func (a *App) emit(g *graph.Graph) error {
	src, err := codegen.Emit(g, a.config.Events, codegen.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("emission failed: %w", err)
	}
	if a.config.EmitPath == "-" {
		_, err = a.outW.Write(src)
		return err
	}
	if err := os.WriteFile(a.config.EmitPath, src, 0o644); err != nil {
		return err
	}
	a.logger.Info("Program emitted.", "path", a.config.EmitPath, "bytes", len(src))
	return nil
}

// events returns the configured events, or every valid entry node.
func (a *App) events(g *graph.Graph) []string {
	if len(a.config.Events) > 0 {
		return a.config.Events
	}
	var ids []string
	for _, o := range g.Objects() {
		if _, ok := o.Logic().(graph.Triggerer); ok && o.IsValid() {
			ids = append(ids, o.StableID)
		}
	}
	return ids
}

func (a *App) interpret(ctx context.Context, g *graph.Graph) error {
	sched := scheduler.New(scheduler.WithLogger(a.logger))
	inst := graph.NewInstance(g,
		graph.WithOutput(a.outW),
		graph.WithSpawner(sched),
		graph.WithInstanceLogger(a.logger),
	)

	events := a.events(g)
	if len(events) == 0 {
		a.logger.Warn("No events found in graph, execution not required.")
		return nil
	}
	a.logger.Info("Starting execution.", "events", events)
	for _, id := range events {
		if err := inst.Trigger(ctx, id); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	}
	if err := sched.Run(ctx, inst, a.config.TickInterval, a.config.MaxTicks); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("Execution finished.", "ticks", sched.Ticks())
	return nil
}
