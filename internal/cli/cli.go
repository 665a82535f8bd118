package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vk/flowgridgo/internal/app"
)

// ExitError asks main to exit with Code after printing Message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func usageError(err error) *ExitError {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Parse reads args into a Config. done is true when the process should exit
// successfully without running anything, as for -help or a missing path.
func Parse(args []string, output io.Writer) (cfg *app.Config, done bool, err error) {
	flagSet := flag.NewFlagSet("flowgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
flowgridgo - runs node graphs, or compiles them to Go.

Usage:
  flowgridgo [options] [GRAPH_PATH...]

Arguments:
  GRAPH_PATH
    HCL documents, directories of them, or one saved .yaml/.fgb document.

Options:
`)
		flagSet.PrintDefaults()
	}

	graphFlag := flagSet.String("graph", "", "Path to the graph file or directory.")
	gFlag := flagSet.String("g", "", "Path to the graph file or directory (shorthand).")
	patternFlag := flagSet.String("pattern", "", "Glob selecting documents inside directories (default **/*.fg.hcl).")
	eventFlag := flagSet.String("event", "", "Comma separated entry nodes to trigger. Default: all events.")
	emitFlag := flagSet.String("emit", "", "Write the graph as a Go program to this path ('-' for stdout) instead of running it.")
	saveFlag := flagSet.String("save", "", "Save the loaded graph as a .yaml or .fgb document.")
	checkFlag := flagSet.Bool("check", false, "Only report graph diagnostics.")
	ticksFlag := flagSet.Int("ticks", 0, "Maximum scheduler ticks. 0 runs until idle.")
	intervalFlag := flagSet.Duration("tick-interval", 10*time.Millisecond, "Time between scheduler ticks.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	metricsPortFlag := flagSet.Int("metrics-port", 0, "Port serving /metrics and /healthz. 0 is disabled.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError(err)
	}

	var paths []string
	for _, p := range []string{*graphFlag, *gFlag} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	paths = append(paths, flagSet.Args()...)
	if len(paths) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	var events []string
	if *eventFlag != "" {
		for _, e := range strings.Split(*eventFlag, ",") {
			events = append(events, strings.TrimSpace(e))
		}
	}

	cfg, err = app.NewConfig(app.Config{
		GraphPaths:   paths,
		Pattern:      *patternFlag,
		Events:       events,
		CheckOnly:    *checkFlag,
		EmitPath:     *emitFlag,
		SavePath:     *saveFlag,
		MaxTicks:     *ticksFlag,
		TickInterval: *intervalFlag,
		LogFormat:    strings.ToLower(*logFormatFlag),
		LogLevel:     strings.ToLower(*logLevelFlag),
		MetricsPort:  *metricsPortFlag,
	})
	if err != nil {
		return nil, false, usageError(err)
	}
	slog.Debug("Command line parsed.", "paths", paths, "events", events)
	return cfg, false, nil
}
