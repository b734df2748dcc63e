package cmd

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/core/runner"
	"github.com/abdul-hamid-achik/timecheck/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

type runOptions struct {
	watch   bool
	waitFor time.Duration
	dryRun  bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the contract suite against the time API",
		Long: `Run every case of the suite, once per fixture row, and report the outcome
of each expectation.

Examples:
  timecheck run
  timecheck run --base-url http://localhost:3000/api/
  timecheck run --filter "currentTime*" --latency-ceiling 2s
  timecheck run --parallel --concurrency 4 -o junit --output-file report.xml
  timecheck run --resource-dir ./resources --watch`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Watch the resource directory and re-run on changes")
	cmd.Flags().DurationVar(&opts.waitFor, "wait-for", 0, "Wait up to this long for the service to accept connections")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the planned requests without sending them")

	return cmd
}

func runCommand(cmd *cobra.Command, opts *runOptions) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	if opts.watch && a.cfg.ResourceDir == "" {
		return exitWith(ExitUsageError, errors.New("--watch needs --resource-dir"))
	}

	if opts.dryRun {
		_, _, plan, err := a.plan()
		if err != nil {
			return err
		}
		return writePlanTable(cmd.OutOrStdout(), plan, a.cfg.BaseURL)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if a.cfg.OutputFile != "" {
		f, err := os.Create(a.cfg.OutputFile)
		if err != nil {
			return exitWith(ExitConfigError, errors.Wrap(err, "creating output file"))
		}
		defer f.Close()
		out = f
	}

	rep := newReporters(a)

	r := runner.NewRunner(a.runnerConfig(), a.logger)
	if opts.waitFor > 0 {
		if err := r.WaitFor(ctx, opts.waitFor, runner.DefaultWaitInterval); err != nil {
			return exitWith(ExitNetworkError, err)
		}
	}

	err = a.runOnce(ctx, r, out, rep)
	if !opts.watch {
		return err
	}
	return watch(ctx, cmd, a, out, rep)
}

// runOnce plans the suite, runs it, writes the report to w and hands the
// result to rep.
func (a *app) runOnce(ctx context.Context, r *runner.Runner, w io.Writer, rep *reporters) error {
	runID := uuid.NewString()
	formatter, err := output.New(a.cfg.Output, output.Options{
		Writer:  w,
		Verbose: a.cfg.Verbose,
		NoColor: a.cfg.NoColor,
		RunID:   runID,
	})
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	formatter.FormatHeader(version)

	_, _, plan, err := a.plan()
	if err != nil {
		formatter.FormatError(err)
		_ = output.Flush(formatter, 0)
		return err
	}

	result := r.Run(ctx, plan)
	formatter.FormatResult(result)
	if err := output.Flush(formatter, result.Duration); err != nil {
		return errors.Wrap(err, "writing output")
	}
	rep.report(ctx, a, runID, result)

	return runError(result)
}

func runError(result *runner.RunResult) error {
	switch {
	case result.HasConnectionErrors():
		return exitWith(ExitNetworkError, errors.Errorf("%d of %d cases could not reach the service", result.Errored, result.Total()))
	case result.Failed > 0 || result.Errored > 0:
		return exitWith(ExitTestFailure, errors.Errorf("%d of %d cases failed", result.Failed+result.Errored, result.Total()))
	case result.Bailed:
		return exitWith(ExitTestFailure, errors.New("run stopped before every case completed"))
	}
	return nil
}

// watch re-runs the suite when a resource, the config file or the env file
// changes. Configuration is reloaded on every run.
func watch(ctx context.Context, cmd *cobra.Command, a *app, out io.Writer, rep *reporters) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	for _, dir := range watchDirs(a) {
		if err := watcher.Add(dir); err != nil {
			a.logger.WithError(err).WithField("dir", dir).Warn("failed to watch directory")
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounce <-chan time.Time
	var changed string

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !watchable(a, event.Name) {
				continue
			}
			changed = event.Name
			debounce = time.After(WatchDebounceDelay)

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\nRe-running tests...\n\n", changed)

			next, err := newApp(cmd)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				continue
			}
			a = next
			r := runner.NewRunner(a.runnerConfig(), a.logger)
			if err := a.runOnce(ctx, r, out, rep); err != nil {
				a.logger.WithError(err).Debug("run finished with errors")
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.WithError(err).Warn("watcher error")
		}
	}
}

func watchDirs(a *app) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	_ = filepath.WalkDir(a.cfg.ResourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			add(path)
		}
		return nil
	})
	for _, file := range []string{a.cfgFile, a.cfg.EnvFile} {
		if file != "" {
			add(filepath.Dir(file))
		}
	}

	a.logger.WithField("dirs", dirs).Debug("watching")
	return dirs
}

var watchExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
	".csv":  true,
	".xlsx": true,
}

func watchable(a *app, path string) bool {
	if watchExtensions[strings.ToLower(filepath.Ext(path))] {
		return true
	}
	return a.cfg.EnvFile != "" && sameFile(path, a.cfg.EnvFile)
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
