package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/timecheck/packages/mock"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type mockOptions struct {
	port  int
	delay time.Duration
}

func newMockCmd() *cobra.Command {
	opts := &mockOptions{}

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Start a local stand-in for the time API",
		Long: `Start an HTTP server that answers the time zone list, current time and
time increment endpoints under /api, so the suite can run without the
public service.

The zone list is read from the TimeZones.csv fixture: the bundled one, or
the one in --resource-dir when given.

Examples:
  timecheck mock
  timecheck mock --port 8080
  timecheck mock --delay 2s --verbose
  timecheck run --base-url http://localhost:3000/api/`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return mockCommand(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "P", mock.DefaultPort, "Port to run the mock server on")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "Delay to add to all responses (e.g., 100ms, 1s)")

	return cmd
}

func mockCommand(cmd *cobra.Command, opts *mockOptions) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if opts.delay < 0 {
		return exitWith(ExitUsageError, errors.Errorf("invalid delay %v", opts.delay))
	}

	// Request logging is at info level.
	if a.cfg.Verbose && !a.logger.IsLevelEnabled(logrus.InfoLevel) {
		a.logger.SetLevel(logrus.InfoLevel)
	}

	serverOpts := []mock.Option{
		mock.WithPort(opts.port),
		mock.WithDelay(opts.delay),
		mock.WithLogger(a.logger),
	}
	if a.cfg.ResourceDir != "" {
		table, err := a.loader.Table(mock.ZonesFixture)
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		zones, err := table.Values()
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		serverOpts = append(serverOpts, mock.WithZones(zones))
	}

	server, err := mock.NewServer(serverOpts...)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mock server on http://localhost:%d%s/ (%d zones)\n", opts.port, mock.BasePath, len(server.Zones()))
	for _, r := range server.Routes() {
		fmt.Fprintf(out, "  %-6s %s%s\n", r.Method, mock.BasePath, r.Path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		return exitWith(ExitNetworkError, err)
	}
	fmt.Fprintln(out, "\nShutting down mock server...")
	return nil
}
