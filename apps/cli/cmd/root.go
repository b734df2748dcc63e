package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timecheck",
		Short: "Contract tests for the timeapi.io time service",
		Long: `timecheck sends one request per test case to the time API, checks the
status, body, fields, JSON schema and latency of every response, and reports
each failed expectation with a message.

Configuration is read from flags, TIMECHECK_* environment variables and an
optional .timecheck.json or .timecheck.yaml file, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "Path to config file (default: .timecheck.{json,yaml} in the working directory)")
	addConfigFlags(root.PersistentFlags())

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return exitWith(ExitUsageError, err)
	})

	root.AddCommand(
		newRunCmd(),
		newListCmd(),
		newValidateCmd(),
		newMockCmd(),
		newInitCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
	return root
}

// noArgs rejects positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	return exitWith(ExitUsageError, cobra.NoArgs(cmd, args))
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		os.Exit(ExitCode(err))
	}
}
