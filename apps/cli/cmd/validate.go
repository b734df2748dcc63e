package cmd

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the suite, fixtures and schemas without sending requests",
		Long: `Validate the suite definition, every fixture it reads and every schema it
references. All problems are reported at once.

Examples:
  timecheck validate
  timecheck validate --resource-dir ./resources --suite timeapi.yaml`,
		Args: noArgs,
		RunE: validateCommand,
	}
}

func validateCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	_, schemas, plan, err := a.plan()
	if err != nil {
		return err
	}

	var result *multierror.Error
	if err := schemas.Err(); err != nil {
		result = multierror.Append(result, err)
	}
	for _, se := range plan.Errors {
		result = multierror.Append(result, se)
	}

	if err := result.ErrorOrNil(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Invalid: %s\n", a.cfg.Suite)
		return exitWith(ExitConfigError, errors.Wrap(err, "validation failed"))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d cases, %d schemas)\n", a.cfg.Suite, len(plan.Cases), len(schemas.Names()))
	return nil
}
