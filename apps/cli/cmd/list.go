package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/timecheck/packages/assertions"
	"github.com/abdul-hamid-achik/timecheck/packages/core/suite"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the planned test cases",
		Long: `List every test case the suite expands to, with the request it sends and
the expectations it checks. Nothing is sent to the service.

Examples:
  timecheck list
  timecheck list --filter "currentTime*"
  timecheck list --resource-dir ./resources --suite smoke.yaml`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			_, _, plan, err := a.plan()
			if err != nil {
				return err
			}
			return writePlanTable(cmd.OutOrStdout(), plan, a.cfg.BaseURL)
		},
	}
}

// writePlanTable renders one row per planned case and one per setup error.
func writePlanTable(w io.Writer, plan *suite.Plan, baseURL string) error {
	fmt.Fprintf(w, "%s: %d cases\n\n", plan.Suite, plan.Len())

	table := tablewriter.NewWriter(w)
	table.Header("#", "Case", "Method", "URL", "Checks")

	n := 0
	for _, tc := range plan.Cases {
		n++
		url, err := tc.Request.URL(baseURL)
		if err != nil {
			url = err.Error()
		}
		checks := make([]string, 0, len(tc.Predicates))
		for _, p := range tc.Predicates {
			checks = append(checks, assertions.Describe(p))
		}
		if err := table.Append([]string{strconv.Itoa(n), tc.Name, tc.Request.Method, url, strings.Join(checks, "\n")}); err != nil {
			return errors.Wrap(err, "rendering plan")
		}
	}
	for _, se := range plan.Errors {
		n++
		if err := table.Append([]string{strconv.Itoa(n), se.Case, "-", "setup failed", se.Err.Error()}); err != nil {
			return errors.Wrap(err, "rendering plan")
		}
	}

	return errors.Wrap(table.Render(), "rendering plan")
}
