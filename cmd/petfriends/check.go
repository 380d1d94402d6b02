package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/samvad-hq/petfriends/internal/app"
	"github.com/samvad-hq/petfriends/internal/domain"
	"github.com/spf13/cobra"
)

func newCheckCmd(c *cli) *cobra.Command {
	var (
		strict    bool
		scenarios []string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the end-to-end scenario suite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.requireCredentials(); err != nil {
				return err
			}
			if cmd.Flags().Changed("strict") {
				c.cfg.StrictValidation = strict
			}

			checker, err := app.NewChecker(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := checker.Close(); err != nil {
					c.log.ErrorObj("checker close failed", "error", err.Error())
				}
			}()

			report, err := checker.Run(cmd.Context(), scenarios...)
			if report.RunID != "" {
				if perr := printReport(cmd.OutOrStdout(), report, asJSON); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			if !report.OK() {
				return errChecksFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "expect 400 for inputs the live service is known to accept")
	cmd.Flags().StringSliceVar(&scenarios, "scenario", nil, "run only the named scenarios")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func printReport(w io.Writer, report domain.RunReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	for _, res := range report.Results {
		mark := "PASS"
		if !res.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "%s  %-28s %5dms", mark, res.Name, res.DurationMs)
		if res.Error != "" {
			fmt.Fprintf(w, "  %s", res.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "run %s: %d passed, %d failed\n", report.RunID, report.Passed, report.Failed)
	return nil
}
