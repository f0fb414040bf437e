package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cardbox/internal/integrity"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var repair bool
	var recount bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate catalog integrity",
		Long: "Scans the catalog for dangling references, stale tag counts, and missing " +
			"media files. With --repair, fixable issues are healed in place; missing " +
			"files are always left for manual resolution.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()

			if recount {
				updated, err := store.RecountTags(cmd.Context())
				if err != nil {
					return fmt.Errorf("recount tags: %w", err)
				}
				fmt.Fprintf(out, "Recounted tag references (%d tags updated)\n", updated)
			}

			report, err := integrity.NewValidator(store, nil).Validate(cmd.Context())
			if err != nil {
				return fmt.Errorf("validate catalog: %w", err)
			}

			if len(report.Issues) == 0 {
				fmt.Fprintln(out, "Catalog is consistent; no issues found.")
				return nil
			}

			printIssues(cmd, report)

			if !repair {
				fmt.Fprintln(out, "Run `cardbox check --repair` to fix the fixable issues.")
				return nil
			}

			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}
			fixed := integrity.NewRepairer(store, logger).Repair(cmd.Context(), report.Issues)
			fmt.Fprintf(out, "Repaired %d of %d issues.\n", fixed, len(report.Issues))

			remaining, err := integrity.NewValidator(store, nil).Validate(cmd.Context())
			if err != nil {
				return fmt.Errorf("revalidate catalog: %w", err)
			}
			if len(remaining.Issues) > 0 {
				fmt.Fprintf(out, "%d issues remain (missing files require manual resolution).\n", len(remaining.Issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "Apply automatic fixes for fixable issues")
	cmd.Flags().BoolVar(&recount, "recount", false, "Recompute tag card counts before validating")
	return cmd
}

func printIssues(cmd *cobra.Command, report *integrity.Report) {
	rows := make([][]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		rows = append(rows, []string{
			string(issue.Severity),
			string(issue.Kind),
			issue.EntityID,
			issue.Detail,
			yesNo(issue.Fixable()),
		})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable(
		[]string{"Severity", "Kind", "Entity", "Detail", "Fixable"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "Valid: %s (%d issues)\n", yesNo(report.Valid), len(report.Issues))
}
