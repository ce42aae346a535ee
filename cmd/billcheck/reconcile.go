package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/remedyops/billcheck/internal/benchmark"
	"github.com/remedyops/billcheck/internal/common"
	"github.com/remedyops/billcheck/internal/recon"
)

func reconcileCmd() *cobra.Command {
	var (
		asJSON              bool
		reportUnmatchedBill bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile <case-file>",
		Short: "Reconcile one billing session's documents and report issues",
		Long: `Reconcile loads a case file (documents plus optional plan terms), marks
duplicate line items, matches coverage across document roles, and prints
the billing issues found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) // #nosec G304 - user-supplied case file
			if err != nil {
				return common.NewUserError("failed to read case file", err)
			}

			var c benchmark.Case
			if err := json.Unmarshal(data, &c); err != nil {
				return common.NewUserError("case file is not valid JSON", err)
			}

			analyzer := benchmark.ReconAnalyzer{
				Config: recon.Config{ReportUnmatchedBill: reportUnmatchedBill},
			}
			issues, err := analyzer.Analyze(cmd.Context(), c)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(issues, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal issues: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(renderIssues(issues))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit issues as JSON")
	cmd.Flags().BoolVar(&reportUnmatchedBill, "report-unmatched-bill", false,
		"report bill lines with no EOB or receipt as issues")

	return cmd
}
