package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/remedyops/billcheck/internal/benchmark"
	"github.com/remedyops/billcheck/internal/common"
	"github.com/remedyops/billcheck/internal/recon"
	"github.com/remedyops/billcheck/internal/service"
)

func benchmarkCmd() *cobra.Command {
	var (
		casesDir            string
		modelName           string
		provider            string
		environment         string
		trigger             string
		filter              []string
		workers             int
		missedFallback      float64
		reportUnmatchedBill bool
		save                bool
		asJSON              bool
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run the benchmark sweep over a ground-truth case directory",
		Long: `Benchmark evaluates every ground-truth case, scores detected issues
against the expected annotations, and aggregates category-stratified
precision/recall/F1 plus savings capture. With --save, the aggregated
result is written to the snapshot store as the new current version for
its configuration key.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cases, warnings, err := benchmark.LoadCases(casesDir)
			if err != nil {
				return common.NewUserError("failed to load benchmark cases", err)
			}
			if len(cases) == 0 {
				return common.ErrNoCases
			}

			config := benchmark.Config{
				Model:        modelName,
				Provider:     provider,
				Environment:  environment,
				Trigger:      trigger,
				Filter:       filter,
				Workers:      workers,
				Savings:      benchmark.SavingsConfig{MissedFallback: missedFallback},
				ShowProgress: !asJSON,
			}

			analyzer := benchmark.ReconAnalyzer{
				Config: recon.Config{ReportUnmatchedBill: reportUnmatchedBill},
			}

			runner := benchmark.NewRunner(analyzer, config)
			result, err := runner.Run(cmd.Context(), cases)
			if err != nil {
				return err
			}
			result.Warnings = warnings

			if save {
				store, err := openStore()
				if err != nil {
					return common.NewUserError("failed to open snapshot store", err)
				}
				defer func() {
					if err := store.Close(); err != nil {
						slog.Error("failed to close snapshot store", "error", err)
					}
				}()

				if err := store.Migrate(cmd.Context()); err != nil {
					return fmt.Errorf("failed to migrate snapshot store: %w", err)
				}

				var snapshot *service.Snapshot
				err = common.WithRetry(cmd.Context(), func() error {
					var saveErr error
					snapshot, saveErr = store.SaveSnapshot(cmd.Context(), result.ConfigurationKey, *result)
					return saveErr
				}, service.RetryOptions{})
				if err != nil {
					return fmt.Errorf("failed to save snapshot: %w", err)
				}

				slog.Info("Snapshot saved",
					"configuration_key", snapshot.ConfigurationKey,
					"version", snapshot.Version)
			}

			if asJSON {
				out, err := result.MarshalIndent()
				if err != nil {
					return fmt.Errorf("failed to marshal result: %w", err)
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Println(renderResult(result))
			return nil
		},
	}

	cmd.Flags().StringVar(&casesDir, "cases", "", "directory of ground-truth case files (required)")
	cmd.Flags().StringVar(&modelName, "model", "baseline", "model selector recorded in the configuration key")
	cmd.Flags().StringVar(&provider, "provider", "recon", "provider selector recorded in the configuration key")
	cmd.Flags().StringVar(&environment, "environment", "local", "environment recorded in the configuration key")
	cmd.Flags().StringVar(&trigger, "trigger", "manual", "what triggered this run (manual, ci, schedule)")
	cmd.Flags().StringSliceVar(&filter, "filter", nil, "evaluate only these case IDs")
	cmd.Flags().IntVar(&workers, "workers", 4, "number of cases evaluated concurrently")
	cmd.Flags().Float64Var(&missedFallback, "missed-fallback", 50.0,
		"assumed savings for missed issues without their own estimate")
	cmd.Flags().BoolVar(&reportUnmatchedBill, "report-unmatched-bill", false,
		"report bill lines with no EOB or receipt as issues")
	cmd.Flags().BoolVar(&save, "save", false, "save the result to the snapshot store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the aggregated result as JSON")
	_ = cmd.MarkFlagRequired("cases")

	return cmd
}

func marshalIndent(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
