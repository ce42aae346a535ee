package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/remedyops/billcheck/internal/cli"
	"github.com/remedyops/billcheck/internal/common"
	"github.com/remedyops/billcheck/internal/storage"
)

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect and manage benchmark snapshots",
	}

	cmd.AddCommand(snapshotHistoryCmd())
	cmd.AddCommand(snapshotCheckoutCmd())
	cmd.AddCommand(snapshotCompareCmd())

	return cmd
}

func withStore(fn func(cmd *cobra.Command, store *storage.SQLiteStore, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
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

		return fn(cmd, store, args)
	}
}

func snapshotHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <configuration-key>",
		Short: "List snapshot versions for a configuration key, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, store *storage.SQLiteStore, args []string) error {
			history, err := store.GetHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Snapshot history for " + args[0]))
			for _, snapshot := range history {
				marker := " "
				if snapshot.IsCurrent {
					marker = cli.SuccessStyle.Render("*")
				}
				fmt.Printf("%s v%-4d %s  P=%.3f R=%.3f F1=%.3f  savings capture %.1f%%\n",
					marker,
					snapshot.Version,
					snapshot.CreatedAt.Format("2006-01-02 15:04"),
					snapshot.Metrics.Precision,
					snapshot.Metrics.Recall,
					snapshot.Metrics.F1,
					snapshot.Metrics.SavingsCaptureRate*100)
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of versions to list (0 for all)")

	return cmd
}

func snapshotCheckoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout <configuration-key> <version>",
		Short: "Mark a snapshot version as the current one for its key",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, store *storage.SQLiteStore, args []string) error {
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return common.NewUserError("version must be an integer", err)
			}

			if err := store.Checkout(cmd.Context(), args[0], version); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("checked out %s v%d", args[0], version)))
			return nil
		}),
	}
}

func snapshotCompareCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare <configuration-key> <version-a> <version-b>",
		Short: "Compare two snapshot versions metric by metric",
		Args:  cobra.ExactArgs(3),
		RunE: withStore(func(cmd *cobra.Command, store *storage.SQLiteStore, args []string) error {
			versionA, err := strconv.Atoi(args[1])
			if err != nil {
				return common.NewUserError("version-a must be an integer", err)
			}
			versionB, err := strconv.Atoi(args[2])
			if err != nil {
				return common.NewUserError("version-b must be an integer", err)
			}

			deltas, err := store.Compare(cmd.Context(), args[0], versionA, versionB)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := marshalIndent(deltas)
				if err != nil {
					return fmt.Errorf("failed to marshal comparison: %w", err)
				}
				fmt.Println(out)
				return nil
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%s: v%d → v%d", args[0], versionA, versionB)))
			for _, delta := range deltas {
				line := fmt.Sprintf("%-40s %.4f → %.4f (%+.4f, %+.1f%%)",
					delta.Metric, delta.ValueA, delta.ValueB, delta.Delta, delta.PercentChange)
				switch {
				case delta.Delta > 0:
					fmt.Println(cli.SuccessStyle.Render(line))
				case delta.Delta < 0:
					fmt.Println(cli.ErrorStyle.Render(line))
				default:
					fmt.Println(cli.SubtleStyle.Render(line))
				}
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the comparison as JSON")

	return cmd
}
