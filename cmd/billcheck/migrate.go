package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/remedyops/billcheck/internal/cli"
	"github.com/remedyops/billcheck/internal/common"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the snapshot database schema up to date",
		RunE: func(cmd *cobra.Command, _ []string) error {
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
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess("snapshot database is up to date"))
			return nil
		},
	}
}
