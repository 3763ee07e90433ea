/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/crudapp/apiserver/internal/db"
	"github.com/crudapp/apiserver/internal/services"
	"github.com/crudapp/apiserver/internal/storage"
	"github.com/crudapp/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var ensureBucket bool

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data to object storage",
}

var exportUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Write a JSON snapshot of all users to the configured bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		objects, err := storage.NewFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		if objects == nil {
			return errors.New("STORAGE_BACKEND must be minio or gcs to export")
		}
		defer objects.Close()

		if ensureBucket {
			if err := objects.EnsureBucket(ctx); err != nil {
				return fmt.Errorf("ensure bucket %s: %w", objects.Bucket(), err)
			}
		}

		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		users := services.NewUserService(store.NewUserRepository(conn), logger)
		key, count, err := services.NewUserExportService(users, objects, logger).Export(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "exported %d users to %s\n", count, objects.URI(key))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportUsersCmd)

	exportUsersCmd.Flags().BoolVar(&ensureBucket, "ensure-bucket", false, "Create the bucket if it does not exist")
}
