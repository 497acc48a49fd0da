package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "同步数据库表结构",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		_, dataLayer, cleanup, err := openDataLayer(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := dataLayer.PgClient.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		fmt.Println("Migration completed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
