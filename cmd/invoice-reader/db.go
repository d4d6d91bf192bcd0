package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-reader/internal/common"
	"github.com/joseph-ayodele/invoice-reader/internal/repository"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Journal database utilities",
}

var dbHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Connect to the journal database, create its schema and ping it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if cfg.Store.Driver == "" {
			return fmt.Errorf("%w: store.driver is not set", common.ErrInvalidInput)
		}
		db, err := repository.Open(ctx, cfg.Store, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.HealthCheck(ctx, time.Second); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		fmt.Println("DB health: OK")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbHealthCmd)
	rootCmd.AddCommand(dbCmd)
}
