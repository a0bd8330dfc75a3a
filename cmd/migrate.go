package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secconfdb/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the catalog schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		if err := database.MigrateUp(cfg.MySQL); err != nil {
			return err
		}
		log.Info("schema is up to date", zap.String("database", cfg.MySQL.Database))
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations (one step by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid number of steps %q", args[0])
			}
			steps = n
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		if err := database.MigrateDown(cfg.MySQL, steps); err != nil {
			return err
		}
		log.Info("migrations rolled back", zap.Int("steps", steps))
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
