package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secconfdb/database"
	"secconfdb/model"
)

var userRole string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage editor accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <login> <password>",
	Short: "Create an editor account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if userRole != model.RoleEditor && userRole != model.RoleAdmin {
			return fmt.Errorf("unknown role %q", userRole)
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		db, err := database.DBInit(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer db.Client().Disconnect(context.Background())

		user, err := database.NewAccounts(db).CreateUser(ctx, args[0], args[1], userRole)
		if err != nil {
			return err
		}
		log.Info("user created", zap.String("login", user.Login), zap.String("role", user.Role))
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userRole, "role", model.RoleEditor, "account role (editor or admin)")
	userCmd.AddCommand(userAddCmd)
}
