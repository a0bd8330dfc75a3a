package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"secconfdb/database"
	"secconfdb/handlers"
	"secconfdb/router"
)

const shutdownTimeout = 10 * time.Second

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 80)")
}

func runServer() error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	if cfg.MigrateOnStart {
		if err := database.MigrateUp(cfg.MySQL); err != nil {
			return err
		}
		log.Info("schema migrated")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.OpenMySQL(ctx, cfg.MySQL, log)
	if err != nil {
		return err
	}
	defer db.Close()

	mongoDB, err := database.DBInit(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer mongoDB.Client().Disconnect(context.Background())

	accounts := database.NewAccounts(mongoDB)
	h := handlers.New(database.NewCatalog(db), accounts, log, handlers.Options{
		DefaultTags: cfg.DefaultTags,
		Sign:        cfg.JWT.Sign,
		TokenTTL:    cfg.JWT.TTL,
	})

	app := router.NewApp(log)
	router.SetupRoutes(app, h, accounts, cfg.JWT.Sign, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", cfg.Server.Addr()), zap.String("environment", cfg.Server.Environment))
		errCh <- app.Listen(cfg.Server.Addr())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}
