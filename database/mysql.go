package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"secconfdb/config"
)

func DSN(cfg config.MySQLConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// OpenMySQL opens the connection pool and waits for the server to answer.
// Connections the server has dropped are discarded and re-dialed by the
// pool, so no reconnect logic is needed past this point.
func OpenMySQL(ctx context.Context, cfg config.MySQLConfig, log *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("cannot open the db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn("db is not available, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("interval", cfg.RetryInterval),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				db.Close()
				return nil, ctx.Err()
			case <-time.After(cfg.RetryInterval):
			}
		}

		if lastErr = db.PingContext(ctx); lastErr == nil {
			return db, nil
		}
	}

	db.Close()
	return nil, fmt.Errorf("db is not available after %d attempts: %w", cfg.MaxRetries+1, classify(lastErr))
}
