package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"vinylfeed/internal/logging"
)

// openDatabase opens a connection pool and pings until the instance answers
// or the configured wait budget runs out. Each failed attempt is logged so a
// slow Postgres start is visible rather than a silent hang.
func openDatabase(ctx context.Context, cfg Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	const maxBackoff = 5 * time.Second

	deadline := time.Now().Add(cfg.DBConnectMaxWait)
	backoff := 500 * time.Millisecond
	attempt := 0
	var lastErr error

	for {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, cfg.DBPingTimeout)
		lastErr = db.PingContext(pingCtx)
		cancel()

		if lastErr == nil {
			if attempt > 1 {
				logging.Info(fmt.Sprintf("database ready after %d attempts", attempt))
			}
			return db, nil
		}

		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}

		logging.Warn(fmt.Sprintf("database not ready (attempt %d), retrying in %s: %v", attempt, backoff, lastErr))
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping database: %w", lastErr)
}
