// Package repository persists temperature readings to the pool table.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"pool-logger/internal/types"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS pool (
	id        SERIAL PRIMARY KEY,
	tz        TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	pool_temp REAL,
	air_temp  REAL
)`

const insertReadingSQL = `INSERT INTO pool (tz, pool_temp, air_temp) VALUES (CURRENT_TIMESTAMP, $1, $2)`

type PoolRepository interface {
	EnsureSchema(ctx context.Context) error
	WriteBatch(ctx context.Context, readings []types.Reading) error
}

type repositoryImpl struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewRepository(db *sql.DB, logger *slog.Logger) PoolRepository {
	return &repositoryImpl{db: db, logger: logger}
}

// EnsureSchema creates the pool table if it does not exist. Safe to call on
// every startup.
func (r *repositoryImpl) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		r.logger.Error("setting up pool table failed", "error", err)
		return fmt.Errorf("ensure schema: %w", err)
	}
	r.logger.Info("database table 'pool' ready")
	return nil
}

// WriteBatch inserts one row per reading inside a single transaction. The
// batch commits or rolls back as a whole; rows are timestamped by the
// server. An empty batch performs no database statements.
func (r *repositoryImpl) WriteBatch(ctx context.Context, readings []types.Reading) error {
	if len(readings) == 0 {
		r.logger.Info("no temperature data to log")
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("beginning transaction failed", "error", err)
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback()
	}()

	for _, reading := range readings {
		if _, err := tx.ExecContext(ctx, insertReadingSQL, reading.PoolTemp, reading.AirTemp); err != nil {
			r.logger.Error("inserting reading failed",
				"system_id", reading.SystemID,
				"error", err,
			)
			return fmt.Errorf("insert reading for %s: %w", reading.SystemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("committing batch failed", "error", err)
		return fmt.Errorf("commit batch: %w", err)
	}

	for _, reading := range readings {
		r.logger.Info("logged reading",
			"system_id", reading.SystemID,
			"pool_temp", tempAttr(reading.PoolTemp),
			"air_temp", tempAttr(reading.AirTemp),
		)
	}
	return nil
}

func tempAttr(v *float64) any {
	if v == nil {
		return "N/A"
	}
	return *v
}
