package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timebank.service/internal/config"
)

// DSN builds the pgx connection URL from the DB_* settings.
func DSN(cfg config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// verify sizes the pool and pings the database.
func verify(db *sql.DB) (*sql.DB, error) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS day_records (
	employee_id             TEXT        NOT NULL,
	day                     DATE        NOT NULL,
	punches                 JSONB       NOT NULL DEFAULT '[]',
	is_holiday              BOOLEAN     NOT NULL DEFAULT FALSE,
	holiday_name            TEXT        NOT NULL DEFAULT '',
	business_seconds        BIGINT      NOT NULL DEFAULT 0,
	day_extra_seconds       BIGINT      NOT NULL DEFAULT 0,
	night_extra_seconds     BIGINT      NOT NULL DEFAULT 0,
	credit_seconds          BIGINT      NOT NULL DEFAULT 0,
	debt_seconds            BIGINT      NOT NULL DEFAULT 0,
	total_worked_seconds    BIGINT      NOT NULL DEFAULT 0,
	break_seconds           BIGINT      NOT NULL DEFAULT 0,
	justification           TEXT        NOT NULL DEFAULT '',
	synced                  BOOLEAN     NOT NULL DEFAULT TRUE,
	submission_status       TEXT        NOT NULL DEFAULT 'COMPLETED',
	submission_retry_count  INT         NOT NULL DEFAULT 0,
	submitted_codes         JSONB       NOT NULL DEFAULT '[]',
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (employee_id, day)
)`

// Columns added after the first release of day_records.
var upgrades = []string{
	`ALTER TABLE day_records ADD COLUMN IF NOT EXISTS submitted_codes JSONB NOT NULL DEFAULT '[]'`,
}

// Migrate creates the tables the service needs when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range append([]string{schema}, upgrades...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error migrating schema: %w", err)
		}
	}
	return nil
}
