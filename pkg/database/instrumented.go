package database

import (
	"database/sql"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"timebank.service/internal/config"
)

// NewInstrumentedConnection opens the pool through otelsql so every query
// becomes a span under the request or message that issued it.
func NewInstrumentedConnection(cfg config.Config) (*sql.DB, error) {
	db, err := otelsql.Open("pgx", DSN(cfg),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL, semconv.DBNameKey.String(cfg.DBName)),
		otelsql.WithSQLCommenter(true),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			// Row iteration and session resets add noise without telling
			// anything about a refresh or a submission.
			OmitRows:             true,
			OmitConnResetSession: true,
		}),
	)
	if err != nil {
		return nil, err
	}

	return verify(db)
}
