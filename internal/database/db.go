package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/futures-analyzer/internal/ingest"
	"github.com/Alias1177/futures-analyzer/internal/model"
)

// DB represents a database connection
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// New opens a Postgres connection, retrying the first ping with exponential
// backoff, and creates the recommendation journal if needed
func New(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "database").Logger()

	ping := func() error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn().Err(err).Msg("Database not reachable, retrying")
			return err
		}
		return nil
	}
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(ping, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{DB: db, logger: logger}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS strategy_recommendations (
			id BIGSERIAL PRIMARY KEY,
			session_id UUID NOT NULL,
			model_type TEXT NOT NULL,
			contract TEXT NOT NULL,
			bar_date DATE NOT NULL,
			action TEXT NOT NULL,
			current_price DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION,
			take_profit DOUBLE PRECISION,
			success_rate DOUBLE PRECISION NOT NULL,
			risk_reward DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create strategy_recommendations: %w", err)
	}
	return nil
}

const insertRecommendation = `
	INSERT INTO strategy_recommendations (
		session_id, model_type, contract, bar_date, action,
		current_price, stop_loss, take_profit, success_rate, risk_reward
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// SaveRecommendation journals one recommendation
func (db *DB) SaveRecommendation(ctx context.Context, session, modelType string, rec model.StrategyRecommendation) error {
	if _, err := db.ExecContext(ctx, insertRecommendation, recommendationArgs(session, modelType, rec)...); err != nil {
		return fmt.Errorf("save recommendation: %w", err)
	}
	db.logger.Debug().Str("contract", rec.Instrument).Str("action", string(rec.Action)).Msg("Recommendation saved")
	return nil
}

func recommendationArgs(session, modelType string, rec model.StrategyRecommendation) []interface{} {
	return []interface{}{
		session,
		modelType,
		rec.Instrument,
		rec.Date,
		string(rec.Action),
		rec.CurrentPrice,
		nullable(rec.StopLoss),
		nullable(rec.TakeProfit),
		rec.SuccessRate,
		rec.RiskRewardRatio,
	}
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// BarSource reads a whole table as raw ingestion input
type BarSource struct {
	db    *DB
	query string
}

// BarSource returns a source over table. Column names become the header, so the
// usual column mapping applies.
func (db *DB) BarSource(table string) *BarSource {
	return &BarSource{db: db, query: selectAll(table)}
}

func selectAll(table string) string {
	return "SELECT * FROM " + pq.QuoteIdentifier(table)
}

// ReadTable runs the query and renders every value as text
func (s *BarSource) ReadTable(ctx context.Context) (*ingest.Table, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &ingest.Table{Header: header}
	values := make([]sql.NullString, len(header))
	dest := make([]interface{}, len(header))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan bar row: %w", err)
		}
		table.Records = append(table.Records, toRecord(values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}

	s.db.logger.Info().Int("rows", len(table.Records)).Msg("Bars read from postgres")
	return table, nil
}

// toRecord turns NULLs into empty cells, which ingestion treats as missing
func toRecord(values []sql.NullString) []string {
	record := make([]string, len(values))
	for i, v := range values {
		if v.Valid {
			record[i] = v.String
		}
	}
	return record
}
