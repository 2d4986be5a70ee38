package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"travelmail/internal/metrics"
	"travelmail/internal/trips"
)

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// PeriodStore keeps confirmed travel periods in PostgreSQL.
type PeriodStore struct {
	pool *pgxpool.Pool
}

// OpenPeriodStore opens a connection pool to PostgreSQL.
func OpenPeriodStore(ctx context.Context, cfg PostgresConfig) (*PeriodStore, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// Test the connection.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &PeriodStore{pool: pool}, nil
}

// Close closes the PostgreSQL connection pool.
func (d *PeriodStore) Close() {
	d.pool.Close()
}

// CreateSchema creates the travel_periods table.
func (d *PeriodStore) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS travel_periods (
		id              TEXT PRIMARY KEY,
		country_code    TEXT NOT NULL,
		country_name    TEXT NOT NULL,
		entry_date      TEXT,
		exit_date       TEXT,
		flights         JSONB NOT NULL DEFAULT '[]',
		purpose         TEXT,
		notes           TEXT,
		confidence      DOUBLE PRECISION NOT NULL,
		extracted_at    TIMESTAMPTZ NOT NULL,
		confirmed_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_travel_periods_country ON travel_periods(country_code);
	CREATE INDEX IF NOT EXISTS idx_travel_periods_entry ON travel_periods(entry_date);
	`

	if _, err := d.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const upsertPeriodSQL = `
	INSERT INTO travel_periods (id, country_code, country_name, entry_date, exit_date, flights, purpose, notes, confidence, extracted_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		country_code = EXCLUDED.country_code,
		country_name = EXCLUDED.country_name,
		entry_date = EXCLUDED.entry_date,
		exit_date = EXCLUDED.exit_date,
		flights = EXCLUDED.flights,
		purpose = EXCLUDED.purpose,
		notes = EXCLUDED.notes,
		confidence = EXCLUDED.confidence,
		extracted_at = EXCLUDED.extracted_at,
		confirmed_at = NOW()
`

// ReplacePeriods deletes the periods named by remove and upserts add in
// one transaction. Accepting a round trip replaces its two legs with the
// merged period this way.
func (d *PeriodStore) ReplacePeriods(ctx context.Context, remove []string, add []trips.TravelPeriod) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("postgres", "replace_periods", time.Since(start)) }()

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(remove) > 0 {
		if _, err := tx.Exec(ctx, `DELETE FROM travel_periods WHERE id = ANY($1)`, remove); err != nil {
			return fmt.Errorf("delete periods: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for _, p := range add {
		flights, err := json.Marshal(p.Flights)
		if err != nil {
			return fmt.Errorf("marshal flights for %s: %w", p.ID, err)
		}
		batch.Queue(upsertPeriodSQL, p.ID, p.CountryCode, p.CountryName, nullIfEmpty(p.EntryDate),
			nullIfEmpty(p.ExitDate), flights, p.Purpose, p.Notes, p.Confidence, p.ExtractedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert periods: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListPeriods returns stored periods, optionally for one country, ordered by
// entry date with undated periods last.
func (d *PeriodStore) ListPeriods(ctx context.Context, countryCode string) ([]trips.TravelPeriod, error) {
	query := `SELECT id, country_code, country_name, entry_date, exit_date, flights, purpose, notes, confidence, extracted_at
		FROM travel_periods`
	var args []interface{}
	if countryCode != "" {
		query += ` WHERE country_code = $1`
		args = append(args, countryCode)
	}
	query += ` ORDER BY entry_date ASC NULLS LAST, id ASC`

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	var out []trips.TravelPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}
	return out, nil
}

// GetPeriod returns one period by id, or nil if it does not exist.
func (d *PeriodStore) GetPeriod(ctx context.Context, id string) (*trips.TravelPeriod, error) {
	row := d.pool.QueryRow(ctx, `SELECT id, country_code, country_name, entry_date, exit_date, flights, purpose, notes, confidence, extracted_at
		FROM travel_periods WHERE id = $1`, id)
	p, err := scanPeriod(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPeriod(row pgx.Row) (trips.TravelPeriod, error) {
	var p trips.TravelPeriod
	var entry, exit, purpose, notes *string
	var flights []byte

	err := row.Scan(&p.ID, &p.CountryCode, &p.CountryName, &entry, &exit, &flights, &purpose, &notes, &p.Confidence, &p.ExtractedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("scan period: %w", err)
	}
	p.EntryDate = deref(entry)
	p.ExitDate = deref(exit)
	p.Purpose = deref(purpose)
	p.Notes = deref(notes)
	if len(flights) > 0 {
		if err := json.Unmarshal(flights, &p.Flights); err != nil {
			return p, fmt.Errorf("unmarshal flights for %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
