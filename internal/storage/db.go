package storage

import (
	"context"
	"errors"
	"fmt"
)

// Config holds connection settings for every store. Postgres and ClickHouse
// are optional; a nil pointer leaves that store closed.
type Config struct {
	SQLitePath string
	Postgres   *PostgresConfig
	ClickHouse *ClickHouseConfig
}

// Stores bundles the open stores. Periods and Audit are nil when disabled.
type Stores struct {
	Review  *ReviewStore
	Periods *PeriodStore
	Audit   *AuditStore
}

// Open opens every configured store and creates missing schemas.
func Open(ctx context.Context, cfg Config) (*Stores, error) {
	review, err := OpenReviewStore(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	s := &Stores{Review: review}

	if cfg.Postgres != nil {
		pg, err := OpenPeriodStore(ctx, *cfg.Postgres)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.Periods = pg
	}

	if cfg.ClickHouse != nil {
		ch, err := OpenAuditStore(ctx, *cfg.ClickHouse)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.Audit = ch
	}

	if err := s.CreateSchemas(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// CreateSchemas creates the server-side schemas. SQLite creates its own on open.
func (s *Stores) CreateSchemas(ctx context.Context) error {
	if s.Periods != nil {
		if err := s.Periods.CreateSchema(ctx); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
	}
	if s.Audit != nil {
		if err := s.Audit.CreateSchema(ctx); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return nil
}

// Close closes every open store.
func (s *Stores) Close() error {
	var errs []error
	if s.Review != nil {
		if err := s.Review.Close(); err != nil {
			errs = append(errs, fmt.Errorf("sqlite: %w", err))
		}
	}
	if s.Periods != nil {
		s.Periods.Close()
	}
	if s.Audit != nil {
		if err := s.Audit.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse: %w", err))
		}
	}
	return errors.Join(errs...)
}
