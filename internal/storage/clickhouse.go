package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"travelmail/internal/metrics"
	"travelmail/internal/pipeline"
)

// ClickHouseConfig holds ClickHouse connection settings.
type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

// AuditStore appends one extraction event per processed email to ClickHouse.
type AuditStore struct {
	conn driver.Conn
}

// OpenAuditStore opens a connection to ClickHouse.
func OpenAuditStore(ctx context.Context, cfg ClickHouseConfig) (*AuditStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:     10 * time.Second,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}

	// Test the connection.
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	return &AuditStore{conn: conn}, nil
}

// Close closes the ClickHouse connection.
func (d *AuditStore) Close() error {
	return d.conn.Close()
}

// CreateSchema creates the extraction_events table.
func (d *AuditStore) CreateSchema(ctx context.Context) error {
	err := d.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS extraction_events (
		email_id        String,
		processed_at    DateTime64(3),
		source          LowCardinality(String),
		category        LowCardinality(String),
		confidence      Float32,
		kept            UInt8,
		issues          String
	)
	ENGINE = MergeTree()
	PARTITION BY toYYYYMM(processed_at)
	ORDER BY (category, processed_at, email_id)`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// AuditEvent is one row of extraction_events.
type AuditEvent struct {
	EmailID     string
	ProcessedAt time.Time
	Source      string
	Category    string
	Confidence  float32
	Kept        bool
	Issues      []string
}

// EventsFromOutcomes converts a batch's outcomes into audit events.
func EventsFromOutcomes(outcomes []pipeline.Outcome, source string, at time.Time) []AuditEvent {
	events := make([]AuditEvent, len(outcomes))
	for i, o := range outcomes {
		category := string(o.Category)
		if category == "" {
			category = "none"
		}
		events[i] = AuditEvent{
			EmailID:     o.EmailID,
			ProcessedAt: at,
			Source:      source,
			Category:    category,
			Confidence:  float32(o.Confidence),
			Kept:        o.Kept,
			Issues:      o.Issues,
		}
	}
	return events
}

// InsertBatch stores events in ClickHouse in a single batch.
func (d *AuditStore) InsertBatch(ctx context.Context, events []AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("clickhouse", "insert_events", time.Since(start)) }()

	batch, err := d.conn.PrepareBatch(ctx, `
		INSERT INTO extraction_events (email_id, processed_at, source, category, confidence, kept, issues)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		var kept uint8
		if e.Kept {
			kept = 1
		}
		err := batch.Append(e.EmailID, e.ProcessedAt, e.Source, e.Category, e.Confidence, kept, strings.Join(e.Issues, "\n"))
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// CategoryStat aggregates events for one category.
type CategoryStat struct {
	Category      string  `json:"category"`
	Events        uint64  `json:"events"`
	Kept          uint64  `json:"kept"`
	AvgConfidence float64 `json:"avg_confidence"`
}

// CategoryStats returns per-category event counts, busiest first.
func (d *AuditStore) CategoryStats(ctx context.Context) ([]CategoryStat, error) {
	rows, err := d.conn.Query(ctx, `
		SELECT category, count(), countIf(kept = 1), avg(confidence)
		FROM extraction_events
		GROUP BY category
		ORDER BY count() DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query category stats: %w", err)
	}
	defer rows.Close()

	var stats []CategoryStat
	for rows.Next() {
		var s CategoryStat
		if err := rows.Scan(&s.Category, &s.Events, &s.Kept, &s.AvgConfidence); err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category stats: %w", err)
	}
	return stats, nil
}
