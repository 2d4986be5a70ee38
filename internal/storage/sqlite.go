// Package storage provides persistence for extraction candidates, confirmed
// travel periods and extraction audit events.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"travelmail/internal/classify"
	"travelmail/internal/merge"
	"travelmail/internal/metrics"
	"travelmail/internal/roundtrip"
)

// Candidate review states.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ErrNotFound is returned when a candidate or decision does not exist.
var ErrNotFound = errors.New("not found")

// Candidate is an extracted record awaiting, or past, human review.
type Candidate struct {
	ID        string                   `json:"id"`
	Status    string                   `json:"status"`
	Record    classify.ExtractedRecord `json:"record"`
	Issues    []string                 `json:"issues,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// ReviewStore keeps candidates and round-trip decisions in SQLite.
type ReviewStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenReviewStore opens or creates a SQLite database at path. Use
// "file::memory:?cache=shared" or ":memory:" for tests.
func OpenReviewStore(path string) (*ReviewStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps in-memory databases coherent.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent access.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &ReviewStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *ReviewStore) Close() error {
	return s.db.Close()
}

// createSchema creates the database tables and indices.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'pending',
		category TEXT,
		confidence REAL NOT NULL,
		subject TEXT,
		sender TEXT,
		record_json TEXT NOT NULL,
		issues TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_candidates_status ON candidates(status);
	CREATE INDEX IF NOT EXISTS idx_candidates_confidence ON candidates(confidence);

	-- FTS5 virtual table for searching candidates by subject and sender.
	CREATE VIRTUAL TABLE IF NOT EXISTS candidates_fts USING fts5(
		subject,
		sender,
		content='candidates',
		content_rowid='rowid'
	);

	CREATE TRIGGER IF NOT EXISTS candidates_ai AFTER INSERT ON candidates BEGIN
		INSERT INTO candidates_fts(rowid, subject, sender) VALUES (new.rowid, new.subject, new.sender);
	END;

	CREATE TRIGGER IF NOT EXISTS candidates_ad AFTER DELETE ON candidates BEGIN
		INSERT INTO candidates_fts(candidates_fts, rowid, subject, sender) VALUES('delete', old.rowid, old.subject, old.sender);
	END;

	CREATE TRIGGER IF NOT EXISTS candidates_au AFTER UPDATE ON candidates BEGIN
		INSERT INTO candidates_fts(candidates_fts, rowid, subject, sender) VALUES('delete', old.rowid, old.subject, old.sender);
		INSERT INTO candidates_fts(rowid, subject, sender) VALUES (new.rowid, new.subject, new.sender);
	END;

	CREATE TABLE IF NOT EXISTS roundtrip_decisions (
		suggestion_id TEXT PRIMARY KEY,
		accepted INTEGER NOT NULL,
		decided_at TEXT NOT NULL
	);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveCandidates stores freshly extracted records as pending candidates.
// Records already reviewed keep their status; pending ones are refreshed.
// issues maps email ids to validation issues.
func (s *ReviewStore) SaveCandidates(ctx context.Context, records []classify.ExtractedRecord, issues map[string][]string) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("sqlite", "save_candidates", time.Since(start)) }()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		recJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", rec.EmailID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidates (id, status, category, confidence, subject, sender, record_json, issues, created_at, updated_at)
			VALUES (?, 'pending', ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				category = excluded.category,
				confidence = excluded.confidence,
				subject = excluded.subject,
				sender = excluded.sender,
				record_json = excluded.record_json,
				issues = excluded.issues,
				updated_at = excluded.updated_at
			WHERE candidates.status = 'pending'
		`, rec.EmailID, string(rec.Category), rec.Confidence, rec.Subject, rec.Sender, string(recJSON),
			strings.Join(issues[rec.EmailID], "\n"), now, now)
		if err != nil {
			return fmt.Errorf("upsert candidate %s: %w", rec.EmailID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListParams filters candidate listings.
type ListParams struct {
	Status   string // Filter by review status (exact match).
	FullText string // FTS5 search over subject and sender.
	Limit    int    // Max results (default 100).
	Offset   int    // Pagination offset.
}

// ListCandidates returns candidates ordered by descending confidence.
func (s *ReviewStore) ListCandidates(ctx context.Context, p ListParams) ([]Candidate, error) {
	var conditions []string
	var args []interface{}

	query := `SELECT c.id, c.status, c.record_json, c.issues, c.created_at, c.updated_at FROM candidates c`
	if p.FullText != "" {
		query += ` JOIN candidates_fts ON c.rowid = candidates_fts.rowid`
		conditions = append(conditions, "candidates_fts MATCH ?")
		args = append(args, p.FullText)
	}
	if p.Status != "" {
		conditions = append(conditions, "c.status = ?")
		args = append(args, p.Status)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := 100
	if p.Limit > 0 {
		limit = p.Limit
	}
	query += fmt.Sprintf(" ORDER BY c.confidence DESC, c.id ASC LIMIT %d OFFSET %d", limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCandidate returns one candidate by email id.
func (s *ReviewStore) GetCandidate(ctx context.Context, id string) (Candidate, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, record_json, issues, created_at, updated_at FROM candidates WHERE id = ?
	`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	return c, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCandidate(sc scanner) (Candidate, error) {
	var c Candidate
	var recJSON string
	var issues sql.NullString
	var created, updated string

	if err := sc.Scan(&c.ID, &c.Status, &recJSON, &issues, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Candidate{}, err
		}
		return Candidate{}, fmt.Errorf("scan candidate: %w", err)
	}
	if err := json.Unmarshal([]byte(recJSON), &c.Record); err != nil {
		return Candidate{}, fmt.Errorf("unmarshal record %s: %w", c.ID, err)
	}
	if issues.Valid && issues.String != "" {
		c.Issues = strings.Split(issues.String, "\n")
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, created)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return c, nil
}

// FindEquivalent returns the pending or accepted candidate, other than rec
// itself, that describes the same trip as rec. The highest-confidence match
// wins. Rejected candidates never match.
func (s *ReviewStore) FindEquivalent(ctx context.Context, rec classify.ExtractedRecord) (Candidate, bool, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("sqlite", "find_equivalent", time.Since(start)) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, record_json, issues, created_at, updated_at FROM candidates
		WHERE status IN ('pending', 'accepted') AND id != ? AND (
			(? != '' AND json_extract(record_json, '$.flight_number') = ?) OR
			(? != '' AND json_extract(record_json, '$.booking_reference') = ?) OR
			(? != '' AND json_extract(record_json, '$.departure_airport') = ?)
		)
		ORDER BY confidence DESC, id ASC
	`, rec.EmailID,
		rec.FlightNumber, rec.FlightNumber,
		rec.BookingReference, rec.BookingReference,
		rec.DepartureAirport, rec.DepartureAirport)
	if err != nil {
		return Candidate{}, false, fmt.Errorf("query equivalents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return Candidate{}, false, err
		}
		// Same airport only counts with the same departure day.
		if merge.Equivalent(rec, c.Record) {
			return c, true, nil
		}
	}
	return Candidate{}, false, rows.Err()
}

// SetStatus records a review decision for a candidate.
func (s *ReviewStore) SetStatus(ctx context.Context, id, status string) error {
	switch status {
	case StatusPending, StatusAccepted, StatusRejected:
	default:
		return fmt.Errorf("invalid status %q", status)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE candidates SET status = ?, updated_at = ? WHERE id = ?`,
		status, s.now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return requireRow(res)
}

// UpdateRecord replaces a candidate's record after a reviewer edit.
func (s *ReviewStore) UpdateRecord(ctx context.Context, rec classify.ExtractedRecord, issues []string) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE candidates SET category = ?, confidence = ?, record_json = ?, issues = ?, updated_at = ?
		WHERE id = ?
	`, string(rec.Category), rec.Confidence, string(recJSON), strings.Join(issues, "\n"),
		s.now().UTC().Format(time.RFC3339), rec.EmailID)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return requireRow(res)
}

// AcceptedRecords returns the records of every accepted candidate.
func (s *ReviewStore) AcceptedRecords(ctx context.Context) ([]classify.ExtractedRecord, error) {
	cands, err := s.ListCandidates(ctx, ListParams{Status: StatusAccepted, Limit: 10000})
	if err != nil {
		return nil, err
	}
	out := make([]classify.ExtractedRecord, len(cands))
	for i, c := range cands {
		out[i] = c.Record
	}
	return out, nil
}

// SaveDecision records whether a round-trip suggestion was accepted.
func (s *ReviewStore) SaveDecision(ctx context.Context, suggestionID string, accept bool) error {
	acc := 0
	if accept {
		acc = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roundtrip_decisions (suggestion_id, accepted, decided_at) VALUES (?, ?, ?)
		ON CONFLICT(suggestion_id) DO UPDATE SET accepted = excluded.accepted, decided_at = excluded.decided_at
	`, suggestionID, acc, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save decision: %w", err)
	}
	return nil
}

// Decisions returns every recorded round-trip decision.
func (s *ReviewStore) Decisions(ctx context.Context) (roundtrip.Decisions, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT suggestion_id, accepted FROM roundtrip_decisions`)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(roundtrip.Decisions)
	for rows.Next() {
		var id string
		var acc int
		if err := rows.Scan(&id, &acc); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out[id] = acc == 1
	}
	return out, rows.Err()
}

// Stats returns candidate counts by status.
func (s *ReviewStore) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM candidates GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
