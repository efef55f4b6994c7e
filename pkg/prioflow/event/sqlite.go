package event

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/randalmurphal/prioflow/pkg/prioflow"
)

// ErrSinkClosed indicates a query against a closed SQLiteSink.
var ErrSinkClosed = errors.New("event sink closed")

// SQLiteSink persists events to SQLite for post-hoc analysis across runs.
// Rows are keyed by run ID so several runs can share one database file.
type SQLiteSink struct {
	db     *sql.DB
	runID  string
	mu     sync.Mutex
	closed bool
}

// NewSQLiteSink opens (or creates) the database at path and tags every
// record with runID. Use ":memory:" for testing.
func NewSQLiteSink(path, runID string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL keeps concurrent readers cheap while a run is still writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			run_id      TEXT NOT NULL,
			time_ms     INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			actor       TEXT NOT NULL,
			actor_id    INTEGER NOT NULL,
			value       INTEGER,
			priority    INTEGER,
			producer_id INTEGER,
			msg_seq     INTEGER,
			depth       INTEGER NOT NULL,
			blocked_ms  INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			run_id TEXT NOT NULL,
			text   TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create notes table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_events_run_id
		ON events(run_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteSink{db: db, runID: runID}, nil
}

// Record implements Sink. Insert failures are swallowed: telemetry loss
// must never take a worker down.
func (s *SQLiteSink) Record(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	var value, priority, producer, seq any
	if e.Msg != nil {
		value = e.Msg.Value
		priority = e.Msg.Priority
		producer = e.Msg.ProducerID
		seq = int64(e.Msg.Seq)
	}

	_, _ = s.db.Exec(`
		INSERT INTO events
			(run_id, time_ms, kind, actor, actor_id,
			 value, priority, producer_id, msg_seq, depth, blocked_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.runID, int64(e.TimeMS), string(e.Kind), string(e.Actor), e.ActorID,
		value, priority, producer, seq, e.Depth, e.BlockedMS)
}

// Note implements Sink.
func (s *SQLiteSink) Note(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	_, _ = s.db.Exec(`INSERT INTO notes (run_id, text) VALUES (?, ?)`, s.runID, text)
}

// ListRun returns every event recorded for a run, in insertion order.
func (s *SQLiteSink) ListRun(runID string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSinkClosed
	}

	rows, err := s.db.Query(`
		SELECT time_ms, kind, actor, actor_id,
		       value, priority, producer_id, msg_seq, depth, blocked_ms
		FROM events
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e                         Event
			timeMS                    int64
			kind, actor               string
			value, priority, producer sql.NullInt64
			seq                       sql.NullInt64
		)
		if err := rows.Scan(&timeMS, &kind, &actor, &e.ActorID,
			&value, &priority, &producer, &seq, &e.Depth, &e.BlockedMS); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.TimeMS = uint64(timeMS)
		e.Kind = Kind(kind)
		e.Actor = Actor(actor)
		if value.Valid {
			e.Msg = &prioflow.Message{
				Value:      int(value.Int64),
				Priority:   int(priority.Int64),
				ProducerID: int(producer.Int64),
				Seq:        uint64(seq.Int64),
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close implements Sink.
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
