// Package wal implements the durable-write collaborator: an append-only
// mutation log in SQLite. Every acknowledged mutation has a log record
// keyed by its revision, and startup replays the log to rebuild the
// graph store before any session traffic is accepted.
//
// The storage shape (WAL journal mode, busy timeout, idempotent
// migration) follows the sqlite store this server's memory engine
// descends from.
package wal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/beads-mcp/internal/graph"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Op names the mutation a log record carries.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpLink   Op = "link"
	OpUnlink Op = "unlink"
)

// Record is one durable mutation. Payloads hold post-state (the full
// issue for create/update, the edge for link/unlink, the id for
// delete) so replay is deterministic without re-running validation.
type Record struct {
	Revision uint64          `json:"revision"`
	Op       Op              `json:"op"`
	Payload  json.RawMessage `json:"payload"`
}

// DeletePayload is the payload of an OpDelete record.
type DeletePayload struct {
	ID string `json:"id"`
}

// IssueRecord builds a create/update record carrying the issue's
// post-mutation state.
func IssueRecord(rev uint64, op Op, issue *graph.Issue) (Record, error) {
	payload, err := json.Marshal(issue)
	if err != nil {
		return Record{}, fmt.Errorf("wal: encode issue %s: %w", issue.ID, err)
	}
	return Record{Revision: rev, Op: op, Payload: payload}, nil
}

// DeleteRecord builds an OpDelete record.
func DeleteRecord(rev uint64, id string) (Record, error) {
	payload, err := json.Marshal(DeletePayload{ID: id})
	if err != nil {
		return Record{}, fmt.Errorf("wal: encode delete %s: %w", id, err)
	}
	return Record{Revision: rev, Op: OpDelete, Payload: payload}, nil
}

// EdgeRecord builds a link/unlink record.
func EdgeRecord(rev uint64, op Op, e graph.Edge) (Record, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return Record{}, fmt.Errorf("wal: encode edge: %w", err)
	}
	return Record{Revision: rev, Op: op, Payload: payload}, nil
}

// Log is the SQLite-backed mutation log.
type Log struct {
	db *sql.DB
}

// Open creates the data directory if needed, opens the database with
// WAL mode, and runs migrations.
func Open(dataDir string) (*Log, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("wal: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "beads.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("wal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("wal: pragma %q: %w", p, err)
		}
	}

	l := &Log{db: db}
	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("wal: migration: %w", err)
	}
	return l, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

func (l *Log) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS mutations (
			revision   INTEGER PRIMARY KEY,
			op         TEXT NOT NULL,
			payload    TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_mutations_op ON mutations(op);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Append durably writes one mutation record. The coordinator calls it
// synchronously, inside the exclusive section, before acknowledging
// the mutation; an error here means the mutation must be rolled back.
func (l *Log) Append(rec Record) error {
	_, err := l.db.Exec(
		"INSERT INTO mutations (revision, op, payload) VALUES (?, ?, ?)",
		int64(rec.Revision), string(rec.Op), string(rec.Payload),
	)
	if err != nil {
		return fmt.Errorf("wal: append revision %d: %w", rec.Revision, err)
	}
	return nil
}

// Records returns every log record in revision order.
func (l *Log) Records() ([]Record, error) {
	rows, err := l.db.Query("SELECT revision, op, payload FROM mutations ORDER BY revision ASC")
	if err != nil {
		return nil, fmt.Errorf("wal: read log: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var (
			rev     int64
			op      string
			payload string
		)
		if err := rows.Scan(&rev, &op, &payload); err != nil {
			return nil, fmt.Errorf("wal: scan record: %w", err)
		}
		recs = append(recs, Record{
			Revision: uint64(rev),
			Op:       Op(op),
			Payload:  json.RawMessage(payload),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("wal: read log: %w", err)
	}
	return recs, nil
}

// Replay applies log records to a store in revision order. Replay is
// idempotent: records at or below the store's revision are skipped, so
// at-least-once delivery after a crash reconstructs the same state.
func Replay(store *graph.Store, recs []Record) error {
	for _, rec := range recs {
		if rec.Revision <= store.Revision() {
			continue
		}
		if err := apply(store, rec); err != nil {
			return fmt.Errorf("wal: replay revision %d (%s): %w", rec.Revision, rec.Op, err)
		}
		store.SetRevision(rec.Revision)
	}
	return nil
}

func apply(store *graph.Store, rec Record) error {
	switch rec.Op {
	case OpCreate:
		var issue graph.Issue
		if err := json.Unmarshal(rec.Payload, &issue); err != nil {
			return err
		}
		return store.InsertIssue(&issue)
	case OpUpdate:
		var issue graph.Issue
		if err := json.Unmarshal(rec.Payload, &issue); err != nil {
			return err
		}
		return store.ReplaceIssue(&issue)
	case OpDelete:
		var p DeletePayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return err
		}
		_, err := store.DeleteIssue(p.ID)
		return err
	case OpLink:
		var e graph.Edge
		if err := json.Unmarshal(rec.Payload, &e); err != nil {
			return err
		}
		return store.AddEdge(e)
	case OpUnlink:
		var e graph.Edge
		if err := json.Unmarshal(rec.Payload, &e); err != nil {
			return err
		}
		return store.RemoveEdge(e)
	default:
		return fmt.Errorf("unknown op %q", rec.Op)
	}
}
