package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	id "healthchain/pkg/domain"
	"healthchain/pkg/platform/sentinel"
)

// PostgresStore persists the audit trail in Postgres. The monotonic ID is
// still assigned in process under a mutex: uniqueness rests on a
// non-decreasing clock per node, and this store is written to by exactly one
// service instance.
type PostgresStore struct {
	db *sql.DB

	mu     sync.Mutex
	lastID id.LogID
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	if err := s.loadLastID(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id        BIGINT PRIMARY KEY,
			actor     TEXT NOT NULL,
			action    TEXT NOT NULL,
			record_id TEXT NOT NULL DEFAULT '',
			target    TEXT NOT NULL DEFAULT '',
			meta_ref  TEXT NOT NULL DEFAULT '',
			ts        TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("migrate audit_entries: %w", err)
	}
	return nil
}

func (s *PostgresStore) loadLastID(ctx context.Context) error {
	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM audit_entries`).Scan(&last); err != nil {
		return fmt.Errorf("load last audit id: %w", err)
	}
	if last.Valid {
		s.lastID = id.LogID(last.Int64)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) (id.LogID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logID := id.LogID(entry.Timestamp.UnixNano())
	if logID <= s.lastID {
		logID = s.lastID + 1
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_entries (id, actor, action, record_id, target, meta_ref, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		int64(logID), entry.Actor, string(entry.Action), string(entry.RecordID),
		entry.Target, entry.MetaRef, entry.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("append audit entry: %w", err)
	}

	s.lastID = logID
	return logID, nil
}

func (s *PostgresStore) Get(ctx context.Context, logID id.LogID) (Entry, error) {
	var entry Entry
	var rawID int64
	var action string
	var recordID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, actor, action, record_id, target, meta_ref, ts
		 FROM audit_entries WHERE id = $1`, int64(logID),
	).Scan(&rawID, &entry.Actor, &action, &recordID, &entry.Target, &entry.MetaRef, &entry.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get audit entry: %w", err)
	}
	entry.ID = id.LogID(rawID)
	entry.Action = Action(action)
	entry.RecordID = id.RecordID(recordID)
	return entry, nil
}
