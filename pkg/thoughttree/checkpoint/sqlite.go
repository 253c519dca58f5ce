package checkpoint

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists checkpoints and the call ledger to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite substrate.
// The path should be a file path (e.g., "./searches.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			search_id TEXT NOT NULL,
			phase TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			timestamp TEXT NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (search_id, phase)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_checkpoints_search_id
		ON checkpoints(search_id)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS call_ledger (
			search_id TEXT NOT NULL,
			call_id TEXT NOT NULL,
			committed_at TEXT NOT NULL,
			result BLOB NOT NULL,
			PRIMARY KEY (search_id, call_id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(searchID, phase string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	// Sequence is max + 1 for this search; overwriting a phase bumps it
	// to the end so List() reflects transition order.
	_, err := s.db.Exec(`
		INSERT INTO checkpoints (search_id, phase, sequence, timestamp, data)
		VALUES (
			?, ?,
			COALESCE((SELECT MAX(sequence) FROM checkpoints WHERE search_id = ?), 0) + 1,
			?, ?
		)
		ON CONFLICT(search_id, phase) DO UPDATE SET
			sequence = (SELECT MAX(sequence) FROM checkpoints WHERE search_id = excluded.search_id) + 1,
			timestamp = excluded.timestamp,
			data = excluded.data
	`, searchID, phase, searchID, time.Now().UTC().Format(time.RFC3339Nano), data)

	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(searchID, phase string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRow(`
		SELECT data FROM checkpoints
		WHERE search_id = ? AND phase = ?
	`, searchID, phase).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *SQLiteStore) List(searchID string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT phase, sequence, timestamp, LENGTH(data)
		FROM checkpoints
		WHERE search_id = ?
		ORDER BY sequence
	`, searchID)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var timestamp string
		if err := rows.Scan(&info.Phase, &info.Sequence, &timestamp, &info.Size); err != nil {
			return nil, fmt.Errorf("scan checkpoint info: %w", err)
		}
		info.SearchID = searchID
		info.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checkpoints: %w", err)
	}

	return infos, nil
}

// DeleteSearch implements Store.
func (s *SQLiteStore) DeleteSearch(searchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.Exec(`DELETE FROM checkpoints WHERE search_id = ?`, searchID); err != nil {
		return fmt.Errorf("delete search checkpoints: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM call_ledger WHERE search_id = ?`, searchID); err != nil {
		return fmt.Errorf("delete search ledger: %w", err)
	}
	return nil
}

// Commit implements Ledger. First write wins: a retried commit of the
// same call identity leaves the original outcome in place.
func (s *SQLiteStore) Commit(searchID, callID string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO call_ledger (search_id, call_id, committed_at, result)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(search_id, call_id) DO NOTHING
	`, searchID, callID, time.Now().UTC().Format(time.RFC3339Nano), result)

	if err != nil {
		return fmt.Errorf("commit call: %w", err)
	}
	return nil
}

// Lookup implements Ledger.
func (s *SQLiteStore) Lookup(searchID, callID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var result []byte
	err := s.db.QueryRow(`
		SELECT result FROM call_ledger
		WHERE search_id = ? AND call_id = ?
	`, searchID, callID).Scan(&result)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup call: %w", err)
	}
	return result, nil
}

// Committed implements Ledger.
func (s *SQLiteStore) Committed(searchID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM call_ledger WHERE search_id = ?
	`, searchID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count committed calls: %w", err)
	}
	return count, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
