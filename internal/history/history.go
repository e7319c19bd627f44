// Package history stores the shell command history in SQLite. Reads
// used by $history expansion are main-thread only; the engine enforces
// that through its mainthread dispatcher.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brainless/GoFish/internal/log"
)

// Provider is the narrow read interface the expansion engine consumes.
// Index 1 is the most recent item.
type Provider interface {
	Size() int
	ItemsAtIndexes(indexes []int) map[int]string
	GetAll() []string
}

// Store is a SQLite-backed history store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database under storagePath.
func Open(storagePath string) (*Store, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	dbPath := filepath.Join(storagePath, "history.sqlite")
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}
	return store, nil
}

// migrate creates the schema if needed.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

// Add appends a command to the history.
func (s *Store) Add(command string) error {
	if command == "" {
		return nil
	}
	_, err := s.db.Exec("INSERT INTO history (command) VALUES (?)", command)
	if err != nil {
		return fmt.Errorf("failed to insert history item: %w", err)
	}
	return nil
}

// Size returns the number of history items.
func (s *Store) Size() int {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&count); err != nil {
		log.Logger.Warnf("Failed to count history items: %v", err)
		return 0
	}
	return count
}

// ItemsAtIndexes maps 1-based indexes (1 = most recent) to commands.
// Out-of-bounds indexes are absent from the result.
func (s *Store) ItemsAtIndexes(indexes []int) map[int]string {
	out := make(map[int]string, len(indexes))
	size := s.Size()
	for _, idx := range indexes {
		if idx < 1 || idx > size {
			continue
		}
		if _, done := out[idx]; done {
			continue
		}
		var command string
		err := s.db.QueryRow(
			"SELECT command FROM history ORDER BY id DESC LIMIT 1 OFFSET ?", idx-1,
		).Scan(&command)
		if err != nil {
			if err != sql.ErrNoRows {
				log.Logger.Warnf("Failed to read history item %d: %v", idx, err)
			}
			continue
		}
		out[idx] = command
	}
	return out
}

// GetAll returns the full history, most recent first.
func (s *Store) GetAll() []string {
	rows, err := s.db.Query("SELECT command FROM history ORDER BY id DESC")
	if err != nil {
		log.Logger.Warnf("Failed to read history: %v", err)
		return nil
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var command string
		if err := rows.Scan(&command); err != nil {
			log.Logger.Warnf("Failed to scan history row: %v", err)
			continue
		}
		out = append(out, command)
	}
	return out
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
