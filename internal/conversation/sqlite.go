package conversation

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLog is a SQLite-backed turn log. It keeps the same append-only,
// ordered semantics as MemoryLog but survives restarts, so a redeploy
// does not wipe the desk's conversation context.
type SQLiteLog struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteLog opens (or creates) a SQLite-backed log at dbPath.
func NewSQLiteLog(dbPath string, logger *slog.Logger) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	l := &SQLiteLog{db: db, logger: logger}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return l, nil
}

// migrate creates the database schema.
func (l *SQLiteLog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		timestamp TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_seq ON turns(seq);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}

// Append adds a turn to the end of the log. The seq column gives a
// total order even when timestamps collide.
func (l *SQLiteLog) Append(role, content string) error {
	id, _ := uuid.NewV7()

	_, err := l.db.Exec(`
		INSERT INTO turns (id, role, content, timestamp)
		VALUES (?, ?, ?, ?)
	`, id.String(), role, content, time.Now())
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}

	return nil
}

// Snapshot returns an ordered copy of all turns. Read failures degrade
// to an empty (or truncated) snapshot but are never silent: the safety
// gate reasons over this history, so a turn vanishing without a log
// line would be undiagnosable.
func (l *SQLiteLog) Snapshot() []Turn {
	rows, err := l.db.Query(`
		SELECT role, content, timestamp FROM turns ORDER BY seq ASC
	`)
	if err != nil {
		l.logger.Error("conversation snapshot query failed", "error", err)
		return []Turn{}
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.Timestamp); err != nil {
			l.logger.Error("conversation turn scan failed", "error", err)
			continue
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		l.logger.Error("conversation snapshot iteration failed", "error", err)
	}

	return turns
}

// Len returns the number of turns in the log.
func (l *SQLiteLog) Len() int {
	var n int
	_ = l.db.QueryRow(`SELECT COUNT(*) FROM turns`).Scan(&n)
	return n
}
