// Package taskstore provides durable task memory on SQLite.
package taskstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// QueryLimit caps the number of rows a single query returns.
const QueryLimit = 100

// Task is one persisted work item.
type Task struct {
	TaskID    string    `json:"task_id"`
	Borrower  string    `json:"borrower_name"`
	Officer   string    `json:"officer_name"`
	Note      string    `json:"description"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter narrows a task query. Zero-value fields are ignored.
type Filter struct {
	Borrower string // case-insensitive partial match
	Officer  string // case-insensitive partial match
	Status   string // exact match
}

// Store is a SQLite-backed task store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a task store at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		borrower_name TEXT NOT NULL,
		officer_name TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists a task. If taskID is empty a new id is generated.
// Status defaults to "open". Returns the stored task.
func (s *Store) Record(borrower, officer, note, status, taskID string) (*Task, error) {
	if status == "" {
		status = "open"
	}
	if taskID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate task id: %w", err)
		}
		taskID = id.String()
	}

	now := time.Now().UTC()
	task := &Task{
		TaskID:    taskID,
		Borrower:  borrower,
		Officer:   officer,
		Note:      note,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (task_id, borrower_name, officer_name, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, task.TaskID, task.Borrower, task.Officer, task.Note, task.Status, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return task, nil
}

// Query returns tasks matching the filter, most recent first, capped at
// QueryLimit rows. Borrower and officer filters are case-insensitive
// partial matches; status is exact.
func (s *Store) Query(f Filter) ([]Task, error) {
	query := `SELECT task_id, borrower_name, officer_name, description, status, created_at, updated_at
		FROM tasks WHERE 1=1`
	var params []any

	if f.Borrower != "" {
		query += ` AND borrower_name LIKE ?`
		params = append(params, "%"+f.Borrower+"%")
	}
	if f.Officer != "" {
		query += ` AND officer_name LIKE ?`
		params = append(params, "%"+f.Officer+"%")
	}
	if f.Status != "" {
		query += ` AND status = ?`
		params = append(params, f.Status)
	}

	query += ` ORDER BY created_at DESC LIMIT ?`
	params = append(params, QueryLimit)

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.TaskID, &t.Borrower, &t.Officer, &t.Note, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// Health checks connectivity and the presence of the tasks table.
// Returns a JSON report either way; the error is non-nil only when the
// store is unreachable.
func (s *Store) Health() (string, error) {
	report := map[string]any{"ok": false, "has_tasks_table": false}

	if err := s.db.Ping(); err != nil {
		report["error"] = err.Error()
		out, _ := json.MarshalIndent(report, "", "  ")
		return string(out), err
	}

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='tasks'`).Scan(&name)
	report["ok"] = true
	report["has_tasks_table"] = err == nil && name == "tasks"

	out, _ := json.MarshalIndent(report, "", "  ")
	return string(out), nil
}
