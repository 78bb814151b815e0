// Package conversation provides the shared conversation turn log.
package conversation

import (
	"sync"
	"time"
)

// Roles for conversation turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Turn is one role-tagged message in the conversation history.
// Turns are immutable once appended; ordering is significant.
type Turn struct {
	Role      string    `json:"role"` // user, assistant, system
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Log is the interface for the conversation turn log. A single Log is
// shared by all controller invocations for the lifetime of the process;
// implementations must make Append atomic so concurrent turns never
// corrupt the history.
type Log interface {
	// Append adds a turn to the end of the log.
	Append(role, content string) error

	// Snapshot returns an ordered copy of all turns. The returned
	// slice is owned by the caller.
	Snapshot() []Turn

	// Len returns the number of turns in the log.
	Len() int
}

// MemoryLog is an in-process, mutex-guarded append-only turn log.
type MemoryLog struct {
	mu    sync.RWMutex
	turns []Turn
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append adds a turn to the end of the log.
func (l *MemoryLog) Append(role, content string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.turns = append(l.turns, Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	return nil
}

// Snapshot returns an ordered copy of all turns.
func (l *MemoryLog) Snapshot() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns in the log.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}
