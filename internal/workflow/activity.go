package workflow

import (
	"fmt"
	"io"
	"sync"
	"time"

	"rewriter-cli/internal/model"
)

// DefaultActivityHistory caps the activity log.
const DefaultActivityHistory = 500

type ActivityEntry struct {
	At      time.Time
	Level   model.Severity
	Message string
}

func (e ActivityEntry) String() string {
	return fmt.Sprintf("[%s] [%s] %s", e.At.Format("2006-01-02 15:04:05"), levelLabel(e.Level), e.Message)
}

// ActivityLog is a bounded, user-facing history of workflow outcomes.
type ActivityLog struct {
	mu      sync.Mutex
	max     int
	entries []ActivityEntry
}

func NewActivityLog(max int) *ActivityLog {
	if max <= 0 {
		max = DefaultActivityHistory
	}
	return &ActivityLog{max: max}
}

func (l *ActivityLog) Add(at time.Time, level model.Severity, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, ActivityEntry{At: at, Level: level.Normalize(), Message: message})
	if over := len(l.entries) - l.max; over > 0 {
		l.entries = append([]ActivityEntry(nil), l.entries[over:]...)
	}
}

// Entries returns entries oldest first. An empty level means all levels.
func (l *ActivityLog) Entries(level model.Severity) []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ActivityEntry, 0, len(l.entries))
	for _, e := range l.entries {
		if level != "" && e.Level != level {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *ActivityLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// WriteTo writes one line per entry.
func (l *ActivityLog) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range l.Entries("") {
		n, err := fmt.Fprintln(w, e.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func levelLabel(s model.Severity) string {
	switch s {
	case model.SeveritySuccess:
		return "SUCCESS"
	case model.SeverityError:
		return "ERROR"
	default:
		return "INFO"
	}
}
