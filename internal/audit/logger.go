// Package audit appends one JSON line per hook invocation.
package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Logger struct {
	path string
	mu   sync.Mutex
}

// Event records a single hook invocation. Operation is the hook name, Status
// the verdict and Code the id of the rule that blocked or warned.
type Event struct {
	Timestamp    string            `json:"timestamp"`
	InvocationID string            `json:"invocationId"`
	SessionID    string            `json:"sessionId,omitempty"`
	Operation    string            `json:"operation"`
	Status       string            `json:"status"`
	Code         string            `json:"code,omitempty"`
	Target       string            `json:"target,omitempty"`
	Message      string            `json:"message,omitempty"`
	DurationMS   int64             `json:"durationMs,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
}

func New(path string) *Logger {
	return &Logger{path: path}
}

// Path returns the log file location, "" for a disabled logger.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	if ev.InvocationID == "" {
		ev.InvocationID = uuid.NewString()
	}
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// Recent returns up to limit of the newest events, oldest first. Lines that
// do not decode are skipped. A missing log yields no events.
func Recent(path string, limit int) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var ev Event
		if json.Unmarshal(scanner.Bytes(), &ev) != nil {
			continue
		}
		events = append(events, ev)
		if limit > 0 && len(events) > limit {
			events = events[1:]
		}
	}
	return events, scanner.Err()
}
