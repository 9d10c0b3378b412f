// Package transcripttest builds Claude Code JSONL transcripts for tests.
package transcripttest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Log accumulates transcript lines in order.
type Log struct {
	lines []string
}

func New() *Log { return &Log{} }

func (l *Log) Skill(name string) *Log {
	return l.ToolUse("Skill", map[string]string{"skill": name})
}

func (l *Log) Edit(path string) *Log {
	return l.ToolUse("Edit", map[string]string{"file_path": path, "old_string": "a", "new_string": "b"})
}

func (l *Log) Write(path string) *Log {
	return l.ToolUse("Write", map[string]string{"file_path": path, "content": "x"})
}

func (l *Log) Read(path string) *Log {
	return l.ToolUse("Read", map[string]string{"file_path": path})
}

// ToolUse appends an assistant line holding one tool_use block.
func (l *Log) ToolUse(name string, input any) *Log {
	line := map[string]any{
		"type":      "assistant",
		"sessionId": "test-session",
		"message": map[string]any{
			"role": "assistant",
			"content": []map[string]any{
				{"type": "tool_use", "id": "toolu_test", "name": name, "input": input},
			},
		},
	}
	blob, _ := json.Marshal(line)
	l.lines = append(l.lines, string(blob))
	return l
}

// User appends a plain user text line.
func (l *Log) User(text string) *Log {
	blob, _ := json.Marshal(map[string]any{
		"type":    "user",
		"message": map[string]any{"role": "user", "content": text},
	})
	l.lines = append(l.lines, string(blob))
	return l
}

// Raw appends line verbatim, for malformed or truncated records.
func (l *Log) Raw(line string) *Log {
	l.lines = append(l.lines, line)
	return l
}

func (l *Log) String() string {
	if len(l.lines) == 0 {
		return ""
	}
	return strings.Join(l.lines, "\n") + "\n"
}

func (l *Log) Reader() *strings.Reader { return strings.NewReader(l.String()) }

// WriteFile stores the log under dir and returns its path.
func (l *Log) WriteFile(t testing.TB, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "transcript.jsonl")
	if err := os.WriteFile(path, []byte(l.String()), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}
