// Package transcript folds a Claude Code JSONL session log into a State.
package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"skillgate/internal/classify"
	"skillgate/internal/fsutil"
)

// maxLineBytes bounds one transcript line. Tool results can embed whole files,
// so this is well above the usual 1MB scanner limit.
const maxLineBytes = 16 << 20

// Aggregator runs the single forward pass. Exists defaults to a stat probe and
// Logger to slog.Default. Lines longer than MaxLineBytes (default 16MiB) are
// discarded and counted as malformed.
type Aggregator struct {
	Tables       *classify.Tables
	Exists       func(path string) bool
	Logger       *slog.Logger
	MaxLineBytes int
}

// logLine is a single line in Claude Code JSONL.
type logLine struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

type logMessage struct {
	Role    string            `json:"role"`
	Content []json.RawMessage `json:"content"`
}

type contentBlock struct {
	Type  string    `json:"type"`
	Name  string    `json:"name"`
	Input toolInput `json:"input"`
}

type toolInput struct {
	FilePath string `json:"file_path"`
	Skill    string `json:"skill"`
}

// pass carries the mutable aggregation state for one scan.
type pass struct {
	a       *Aggregator
	state   State
	seen    map[string]struct{}
	skillAt map[string]int
}

// AggregateFile aggregates the log at path. An empty, missing or unreadable
// path yields the zero State.
func (a *Aggregator) AggregateFile(path string) State {
	if path == "" {
		return a.Aggregate(nil)
	}
	f, err := os.Open(path)
	if err != nil {
		a.logger().Debug("transcript unavailable", "path", path, "error", err)
		return a.Aggregate(nil)
	}
	defer f.Close()
	return a.Aggregate(f)
}

// Aggregate scans r once. Malformed lines, including a truncated trailing
// line, are counted and skipped. A nil reader yields the zero State.
func (a *Aggregator) Aggregate(r io.Reader) State {
	p := &pass{
		a:       a,
		seen:    map[string]struct{}{},
		skillAt: map[string]int{},
		state: State{
			Required: map[string]bool{},
			docs:     map[string]struct{}{},
		},
	}
	if a.Tables != nil {
		for _, c := range a.Tables.Capabilities {
			p.state.Required[c.Key] = false
		}
	}
	if r == nil {
		return p.state
	}

	br := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, tooLong, err := readLine(br, a.maxLine())
		if line := bytes.TrimSpace(raw); len(line) > 0 || tooLong {
			p.state.Lines++
			switch {
			case tooLong:
				p.state.Malformed++
				a.logger().Debug("skipping oversized transcript line", "line", p.state.Lines)
			default:
				if perr := p.line(line); perr != nil {
					p.state.Malformed++
					a.logger().Debug("skipping malformed transcript line", "line", p.state.Lines, "error", perr)
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				a.logger().Debug("transcript read stopped early", "error", err)
			}
			break
		}
	}
	return p.state
}

// readLine returns the next line including its newline. Once a line exceeds
// limit its bytes are dropped while the rest of it is consumed, and tooLong
// is set.
func readLine(br *bufio.Reader, limit int) ([]byte, bool, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > limit {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		return line, tooLong, err
	}
}

func (p *pass) line(raw []byte) error {
	var entry logLine
	if err := json.Unmarshal(raw, &entry); err != nil {
		return err
	}
	// Fast path: only lines carrying tool_use blocks matter. This assumes the
	// canonical encoding Claude Code writes; an escaped "tool\u005fuse" is
	// not recognised.
	if len(entry.Message) == 0 || !bytes.Contains(entry.Message, []byte(`"tool_use"`)) {
		return nil
	}
	// Valid JSON with another message shape (string content) is not malformed.
	var msg logMessage
	if json.Unmarshal(entry.Message, &msg) != nil {
		return nil
	}
	for _, rawBlock := range msg.Content {
		var block contentBlock
		if json.Unmarshal(rawBlock, &block) != nil {
			continue
		}
		if block.Type != "tool_use" {
			continue
		}
		p.toolUse(block)
	}
	return nil
}

func (p *pass) toolUse(block contentBlock) {
	switch block.Name {
	case "Edit", "Write":
		p.edit(block.Input.FilePath)
	case "Read":
		p.read(block.Input.FilePath)
	case "Skill":
		p.skill(block.Input.Skill)
	}
}

func (p *pass) edit(path string) {
	if path == "" {
		return
	}
	if _, dup := p.seen[path]; dup {
		return
	}
	p.seen[path] = struct{}{}
	t := p.a.Tables
	if t == nil {
		return
	}
	if t.IsCode(path) {
		p.state.HasCodeEdits = true
	}
	if t.IsFormattable(path) && p.a.exists(path) {
		p.state.EditedFiles = append(p.state.EditedFiles, path)
	}
}

func (p *pass) read(path string) {
	if path == "" {
		return
	}
	if _, ok := p.state.docs[path]; ok {
		return
	}
	p.state.docs[path] = struct{}{}
	p.state.DocsRead = append(p.state.DocsRead, path)
}

func (p *pass) skill(name string) {
	if name == "" {
		return
	}
	if i, ok := p.skillAt[name]; ok {
		p.state.Capabilities[i].Count++
	} else {
		p.skillAt[name] = len(p.state.Capabilities)
		p.state.Capabilities = append(p.state.Capabilities, CapabilityCount{Skill: name, Count: 1})
	}
	t := p.a.Tables
	if t == nil {
		return
	}
	if name == t.FinalSkill {
		p.state.HasFinalCheck = true
	}
	if name == t.WorkflowSkill {
		p.state.HasWorkflowSkill = true
	}
	if c, ok := t.CapabilityBySkill(name); ok {
		p.state.Required[c.Key] = true
	}
}

func (a *Aggregator) maxLine() int {
	if a.MaxLineBytes > 0 {
		return a.MaxLineBytes
	}
	return maxLineBytes
}

func (a *Aggregator) exists(path string) bool {
	if a.Exists != nil {
		return a.Exists(path)
	}
	return fsutil.Exists(path)
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
