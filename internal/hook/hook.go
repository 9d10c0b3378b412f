// Package hook implements the Claude Code hook wire protocol: the JSON
// document on stdin, the exit status, and the informational envelope on stdout.
package hook

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"skillgate/internal/rules"
)

// maxInputBytes caps stdin reads. Hook payloads are small JSON objects.
const maxInputBytes = 1 << 20

// ExitBlock is the status Claude Code treats as a hard block.
const ExitBlock = 2

// Lifecycle event names.
const (
	EventPreToolUse  = "PreToolUse"
	EventPostToolUse = "PostToolUse"
	EventStop        = "Stop"
	EventSessionEnd  = "SessionEnd"
)

const schemaURL = "mem://schemas/hook-input.schema.json"

//go:embed hook-input.schema.json
var inputSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Input is the document Claude Code writes to a hook's stdin.
type Input struct {
	SessionID      string    `json:"session_id"`
	TranscriptPath string    `json:"transcript_path"`
	CWD            string    `json:"cwd"`
	HookEventName  string    `json:"hook_event_name"`
	ToolName       string    `json:"tool_name"`
	ToolInput      ToolInput `json:"tool_input"`
	StopHookActive bool      `json:"stop_hook_active"`
}

type ToolInput struct {
	FilePath string `json:"file_path"`
	Skill    string `json:"skill"`
	Command  string `json:"command"`
}

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(inputSchema))
		if err != nil {
			compileErr = fmt.Errorf("decode hook schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			compileErr = fmt.Errorf("register hook schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// ReadInput reads and validates one hook document. Callers treat any error as
// "nothing to gate" and proceed.
func ReadInput(r io.Reader) (Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return Input{}, fmt.Errorf("HOOK_INPUT_READ: %w", err)
	}
	if len(data) > maxInputBytes {
		return Input{}, fmt.Errorf("HOOK_INPUT_TOO_LARGE: stdin exceeds %d bytes", maxInputBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Input{}, fmt.Errorf("HOOK_INPUT_EMPTY: no hook input on stdin")
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return Input{}, fmt.Errorf("HOOK_INPUT_PARSE: %w", err)
	}
	sch, err := schema()
	if err != nil {
		return Input{}, err
	}
	if err := sch.Validate(doc); err != nil {
		return Input{}, fmt.Errorf("HOOK_INPUT_INVALID: %w", err)
	}
	var in Input
	if err := json.Unmarshal(data, &in); err != nil {
		return Input{}, fmt.Errorf("HOOK_INPUT_PARSE: %w", err)
	}
	return in, nil
}

// ProjectRoot resolves CLAUDE_PROJECT_DIR, then the input cwd, then the
// process working directory.
func ProjectRoot(in Input) string {
	if dir := strings.TrimSpace(os.Getenv("CLAUDE_PROJECT_DIR")); dir != "" {
		return dir
	}
	if in.CWD != "" {
		return in.CWD
	}
	wd, _ := os.Getwd()
	return wd
}

// Output is the informational envelope written to stdout.
type Output struct {
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

type SpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Context wraps text as additional context for event.
func Context(event, text string) Output {
	return Output{HookSpecificOutput: &SpecificOutput{HookEventName: event, AdditionalContext: text}}
}

// WriteOutput encodes out as one JSON line.
func WriteOutput(w io.Writer, out Output) error {
	return json.NewEncoder(w).Encode(out)
}

// ExitCode maps a verdict to the process status. Warnings exit 0.
func ExitCode(v rules.Verdict) int {
	if v == rules.Block {
		return ExitBlock
	}
	return 0
}

// Report writes every warning and block message, blank-line separated.
func Report(w io.Writer, o rules.Outcome) {
	msgs := o.Messages()
	if len(msgs) == 0 {
		return
	}
	fmt.Fprintln(w, strings.Join(msgs, "\n\n"))
}
