package hook

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgate/internal/rules"
)

func TestReadInput(t *testing.T) {
	in, err := ReadInput(strings.NewReader(`{
		"session_id": "abc",
		"transcript_path": "/tmp/t.jsonl",
		"cwd": "/repo",
		"hook_event_name": "PreToolUse",
		"tool_name": "Edit",
		"tool_input": {"file_path": "/repo/src/app.ts", "old_string": "a", "new_string": "b"},
		"permission_mode": "default"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", in.SessionID)
	assert.Equal(t, "/tmp/t.jsonl", in.TranscriptPath)
	assert.Equal(t, EventPreToolUse, in.HookEventName)
	assert.Equal(t, "/repo/src/app.ts", in.ToolInput.FilePath)
}

func TestReadInputSkill(t *testing.T) {
	in, err := ReadInput(strings.NewReader(`{"hook_event_name":"PreToolUse","tool_name":"Skill","tool_input":{"skill":"applying-workflow"}}`))
	require.NoError(t, err)
	assert.Equal(t, "applying-workflow", in.ToolInput.Skill)
}

func TestReadInputErrors(t *testing.T) {
	cases := map[string]struct {
		body string
		code string
	}{
		"empty":        {"  \n", "HOOK_INPUT_EMPTY"},
		"not json":     {"{nope", "HOOK_INPUT_PARSE"},
		"wrong shape":  {`{"tool_input": {"file_path": 42}}`, "HOOK_INPUT_INVALID"},
		"not object":   {`["a"]`, "HOOK_INPUT_INVALID"},
		"bad cwd type": {`{"cwd": true}`, "HOOK_INPUT_INVALID"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadInput(strings.NewReader(tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.code)
		})
	}
}

func TestReadInputTooLarge(t *testing.T) {
	body := `{"cwd":"` + strings.Repeat("a", maxInputBytes) + `"}`
	_, err := ReadInput(strings.NewReader(body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HOOK_INPUT_TOO_LARGE")
}

func TestProjectRoot(t *testing.T) {
	t.Setenv("CLAUDE_PROJECT_DIR", "/project")
	assert.Equal(t, "/project", ProjectRoot(Input{CWD: "/cwd"}))

	t.Setenv("CLAUDE_PROJECT_DIR", "")
	assert.Equal(t, "/cwd", ProjectRoot(Input{CWD: "/cwd"}))
	assert.NotEmpty(t, ProjectRoot(Input{}))
}

func TestWriteOutput(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, Context(EventPreToolUse, "read the docs")))
	assert.JSONEq(t, `{"hookSpecificOutput":{"hookEventName":"PreToolUse","additionalContext":"read the docs"}}`, buf.String())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 2, ExitCode(rules.Block))
	assert.Equal(t, 0, ExitCode(rules.Warn))
	assert.Equal(t, 0, ExitCode(rules.Proceed))
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, rules.Outcome{Verdict: rules.Proceed})
	assert.Empty(t, buf.String())

	Report(&buf, rules.Outcome{Verdict: rules.Block, Decisions: []rules.Decision{
		{Verdict: rules.Warn, RuleID: "W", Message: "WARNING: one"},
		{Verdict: rules.Block, RuleID: "B", Message: "BLOCKED: two"},
	}})
	assert.Equal(t, "WARNING: one\n\nBLOCKED: two\n", buf.String())
}
