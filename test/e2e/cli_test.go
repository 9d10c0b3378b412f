package e2e

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type transcript struct {
	lines []string
}

func (tr *transcript) tool(name string, input map[string]string) *transcript {
	blob, _ := json.Marshal(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"role":    "assistant",
			"content": []map[string]any{{"type": "tool_use", "name": name, "input": input}},
		},
	})
	tr.lines = append(tr.lines, string(blob))
	return tr
}

func (tr *transcript) write(t *testing.T, path string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.Join(tr.lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

func stdinFor(t *testing.T, transcriptPath, cwd, file, skill string) string {
	t.Helper()
	blob, err := json.Marshal(map[string]any{
		"session_id":      "e2e",
		"transcript_path": transcriptPath,
		"cwd":             cwd,
		"hook_event_name": "PreToolUse",
		"tool_input":      map[string]string{"file_path": file, "skill": skill},
	})
	if err != nil {
		t.Fatalf("marshal stdin: %v", err)
	}
	return string(blob)
}

func mustWrite(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestCLIHookSessionFlow(t *testing.T) {
	home := t.TempDir()
	bin, env := buildCLI(t, home)

	project := t.TempDir()
	mustWrite(t, filepath.Join(project, "README.md"), "# demo\n")
	srcIndex := filepath.Join(project, "src", "docs", "index.md")
	mustWrite(t, srcIndex, "# src\n")
	file := filepath.Join(project, "src", "app.ts")
	mustWrite(t, file, "export const x = 1\n")
	trPath := filepath.Join(t.TempDir(), "session.jsonl")

	out := runCLI(t, bin, env, project, "init", "--project")
	assertContains(t, out, filepath.Join(".skillgate", "config.toml"))
	out = runCLI(t, bin, env, project, "hooks", "install")
	assertContains(t, out, "installed skillgate hooks")

	tr := &transcript{}
	tr.write(t, trPath)
	res := runHook(t, bin, env, project, stdinFor(t, trPath, project, file, ""), "hook", "edit-guard")
	if res.code != 2 {
		t.Fatalf("expected block without workflow skill, got %d: %s", res.code, res.stderr)
	}
	assertContains(t, res.stderr, "applying-workflow")

	tr.tool("Skill", map[string]string{"skill": "applying-workflow"}).
		tool("Skill", map[string]string{"skill": "writing-ecmascript"}).
		tool("Skill", map[string]string{"skill": "writing-typescript"}).
		write(t, trPath)
	res = runHook(t, bin, env, project, stdinFor(t, trPath, project, file, ""), "hook", "edit-guard")
	if res.code != 2 {
		t.Fatalf("expected docs-first block, got %d: %s", res.code, res.stderr)
	}
	assertContains(t, res.stderr, srcIndex)

	res = runHook(t, bin, env, project, stdinFor(t, trPath, project, file, ""), "hook", "docs-reminder")
	if res.code != 0 {
		t.Fatalf("reminder never blocks, got %d", res.code)
	}
	assertContains(t, res.stdout, `"hookSpecificOutput"`)
	assertContains(t, res.stdout, "Docs-First Reminder")

	tr.tool("Read", map[string]string{"file_path": srcIndex}).
		tool("Edit", map[string]string{"file_path": file}).
		write(t, trPath)
	res = runHook(t, bin, env, project, stdinFor(t, trPath, project, file, ""), "hook", "edit-guard")
	if res.code != 0 {
		t.Fatalf("expected edit to proceed, got %d: %s", res.code, res.stderr)
	}

	res = runHook(t, bin, env, project, stdinFor(t, trPath, project, "", ""), "hook", "stop")
	if res.code != 2 {
		t.Fatalf("expected stop block before final check, got %d", res.code)
	}
	assertContains(t, res.stderr, "final-checking")

	tr.tool("Skill", map[string]string{"skill": "final-checking"}).write(t, trPath)
	res = runHook(t, bin, env, project, stdinFor(t, trPath, project, "", ""), "hook", "stop")
	if res.code != 0 {
		t.Fatalf("expected stop to proceed, got %d: %s", res.code, res.stderr)
	}

	res = runHook(t, bin, env, project, stdinFor(t, trPath, project, "", ""), "hook", "summary")
	assertContains(t, res.stdout, "Skills used:")
	assertContains(t, res.stdout, "writing-typescript (1)")

	out = runCLI(t, bin, env, project, "audit", "--limit", "0")
	assertContains(t, out, "hook.edit-guard block GATE_WORKFLOW_REQUIRED")
	assertContains(t, out, "hook.stop proceed")

	out = runCLI(t, bin, env, project, "doctor")
	assertContains(t, out, "healthy")
}

func TestCLIHookMalformedStdinProceeds(t *testing.T) {
	home := t.TempDir()
	bin, env := buildCLI(t, home)
	for _, name := range []string{"edit-guard", "protect", "skill-guard", "stop", "docs-reminder", "summary", "stats"} {
		res := runHook(t, bin, env, home, "{truncated", "hook", name)
		if res.code != 0 {
			t.Fatalf("%s: malformed input must proceed, got %d: %s", name, res.code, res.stderr)
		}
	}
}

func TestCLIProtectBlocksNodeModules(t *testing.T) {
	home := t.TempDir()
	bin, env := buildCLI(t, home)
	stdin := `{"tool_input": {"file_path": "/repo/node_modules/pkg/index.js"}}`
	res := runHook(t, bin, env, home, stdin, "hook", "protect")
	if res.code != 2 {
		t.Fatalf("expected block, got %d", res.code)
	}
	assertContains(t, res.stderr, "BLOCKED: Cannot edit files in node_modules/")
}
