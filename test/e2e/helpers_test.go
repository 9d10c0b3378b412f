package e2e

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func repoRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs(filepath.Join("..", ".."))
	if err != nil {
		t.Fatalf("resolve repo root failed: %v", err)
	}
	return root
}

func buildCLI(t *testing.T, home string) (string, []string) {
	t.Helper()
	root := repoRoot(t)
	goModCache := filepath.Join(os.TempDir(), "skillgate-gomodcache")
	goCache := filepath.Join(os.TempDir(), "skillgate-gocache")
	if err := os.MkdirAll(goModCache, 0o755); err != nil {
		t.Fatalf("create mod cache failed: %v", err)
	}
	if err := os.MkdirAll(goCache, 0o755); err != nil {
		t.Fatalf("create go cache failed: %v", err)
	}

	env := mergeEnv(os.Environ(), map[string]string{
		"HOME":                 home,
		"SKILLGATE_CONFIG":     "",
		"SKILLGATE_DEBUG":      "",
		"SKILLGATE_LOG_LEVEL":  "",
		"SKILLGATE_LOG_FORMAT": "",
		"DEBUG":                "",
		"CLAUDE_PROJECT_DIR":   "",
		"GOMODCACHE":           goModCache,
		"GOCACHE":              goCache,
	})
	bin := filepath.Join(home, "bin", "skillgate")
	if err := os.MkdirAll(filepath.Dir(bin), 0o755); err != nil {
		t.Fatalf("create bin dir failed: %v", err)
	}
	cmd := exec.Command("go", "build", "-o", bin, "./cmd/skillgate")
	cmd.Dir = root
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("build cli failed: %v\n%s", err, string(out))
	}
	return bin, env
}

type result struct {
	stdout string
	stderr string
	code   int
}

// runHook pipes stdin into the binary and returns its streams and exit code.
func runHook(t *testing.T, bin string, env []string, dir, stdin string, args ...string) result {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = env
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.code = exitErr.ExitCode()
	default:
		t.Fatalf("run %v: %v", args, err)
	}
	return res
}

func runCLI(t *testing.T, bin string, env []string, dir string, args ...string) string {
	t.Helper()
	res := runHook(t, bin, env, dir, "", args...)
	if res.code != 0 {
		t.Fatalf("command failed with %d\nargs=%v\nstdout=%s\nstderr=%s", res.code, args, res.stdout, res.stderr)
	}
	return res.stdout
}

func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	values := map[string]string{}
	for _, item := range base {
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	for k, v := range extra {
		values[k] = v
	}
	out := make([]string, 0, len(values))
	for k, v := range values {
		out = append(out, k+"="+v)
	}
	return out
}

func assertContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, out)
	}
}
