package docs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgate/internal/classify"
	"skillgate/internal/fsutil"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("# doc\n"), 0o644))
}

func TestFindUpNearestFirst(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "packages", "ui", "src")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	writeFile(t, filepath.Join(root, "docs", "index.md"))
	writeFile(t, filepath.Join(root, "packages", "ui", "docs", "index.md"))
	writeFile(t, filepath.Join(root, "packages", "ui", "src", "docs", "index.md"))

	got := FindUp(nested, root, "index.md", fsutil.IsFile)
	assert.Equal(t, []string{
		filepath.Join(root, "packages", "ui", "src", "docs", "index.md"),
		filepath.Join(root, "packages", "ui", "docs", "index.md"),
		filepath.Join(root, "docs", "index.md"),
	}, got)
}

func TestFindUpStopsAtProjectRoot(t *testing.T) {
	outer := t.TempDir()
	root := filepath.Join(outer, "repo")
	writeFile(t, filepath.Join(outer, "docs", "index.md"))
	writeFile(t, filepath.Join(root, "docs", "index.md"))

	got := FindUp(filepath.Join(root, "src"), root, "index.md", fsutil.IsFile)
	assert.Equal(t, []string{filepath.Join(root, "docs", "index.md")}, got)
}

func TestFindUpPrefixIsPathAware(t *testing.T) {
	outer := t.TempDir()
	root := filepath.Join(outer, "repo")
	sibling := filepath.Join(outer, "repo-other", "src")
	writeFile(t, filepath.Join(outer, "repo-other", "docs", "index.md"))

	assert.Empty(t, FindUp(sibling, root, "index.md", fsutil.IsFile))
}

func TestFindUpIgnoresDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "index.md"), 0o755))
	assert.Empty(t, FindUp(root, root, "index.md", fsutil.IsFile))
}

func TestProjectDocs(t *testing.T) {
	root := t.TempDir()
	assert.Empty(t, ProjectDocs(root, "index.md", fsutil.IsFile))

	writeFile(t, filepath.Join(root, "README.md"))
	assert.Equal(t, []string{filepath.Join(root, "README.md")}, ProjectDocs(root, "index.md", fsutil.IsFile))

	writeFile(t, filepath.Join(root, "docs", "index.md"))
	assert.Len(t, ProjectDocs(root, "index.md", fsutil.IsFile), 2)
}

func TestIsDocFile(t *testing.T) {
	assert.True(t, IsDocFile("/p/README.md"))
	assert.True(t, IsDocFile("/p/docs/diagram.png"))
	assert.False(t, IsDocFile("/p/src/app.ts"))
	assert.False(t, IsDocFile("/p/mydocs/app.ts"))
}

func TestAnalyze(t *testing.T) {
	tb := classify.Default()
	got := Analyze([]string{
		"/p/src/index.ts",
		"/p/src/hooks/useThing.ts",
		"/p/src/useOther.ts",
		"/p/src/components/Button.tsx",
		"/p/src/store/userSlice.ts",
		"/p/src/AuthContext.tsx",
		"/p/package.json",
		"/p/src/user.service.ts",
		"/p/lib/hooks/useThing.ts",
		"/p/src/plain.ts",
	}, tb.DocTriggers)

	assert.True(t, got.Needed)
	assert.Equal(t, []string{
		"Public export: index.ts",
		"Hook: useThing.ts",
		"Hook: useOther.ts",
		"Component: Button.tsx",
		"State slice: userSlice.ts",
		"Context: AuthContext.tsx",
		"Configuration: package.json",
		"API contract: user.service.ts",
	}, got.Reasons)
}

func TestAnalyzeNothingNeeded(t *testing.T) {
	got := Analyze([]string{"/p/src/plain.ts", "/p/styles.css"}, classify.Default().DocTriggers)
	assert.False(t, got.Needed)
	assert.Empty(t, got.Reasons)
}

func TestReminder(t *testing.T) {
	root := t.TempDir()
	tb := classify.Default()
	file := filepath.Join(root, "src", "app.ts")

	assert.Empty(t, Reminder(file, root, tb, fsutil.IsFile), "no docs, nothing to say")

	writeFile(t, filepath.Join(root, "docs", "index.md"))
	msg := Reminder(file, root, tb, fsutil.IsFile)
	assert.Contains(t, msg, "Docs-First Reminder")
	assert.Contains(t, msg, filepath.Join(root, "docs", "index.md"))

	assert.Empty(t, Reminder(filepath.Join(root, "notes.txt"), root, tb, fsutil.IsFile), "non-code files get no reminder")
}
