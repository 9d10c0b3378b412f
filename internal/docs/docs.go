// Package docs locates documentation indexes and decides when edits call for
// a documentation update.
package docs

import (
	"fmt"
	"path/filepath"
	"strings"

	"skillgate/internal/classify"
)

// FindUp collects <dir>/docs/<indexName> for every directory from startDir up
// to and including projectRoot, nearest first. exists must report regular
// files only. An empty projectRoot walks to the filesystem root.
func FindUp(startDir, projectRoot, indexName string, exists func(string) bool) []string {
	current := filepath.Clean(startDir)
	root := ""
	if projectRoot != "" {
		root = filepath.Clean(projectRoot)
	}
	var found []string
	for within(current, root) {
		candidate := filepath.Join(current, "docs", indexName)
		if exists(candidate) {
			found = append(found, candidate)
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return found
}

// within is a path-aware prefix check: /repo-other is not inside /repo.
func within(dir, root string) bool {
	if root == "" || dir == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(dir, prefix)
}

// ProjectDocs returns the project README and root docs index, whichever exist.
func ProjectDocs(root, indexName string, exists func(string) bool) []string {
	var out []string
	for _, p := range []string{
		filepath.Join(root, "README.md"),
		filepath.Join(root, "docs", indexName),
	} {
		if exists(p) {
			out = append(out, p)
		}
	}
	return out
}

// IsDocFile is the display filter for read paths.
func IsDocFile(path string) bool {
	if strings.HasSuffix(path, ".md") {
		return true
	}
	for _, seg := range classify.Segments(path) {
		if seg == "docs" {
			return true
		}
	}
	return false
}

// Analysis is the documentation-need verdict for a set of edited files.
type Analysis struct {
	Needed  bool     `json:"needed" yaml:"needed"`
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Analyze matches every file against every trigger and returns the distinct
// reasons in the order they were found.
func Analyze(files []string, triggers []classify.DocTrigger) Analysis {
	var out Analysis
	seen := map[string]struct{}{}
	for _, f := range files {
		name := classify.BaseName(f)
		full := classify.SlashPath(f)
		for _, t := range triggers {
			subject := name
			if t.Target == classify.TargetPath {
				subject = full
			}
			if !t.Pattern.MatchString(subject) {
				continue
			}
			reason := fmt.Sprintf("%s: %s", t.Label, name)
			if _, dup := seen[reason]; dup {
				continue
			}
			seen[reason] = struct{}{}
			out.Reasons = append(out.Reasons, reason)
		}
	}
	out.Needed = len(out.Reasons) > 0
	return out
}

// Reminder returns the docs-first context for an edit of path, or "" when the
// file is not code or no docs index sits above it.
func Reminder(path, root string, tables *classify.Tables, exists func(string) bool) string {
	if path == "" || !tables.IsCode(path) {
		return ""
	}
	found := FindUp(filepath.Dir(path), root, tables.DocIndex, exists)
	if len(found) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("📚 **Docs-First Reminder**:\n")
	b.WriteString("Before working with code in this area, ensure you've read:")
	for _, f := range found {
		b.WriteString("\n  → ")
		b.WriteString(f)
	}
	return b.String()
}
