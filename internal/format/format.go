// Package format runs the project formatter over edited files.
package format

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"skillgate/internal/config"
	"skillgate/internal/fsutil"
	"skillgate/internal/runner"
)

// Group is the set of files sharing one project root.
type Group struct {
	Root  string   `json:"root"`
	Files []string `json:"files"`
}

// Partition groups files by the nearest ancestor directory holding marker.
// Files with no such ancestor are dropped. Groups keep first-seen order.
func Partition(files []string, marker string, exists func(string) bool) []Group {
	var groups []Group
	index := map[string]int{}
	for _, f := range files {
		root, ok := FindRoot(f, marker, exists)
		if !ok {
			continue
		}
		i, seen := index[root]
		if !seen {
			i = len(groups)
			index[root] = i
			groups = append(groups, Group{Root: root})
		}
		groups[i].Files = append(groups[i].Files, f)
	}
	return groups
}

// FindRoot walks up from the file's directory to the first one containing
// marker. The filesystem root itself is never a project root.
func FindRoot(file, marker string, exists func(string) bool) (string, bool) {
	dir := filepath.Dir(filepath.Clean(file))
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		if exists(filepath.Join(dir, marker)) {
			return dir, true
		}
		dir = parent
	}
}

// Formatter invokes the configured command once per project root.
type Formatter struct {
	Command    []string
	RootMarker string
	Timeout    time.Duration
	Runner     runner.Runner
	Exists     func(string) bool
	Logger     *slog.Logger
}

// New builds a Formatter from config with the real process runner.
func New(cfg config.FormatterConfig, logger *slog.Logger) *Formatter {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = time.Minute
	}
	return &Formatter{
		Command:    append([]string(nil), cfg.Command...),
		RootMarker: cfg.RootMarker,
		Timeout:    timeout,
		Runner:     runner.Exec{},
		Exists:     fsutil.Exists,
		Logger:     logger,
	}
}

// Run formats files and returns the groups it attempted. Formatter failures
// are logged at debug level and never returned.
func (f *Formatter) Run(ctx context.Context, files []string) []Group {
	if len(files) == 0 || len(f.Command) == 0 {
		return nil
	}
	groups := Partition(files, f.RootMarker, f.Exists)
	for _, g := range groups {
		args := append(append([]string(nil), f.Command[1:]...), g.Files...)
		runCtx, cancel := context.WithTimeout(ctx, f.Timeout)
		err := f.Runner.Run(runCtx, g.Root, f.Command[0], args...)
		cancel()
		if err != nil {
			f.logger().Debug("formatter failed", "root", g.Root, "files", len(g.Files), "error", err)
			continue
		}
		f.logger().Debug("formatted", "root", g.Root, "files", len(g.Files))
	}
	return groups
}

func (f *Formatter) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
