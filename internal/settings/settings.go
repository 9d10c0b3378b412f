// Package settings reads and updates the Claude Code settings.json hook table.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/muhammadmuzzammil1998/jsonc"

	"skillgate/internal/fsutil"
	"skillgate/internal/hook"
)

const binaryName = "skillgate"

// HookEntry is a single hook command, e.g. {"type": "command", "command": "..."}.
type HookEntry struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// HookGroup is a matcher plus the commands it runs.
type HookGroup struct {
	Matcher string      `json:"matcher,omitempty"`
	Hooks   []HookEntry `json:"hooks"`
}

// Path returns the project settings file under root.
func Path(root string) string {
	return filepath.Join(root, ".claude", "settings.json")
}

// Recommended returns the hook groups skillgate installs, keyed by event.
// binary is the command used to invoke skillgate.
func Recommended(binary string) map[string][]HookGroup {
	if binary == "" {
		binary = binaryName
	}
	cmd := func(name string) HookEntry {
		return HookEntry{Type: "command", Command: binary + " hook " + name}
	}
	return map[string][]HookGroup{
		hook.EventPreToolUse: {
			{Matcher: "Edit|Write|MultiEdit", Hooks: []HookEntry{cmd("edit-guard"), cmd("docs-reminder")}},
			{Matcher: "Skill", Hooks: []HookEntry{cmd("skill-guard")}},
		},
		hook.EventStop: {
			{Hooks: []HookEntry{cmd("stop"), cmd("format"), cmd("summary"), cmd("notify")}},
		},
	}
}

// IsManagedCommand reports whether cmd runs a skillgate hook.
func IsManagedCommand(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) < 2 {
		return false
	}
	bin := strings.Trim(fields[0], `"'`)
	return strings.TrimSuffix(filepath.Base(bin), ".exe") == binaryName && fields[1] == "hook"
}

// Load reads settings as JSONC. A missing file yields an empty document.
func Load(path string) (map[string]any, error) {
	raw := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return raw, nil
		}
		return nil, fmt.Errorf("SET_READ: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
		return nil, fmt.Errorf("SET_PARSE: %s: %w", path, err)
	}
	return raw, nil
}

// Merge replaces every skillgate-managed group under the given events with
// groups, leaving other hooks in place. It returns the number of events touched.
func Merge(raw map[string]any, groups map[string][]HookGroup) int {
	hooksMap := map[string]any{}
	if existing, ok := raw["hooks"].(map[string]any); ok {
		for k, v := range existing {
			hooksMap[k] = v
		}
	}
	events := make([]string, 0, len(groups))
	for ev := range groups {
		events = append(events, ev)
	}
	sort.Strings(events)

	touched := 0
	for _, ev := range events {
		kept := unmanagedGroups(hooksMap[ev])
		for _, g := range groups[ev] {
			kept = append(kept, groupToMap(g))
		}
		hooksMap[ev] = kept
		touched++
	}
	raw["hooks"] = hooksMap
	return touched
}

// Managed counts skillgate commands per event.
func Managed(raw map[string]any) map[string][]string {
	out := map[string][]string{}
	hooksMap, ok := raw["hooks"].(map[string]any)
	if !ok {
		return out
	}
	for ev, v := range hooksMap {
		for _, g := range asSlice(v) {
			group, ok := g.(map[string]any)
			if !ok {
				continue
			}
			for _, cmd := range groupCommands(group) {
				if IsManagedCommand(cmd) {
					out[ev] = append(out[ev], cmd)
				}
			}
		}
	}
	return out
}

// InstallResult describes what Install changed.
type InstallResult struct {
	Path    string `json:"path"`
	Backup  string `json:"backup,omitempty"`
	Events  int    `json:"events"`
	Changed bool   `json:"changed"`
}

// Install merges the recommended hooks into the settings file at path. An
// unchanged document is not rewritten; otherwise the original is backed up
// and the new one written atomically.
func Install(path, binary string, now time.Time) (InstallResult, error) {
	res := InstallResult{Path: path}
	raw, err := Load(path)
	if err != nil {
		return res, err
	}
	before, err := json.Marshal(raw)
	if err != nil {
		return res, fmt.Errorf("SET_ENCODE: %w", err)
	}
	res.Events = Merge(raw, Recommended(binary))
	after, err := json.Marshal(raw)
	if err != nil {
		return res, fmt.Errorf("SET_ENCODE: %w", err)
	}
	if string(before) == string(after) {
		return res, nil
	}
	backup, err := fsutil.Backup(path, now)
	if err != nil {
		return res, fmt.Errorf("SET_BACKUP: %w", err)
	}
	res.Backup = backup

	blob, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return res, fmt.Errorf("SET_ENCODE: %w", err)
	}
	if err := fsutil.AtomicWrite(path, append(blob, '\n'), 0o644); err != nil {
		return res, fmt.Errorf("SET_WRITE: %w", err)
	}
	res.Changed = true
	return res, nil
}

// unmanagedGroups strips skillgate commands from every group. A group left
// with no hooks is dropped; other keys of a trimmed group are preserved.
func unmanagedGroups(v any) []any {
	out := make([]any, 0)
	for _, g := range asSlice(v) {
		group, ok := g.(map[string]any)
		if !ok {
			out = append(out, g)
			continue
		}
		entries := asSlice(group["hooks"])
		foreign := make([]any, 0, len(entries))
		for _, h := range entries {
			if entry, ok := h.(map[string]any); ok {
				if cmd, ok := entry["command"].(string); ok && IsManagedCommand(cmd) {
					continue
				}
			}
			foreign = append(foreign, h)
		}
		switch {
		case len(foreign) == len(entries):
			out = append(out, group)
		case len(foreign) > 0:
			trimmed := make(map[string]any, len(group))
			for k, val := range group {
				trimmed[k] = val
			}
			trimmed["hooks"] = foreign
			out = append(out, trimmed)
		}
	}
	return out
}

func groupCommands(group map[string]any) []string {
	var out []string
	for _, h := range asSlice(group["hooks"]) {
		entry, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, ok := entry["command"].(string); ok {
			out = append(out, cmd)
		}
	}
	return out
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	default:
		return nil
	}
}

// groupToMap mirrors what json.Unmarshal would produce, so a merged document
// compares equal to one re-read from disk.
func groupToMap(g HookGroup) map[string]any {
	hooks := make([]any, len(g.Hooks))
	for i, h := range g.Hooks {
		entry := map[string]any{
			"type":    h.Type,
			"command": h.Command,
		}
		if h.Timeout > 0 {
			entry["timeout"] = float64(h.Timeout)
		}
		hooks[i] = entry
	}
	result := map[string]any{
		"hooks": hooks,
	}
	if g.Matcher != "" {
		result["matcher"] = g.Matcher
	}
	return result
}
