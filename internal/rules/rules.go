// Package rules holds the gating predicates evaluated at each hook trigger.
package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"skillgate/internal/classify"
	"skillgate/internal/docs"
	"skillgate/internal/fsutil"
	"skillgate/internal/transcript"
)

// Verdict is ordered by impact.
type Verdict int

const (
	Proceed Verdict = iota
	Warn
	Block
)

func (v Verdict) String() string {
	switch v {
	case Proceed:
		return "proceed"
	case Warn:
		return "warn"
	case Block:
		return "block"
	default:
		return "unknown"
	}
}

func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Decision is one rule's verdict. Missing lists the unmet skills or unread
// documents behind a Warn or Block.
type Decision struct {
	Verdict Verdict  `json:"verdict" yaml:"verdict"`
	RuleID  string   `json:"ruleId" yaml:"rule_id"`
	Message string   `json:"message,omitempty" yaml:"message,omitempty"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Subject is everything a rule may look at. State is read-only.
type Subject struct {
	State       transcript.State
	Tables      *classify.Tables
	Path        string
	Skill       string
	ProjectRoot string
	// IsFile probes for regular files; nil means the real filesystem.
	IsFile func(path string) bool
}

func (s Subject) isFile(p string) bool {
	if s.IsFile != nil {
		return s.IsFile(p)
	}
	return fsutil.IsFile(p)
}

// absPath resolves a relative target against the project root.
func (s Subject) absPath() string {
	if s.Path == "" || filepath.IsAbs(s.Path) || s.ProjectRoot == "" {
		return s.Path
	}
	return filepath.Join(s.ProjectRoot, s.Path)
}

// gated reports whether the target is a code file outside the exempt globs.
func (s Subject) gated() bool {
	return s.Path != "" && s.Tables.IsCode(s.Path) && !s.Tables.IsExempt(s.Path)
}

// Rule is the interface all gating rules implement.
type Rule interface {
	ID() string
	Description() string
	Evaluate(s Subject) Decision
}

func proceed(id string) Decision { return Decision{Verdict: Proceed, RuleID: id} }

// --- ProtectedPathRule ---

type ProtectedPathRule struct{}

func (r *ProtectedPathRule) ID() string { return "GATE_PROTECTED_PATH" }
func (r *ProtectedPathRule) Description() string {
	return "Blocks edits under dependency caches and build output"
}

func (r *ProtectedPathRule) Evaluate(s Subject) Decision {
	seg, ok := s.Tables.ProtectedSegment(s.Path)
	if !ok {
		return proceed(r.ID())
	}
	return Decision{
		Verdict: Block,
		RuleID:  r.ID(),
		Message: fmt.Sprintf("BLOCKED: Cannot edit files in %s/\nThis is a protected directory.", seg),
		Missing: []string{seg},
	}
}

// --- WorkflowRule ---

type WorkflowRule struct{}

func (r *WorkflowRule) ID() string { return "GATE_WORKFLOW_REQUIRED" }
func (r *WorkflowRule) Description() string {
	return "Requires the workflow skill before any code edit"
}

func (r *WorkflowRule) Evaluate(s Subject) Decision {
	if !s.gated() || s.State.HasWorkflowSkill {
		return proceed(r.ID())
	}
	skill := s.Tables.WorkflowSkill
	return Decision{
		Verdict: Block,
		RuleID:  r.ID(),
		Message: fmt.Sprintf("BLOCKED: You must invoke '%s' skill before editing code files.\n\n"+
			"Required by CLAUDE.md → CRITICAL: Skill Invocation.\n\n"+
			"Action: Use Skill tool with skill='%s'", skill, skill),
		Missing: []string{skill},
	}
}

// --- CapabilityRule ---

type CapabilityRule struct{}

var hookName = regexp.MustCompile(`^(?i:use)[A-Z]`)

func (r *CapabilityRule) ID() string { return "GATE_CAPABILITY_MISSING" }
func (r *CapabilityRule) Description() string {
	return "Requires the language and framework skills for the file being edited"
}

func (r *CapabilityRule) Evaluate(s Subject) Decision {
	if !s.gated() {
		return proceed(r.ID())
	}
	var missing []string
	for _, c := range Required(s.Tables, s.ProjectRoot, s.Path) {
		if !s.State.Required[c.Key] {
			missing = append(missing, c.Skill)
		}
	}
	if len(missing) == 0 {
		return proceed(r.ID())
	}
	return Decision{
		Verdict: Block,
		RuleID:  r.ID(),
		Message: "BLOCKED: Missing required skills for this file type.\n\n" +
			"Required skills: " + strings.Join(missing, ", ") + "\n\n" +
			"Required by CLAUDE.md → CRITICAL: Skill Invocation.\n\n" +
			"Action: Invoke these skills before editing",
		Missing: missing,
	}
}

// Required returns the capabilities an edit of path needs, in registration
// order: the extension lookup plus the hook capability for hook-like code
// files. An empty HookExtensions set means every code extension.
func Required(t *classify.Tables, root, path string) []classify.Capability {
	ext := classify.Ext(path)
	want := map[string]bool{}
	for _, c := range t.RequiredFor(ext) {
		want[c.Key] = true
	}
	inferable := len(t.HookExtensions) == 0 || t.HookExtensions[ext]
	if t.HookCapability != "" && t.IsCode(path) && inferable && IsHookLike(root, path) {
		want[t.HookCapability] = true
	}
	var out []classify.Capability
	for _, c := range t.Capabilities {
		if want[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// IsHookLike matches use<Upper>… base names and files under a hooks directory.
// Directories at or above root are not considered.
func IsHookLike(root, path string) bool {
	if hookName.MatchString(classify.BaseName(path)) {
		return true
	}
	rel := classify.SlashPath(path)
	if root != "" {
		rel = strings.TrimPrefix(rel, strings.TrimSuffix(classify.SlashPath(root), "/")+"/")
	}
	segs := classify.Segments(rel)
	for _, seg := range segs[:max(len(segs)-1, 0)] {
		if seg == "hooks" {
			return true
		}
	}
	return false
}

// --- DocsFirstRule ---

type DocsFirstRule struct{}

func (r *DocsFirstRule) ID() string { return "GATE_DOCS_UNREAD" }
func (r *DocsFirstRule) Description() string {
	return "Requires every docs index above the edited file to be read first"
}

func (r *DocsFirstRule) Evaluate(s Subject) Decision {
	if !s.gated() {
		return proceed(r.ID())
	}
	found := docs.FindUp(filepath.Dir(s.absPath()), s.ProjectRoot, s.Tables.DocIndex, s.isFile)
	missing := unread(s.State, found)
	if len(missing) == 0 {
		return proceed(r.ID())
	}
	return Decision{
		Verdict: Block,
		RuleID:  r.ID(),
		Message: "BLOCKED: Docs-First Discovery required before editing this file.\n\n" +
			"Read the documentation for this area first:\n" + arrowList(missing) +
			"\n\nRequired by CLAUDE.md → Docs-First Discovery (MANDATORY).\n\n" +
			"Action: Use Read tool on the listed files, then retry the edit.",
		Missing: missing,
	}
}

// --- SkillDocsRule ---

type SkillDocsRule struct{}

func (r *SkillDocsRule) ID() string { return "GATE_SKILL_DOCS_UNREAD" }
func (r *SkillDocsRule) Description() string {
	return "Requires project docs to be read before docs-first skills run"
}

func (r *SkillDocsRule) Evaluate(s Subject) Decision {
	if !s.Tables.DocsRequiredSkills[s.Skill] {
		return proceed(r.ID())
	}
	missing := unread(s.State, docs.ProjectDocs(s.ProjectRoot, s.Tables.DocIndex, s.isFile))
	if len(missing) == 0 {
		return proceed(r.ID())
	}
	return Decision{
		Verdict: Block,
		RuleID:  r.ID(),
		Message: fmt.Sprintf("BLOCKED: Docs-First Discovery required before '%s' skill.\n\n", s.Skill) +
			"Read project documentation first:\n" + arrowList(missing) +
			"\n\nRequired by CLAUDE.md → Docs-First Discovery (MANDATORY).\n\n" +
			"Action: Use Read tool on the listed files, then retry the skill.",
		Missing: missing,
	}
}

// --- FinalCheckRule ---

type FinalCheckRule struct{}

func (r *FinalCheckRule) ID() string { return "GATE_FINAL_CHECK_MISSING" }
func (r *FinalCheckRule) Description() string {
	return "Blocks stopping after code edits until the final check ran"
}

func (r *FinalCheckRule) Evaluate(s Subject) Decision {
	if !s.State.HasCodeEdits || s.State.HasFinalCheck {
		return proceed(r.ID())
	}
	skill := s.Tables.FinalSkill
	return Decision{
		Verdict: Block,
		RuleID:  r.ID(),
		Message: fmt.Sprintf("BLOCKED: The %s skill has not been run after code edits in this session.\n\n"+
			"Action: Run %s skill before stopping.", skill, skill),
		Missing: []string{skill},
	}
}

// --- WorkflowUsedRule ---

type WorkflowUsedRule struct{}

func (r *WorkflowUsedRule) ID() string { return "GATE_WORKFLOW_SKIPPED" }
func (r *WorkflowUsedRule) Description() string {
	return "Warns when code was edited without the workflow skill"
}

func (r *WorkflowUsedRule) Evaluate(s Subject) Decision {
	if !s.State.HasCodeEdits || s.State.HasWorkflowSkill {
		return proceed(r.ID())
	}
	skill := s.Tables.WorkflowSkill
	return Decision{
		Verdict: Warn,
		RuleID:  r.ID(),
		Message: fmt.Sprintf("WARNING: '%s' skill was not used before code edits.\n"+
			"This violates CLAUDE.md → CRITICAL: Skill Invocation.", skill),
		Missing: []string{skill},
	}
}

func unread(st transcript.State, paths []string) []string {
	var out []string
	for _, p := range paths {
		if !st.HasRead(p) {
			out = append(out, p)
		}
	}
	return out
}

func arrowList(items []string) string {
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "  → " + it
	}
	return strings.Join(lines, "\n")
}
