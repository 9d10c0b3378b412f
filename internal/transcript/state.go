package transcript

import "sort"

// CapabilityCount is one skill and how many times it was invoked.
type CapabilityCount struct {
	Skill string `json:"skill" yaml:"skill"`
	Count int    `json:"count" yaml:"count"`
}

// State is the session snapshot produced by one aggregation pass. It is not
// mutated after Aggregate returns.
type State struct {
	EditedFiles  []string `json:"editedFiles" yaml:"edited_files"`
	HasCodeEdits bool     `json:"hasCodeEdits" yaml:"has_code_edits"`

	// Capabilities is kept in first-seen order.
	Capabilities     []CapabilityCount `json:"capabilities" yaml:"capabilities"`
	Required         map[string]bool   `json:"required" yaml:"required"`
	HasWorkflowSkill bool              `json:"hasWorkflowSkill" yaml:"has_workflow_skill"`
	HasFinalCheck    bool              `json:"hasFinalCheck" yaml:"has_final_check"`

	// DocsRead holds every Read path in first-seen order, unfiltered.
	DocsRead []string `json:"docsRead" yaml:"docs_read"`

	Lines     int `json:"lines" yaml:"lines"`
	Malformed int `json:"malformed" yaml:"malformed"`

	docs map[string]struct{}
}

// HasRead reports whether path was the target of a Read.
func (s State) HasRead(path string) bool {
	if s.docs != nil {
		_, ok := s.docs[path]
		return ok
	}
	for _, d := range s.DocsRead {
		if d == path {
			return true
		}
	}
	return false
}

// Count returns the invocation count of skill.
func (s State) Count(skill string) int {
	for _, c := range s.Capabilities {
		if c.Skill == skill {
			return c.Count
		}
	}
	return 0
}

// SortedCapabilities orders skills by descending count; ties keep first-seen order.
func (s State) SortedCapabilities() []CapabilityCount {
	out := append([]CapabilityCount(nil), s.Capabilities...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Empty reports whether the pass recorded nothing worth reporting.
func (s State) Empty() bool {
	return len(s.EditedFiles) == 0 && len(s.Capabilities) == 0 && len(s.DocsRead) == 0 && !s.HasCodeEdits
}
