// Package classify holds the immutable lookup tables shared by the transcript
// aggregator and the decision rules.
package classify

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"skillgate/internal/config"
)

// Target selects what a DocTrigger pattern is matched against.
type Target string

const (
	TargetName Target = "name"
	TargetPath Target = "path"
)

// Capability is a language or domain skill required by some extensions.
type Capability struct {
	Key        string
	Skill      string
	Extensions []string
}

// DocTrigger flags an edited file as needing a documentation update.
type DocTrigger struct {
	Label   string
	Target  Target
	Pattern *regexp.Regexp
}

// Tables is built once per process and never mutated afterwards.
type Tables struct {
	CodeExtensions        map[string]bool
	FormattableExtensions map[string]bool
	Capabilities          []Capability

	WorkflowSkill      string
	FinalSkill         string
	DocsRequiredSkills map[string]bool

	// HookCapability is empty when hook-name inference is off. An empty
	// HookExtensions applies the inference to every code extension.
	HookCapability string
	HookExtensions map[string]bool

	ProtectedSegments []string
	ExemptGlobs       []string
	DocIndex          string
	DocTriggers       []DocTrigger

	EnforceDocsFirst    bool
	WarnMissingWorkflow bool
}

// New compiles policy into Tables. Disabled capabilities are left out.
func New(policy config.PolicyConfig) (*Tables, error) {
	t := &Tables{
		CodeExtensions:        toSet(policy.CodeExtensions),
		FormattableExtensions: toSet(policy.FormattableExtensions),
		WorkflowSkill:         policy.WorkflowSkill,
		FinalSkill:            policy.FinalSkill,
		DocsRequiredSkills:    toSet(policy.DocsRequiredSkills),
		HookExtensions:        toSet(policy.HookExtensions),
		ProtectedSegments:     append([]string(nil), policy.ProtectedSegments...),
		DocIndex:              policy.DocIndex,
		EnforceDocsFirst:      policy.EnforceDocsFirst,
		WarnMissingWorkflow:   policy.WarnMissingWorkflow,
	}

	registered := map[string]bool{}
	for _, c := range policy.Capabilities {
		registered[c.Key] = !c.Disabled
		if c.Disabled {
			continue
		}
		t.Capabilities = append(t.Capabilities, Capability{
			Key:        c.Key,
			Skill:      c.Skill,
			Extensions: append([]string(nil), c.Extensions...),
		})
	}

	switch enabled, ok := registered[policy.HookCapability]; {
	case policy.HookCapability == "" || policy.HookCapability == config.HookCapabilityNone:
	case !ok:
		return nil, fmt.Errorf("CLS_CAPABILITY: hook capability %q is not registered", policy.HookCapability)
	case enabled:
		t.HookCapability = policy.HookCapability
	}

	for _, g := range policy.ExemptGlobs {
		g = strings.TrimPrefix(SlashPath(g), "/")
		if !doublestar.ValidatePattern(g) {
			return nil, fmt.Errorf("CLS_GLOB: invalid exempt glob %q", g)
		}
		t.ExemptGlobs = append(t.ExemptGlobs, g)
	}

	for _, trig := range policy.DocTriggers {
		re, err := regexp.Compile(trig.Pattern)
		if err != nil {
			return nil, fmt.Errorf("CLS_DOC_TRIGGER: %s: %w", trig.Label, err)
		}
		target := Target(trig.Target)
		if target != TargetPath {
			target = TargetName
		}
		t.DocTriggers = append(t.DocTriggers, DocTrigger{Label: trig.Label, Target: target, Pattern: re})
	}
	return t, nil
}

// Default returns the tables built from the default policy.
func Default() *Tables {
	t, err := New(config.DefaultPolicy())
	if err != nil {
		panic(err)
	}
	return t
}

// Ext returns the suffix starting at the last '.', or "" when the base name
// has no dot.
func Ext(p string) string {
	i := strings.LastIndexByte(p, '.')
	if i < 0 || strings.ContainsAny(p[i:], `/\`) {
		return ""
	}
	return p[i:]
}

func (t *Tables) IsCode(p string) bool {
	return t.CodeExtensions[Ext(p)]
}

func (t *Tables) IsFormattable(p string) bool {
	return t.FormattableExtensions[Ext(p)]
}

// CapabilityBySkill finds the capability whose skill name equals skill exactly.
func (t *Tables) CapabilityBySkill(skill string) (Capability, bool) {
	for _, c := range t.Capabilities {
		if c.Skill == skill {
			return c, true
		}
	}
	return Capability{}, false
}

// CapabilityByKey finds a capability by its registration key.
func (t *Tables) CapabilityByKey(key string) (Capability, bool) {
	for _, c := range t.Capabilities {
		if c.Key == key {
			return c, true
		}
	}
	return Capability{}, false
}

// RequiredFor lists the capabilities an extension requires, in registration order.
func (t *Tables) RequiredFor(ext string) []Capability {
	var out []Capability
	for _, c := range t.Capabilities {
		for _, e := range c.Extensions {
			if e == ext {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// IsProtected reports whether any path component equals a protected segment.
func (t *Tables) IsProtected(p string) bool {
	_, ok := t.ProtectedSegment(p)
	return ok
}

// ProtectedSegment returns the first protected component found in p.
func (t *Tables) ProtectedSegment(p string) (string, bool) {
	for _, seg := range Segments(p) {
		for _, reserved := range t.ProtectedSegments {
			if seg == reserved {
				return seg, true
			}
		}
	}
	return "", false
}

// IsExempt reports whether p matches one of the exempt globs.
func (t *Tables) IsExempt(p string) bool {
	slashed := strings.TrimPrefix(SlashPath(p), "/")
	for _, g := range t.ExemptGlobs {
		if ok, _ := doublestar.Match(g, slashed); ok {
			return true
		}
	}
	return false
}

// Segments splits p on both '/' and '\', dropping empty components.
func Segments(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
}

// BaseName is path.Base over a path using either separator.
func BaseName(p string) string {
	return path.Base(SlashPath(p))
}

// SlashPath rewrites both separators to '/'.
func SlashPath(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, it := range items {
		out[it] = true
	}
	return out
}
