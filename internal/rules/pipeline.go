package rules

import (
	"fmt"
	"strings"

	"skillgate/internal/classify"
)

// Trigger names the lifecycle moment a pipeline runs at.
type Trigger string

const (
	TriggerEdit    Trigger = "edit"
	TriggerProtect Trigger = "protect"
	TriggerSkill   Trigger = "skill"
	TriggerStop    Trigger = "stop"
)

// Triggers lists every trigger in display order.
var Triggers = []Trigger{TriggerEdit, TriggerProtect, TriggerSkill, TriggerStop}

// ParseTrigger maps a name to its Trigger.
func ParseTrigger(name string) (Trigger, error) {
	for _, t := range Triggers {
		if string(t) == strings.ToLower(strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("GATE_TRIGGER: unknown trigger %q", name)
}

// Outcome is the pipeline result. Decisions holds the warnings in order and,
// when Verdict is Block, the blocking decision last.
type Outcome struct {
	Trigger   Trigger    `json:"trigger" yaml:"trigger"`
	Verdict   Verdict    `json:"verdict" yaml:"verdict"`
	Decisions []Decision `json:"decisions,omitempty" yaml:"decisions,omitempty"`
}

// Blocking returns the decision that blocked, if any.
func (o Outcome) Blocking() (Decision, bool) {
	if o.Verdict != Block || len(o.Decisions) == 0 {
		return Decision{}, false
	}
	return o.Decisions[len(o.Decisions)-1], true
}

// Messages returns the non-empty messages of every decision.
func (o Outcome) Messages() []string {
	var out []string
	for _, d := range o.Decisions {
		if d.Message != "" {
			out = append(out, d.Message)
		}
	}
	return out
}

// Pipeline is the ordered rule list for one trigger.
type Pipeline struct {
	Trigger Trigger
	Rules   []Rule
}

// Evaluate runs rules in order. Warnings accumulate; the first Block stops
// evaluation and wins.
func (p Pipeline) Evaluate(s Subject) Outcome {
	out := Outcome{Trigger: p.Trigger, Verdict: Proceed}
	for _, r := range p.Rules {
		d := r.Evaluate(s)
		switch d.Verdict {
		case Warn:
			out.Decisions = append(out.Decisions, d)
			out.Verdict = Warn
		case Block:
			out.Decisions = append(out.Decisions, d)
			out.Verdict = Block
			return out
		}
	}
	return out
}

// Engine builds trigger pipelines from the tables, leaving out disabled rules.
type Engine struct {
	tables        *classify.Tables
	disabledRules map[string]bool
}

func NewEngine(tables *classify.Tables, disabledRules []string) *Engine {
	disabled := make(map[string]bool, len(disabledRules))
	for _, id := range disabledRules {
		disabled[id] = true
	}
	return &Engine{tables: tables, disabledRules: disabled}
}

// Tables returns the tables the engine was built with.
func (e *Engine) Tables() *classify.Tables { return e.tables }

// Pipeline returns the ordered rules for trigger.
func (e *Engine) Pipeline(trigger Trigger) (Pipeline, error) {
	var candidates []Rule
	switch trigger {
	case TriggerEdit:
		candidates = []Rule{&ProtectedPathRule{}, &WorkflowRule{}, &CapabilityRule{}}
		if e.tables.EnforceDocsFirst {
			candidates = append(candidates, &DocsFirstRule{})
		}
	case TriggerProtect:
		candidates = []Rule{&ProtectedPathRule{}}
	case TriggerSkill:
		candidates = []Rule{&SkillDocsRule{}}
	case TriggerStop:
		if e.tables.WarnMissingWorkflow {
			candidates = append(candidates, &WorkflowUsedRule{})
		}
		candidates = append(candidates, &FinalCheckRule{})
	default:
		return Pipeline{}, fmt.Errorf("GATE_TRIGGER: unknown trigger %q", trigger)
	}
	p := Pipeline{Trigger: trigger}
	for _, r := range candidates {
		if e.disabledRules[r.ID()] {
			continue
		}
		p.Rules = append(p.Rules, r)
	}
	return p, nil
}

// Evaluate runs the pipeline for trigger against s. The engine's tables are
// used when s carries none.
func (e *Engine) Evaluate(trigger Trigger, s Subject) (Outcome, error) {
	p, err := e.Pipeline(trigger)
	if err != nil {
		return Outcome{}, err
	}
	if s.Tables == nil {
		s.Tables = e.tables
	}
	return p.Evaluate(s), nil
}

// AllRules lists every built-in rule, for documentation and doctor output.
func AllRules() []Rule {
	return []Rule{
		&ProtectedPathRule{},
		&WorkflowRule{},
		&CapabilityRule{},
		&DocsFirstRule{},
		&SkillDocsRule{},
		&FinalCheckRule{},
		&WorkflowUsedRule{},
	}
}
