package app

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"skillgate/internal/audit"
	"skillgate/internal/docs"
	"skillgate/internal/fsutil"
	"skillgate/internal/hook"
	"skillgate/internal/report"
	"skillgate/internal/rules"
	"skillgate/internal/transcript"
)

// Hook entrypoint names, as installed in settings.json.
const (
	HookEditGuard    = "edit-guard"
	HookProtect      = "protect"
	HookSkillGuard   = "skill-guard"
	HookStop         = "stop"
	HookDocsReminder = "docs-reminder"
	HookFormat       = "format"
	HookNotify       = "notify"
	HookSummary      = "summary"
	HookStats        = "stats"
)

var gateTriggers = map[string]rules.Trigger{
	HookEditGuard:  rules.TriggerEdit,
	HookProtect:    rules.TriggerProtect,
	HookSkillGuard: rules.TriggerSkill,
	HookStop:       rules.TriggerStop,
}

// HookNames lists every entrypoint in help order.
func HookNames() []string {
	return []string{
		HookEditGuard, HookProtect, HookSkillGuard, HookStop,
		HookDocsReminder, HookFormat, HookNotify, HookSummary, HookStats,
	}
}

// HookResult is what one hook produced. The caller copies Stdout and Stderr
// to the process streams and exits with ExitCode.
type HookResult struct {
	Hook    string         `json:"hook" yaml:"hook"`
	Verdict rules.Verdict  `json:"verdict" yaml:"verdict"`
	Outcome *rules.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Stdout  string         `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr  string         `json:"stderr,omitempty" yaml:"stderr,omitempty"`
}

func (r HookResult) ExitCode() int {
	return hook.ExitCode(r.Verdict)
}

// RunHook executes the named entrypoint against in. Only an unknown name is an
// error; everything else degrades to Proceed.
func (s *Service) RunHook(ctx context.Context, name string, in hook.Input) (HookResult, error) {
	start := time.Now()
	res := HookResult{Hook: name, Verdict: rules.Proceed}
	fields := map[string]string{}

	if trigger, ok := gateTriggers[name]; ok {
		out := s.Gate(trigger, in)
		res.Outcome = &out
		res.Verdict = out.Verdict
		var buf bytes.Buffer
		hook.Report(&buf, out)
		res.Stderr = buf.String()
		s.record(name, in, res, start, fields)
		return res, nil
	}

	switch name {
	case HookDocsReminder:
		if text := s.DocsReminder(in); text != "" {
			var buf bytes.Buffer
			if err := hook.WriteOutput(&buf, hook.Context(hook.EventPreToolUse, text)); err == nil {
				res.Stdout = buf.String()
			}
		}
	case HookFormat:
		if s.Config.Formatter.Enabled {
			st := s.Aggregator.AggregateFile(in.TranscriptPath)
			groups := s.Formatter.Run(ctx, st.EditedFiles)
			fields["roots"] = strconv.Itoa(len(groups))
			fields["files"] = strconv.Itoa(len(st.EditedFiles))
		}
	case HookNotify:
		if s.Config.Notify.Enabled {
			s.Notifier.Notify(ctx)
		}
	case HookSummary, HookStats:
		st := s.Aggregator.AggregateFile(in.TranscriptPath)
		sum := report.Stats(st)
		if name == HookSummary {
			sum = report.Build(st, s.Tables)
		}
		var buf bytes.Buffer
		if err := report.Render(&buf, sum, report.FormatText); err != nil {
			s.Logger.Debug("render summary", "error", err)
		}
		res.Stdout = buf.String()
	default:
		return res, fmt.Errorf("HOOK_UNKNOWN: %q is not a skillgate hook", name)
	}
	s.record(name, in, res, start, fields)
	return res, nil
}

// Gate evaluates trigger for in. The protect trigger needs no session history
// and skips the transcript.
func (s *Service) Gate(trigger rules.Trigger, in hook.Input) rules.Outcome {
	subject := rules.Subject{
		Tables:      s.Tables,
		Path:        in.ToolInput.FilePath,
		Skill:       in.ToolInput.Skill,
		ProjectRoot: hook.ProjectRoot(in),
	}
	if trigger != rules.TriggerProtect {
		subject.State = s.Aggregator.AggregateFile(in.TranscriptPath)
	}
	out, err := s.Engine.Evaluate(trigger, subject)
	if err != nil {
		s.Logger.Debug("evaluate", "trigger", trigger, "error", err)
		return rules.Outcome{Trigger: trigger, Verdict: rules.Proceed}
	}
	s.Logger.Debug("evaluated", "trigger", trigger, "verdict", out.Verdict, "path", subject.Path, "skill", subject.Skill)
	return out
}

// DocsReminder returns the docs-first context for the edited file in in.
func (s *Service) DocsReminder(in hook.Input) string {
	path := in.ToolInput.FilePath
	root := hook.ProjectRoot(in)
	if path != "" && !filepath.IsAbs(path) && root != "" {
		path = filepath.Join(root, path)
	}
	return docs.Reminder(path, root, s.Tables, fsutil.Exists)
}

// Inspect aggregates the transcript at path.
func (s *Service) Inspect(path string) transcript.State {
	return s.Aggregator.AggregateFile(path)
}

// Summary builds the session summary for the transcript at path.
func (s *Service) Summary(path string) report.Summary {
	return report.Build(s.Inspect(path), s.Tables)
}

func (s *Service) record(name string, in hook.Input, res HookResult, start time.Time, fields map[string]string) {
	ev := audit.Event{
		SessionID:  in.SessionID,
		Operation:  "hook." + name,
		Status:     res.Verdict.String(),
		Target:     in.ToolInput.FilePath,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if ev.Target == "" {
		ev.Target = in.ToolInput.Skill
	}
	if res.Outcome != nil {
		if d, ok := res.Outcome.Blocking(); ok {
			ev.Code = d.RuleID
			ev.Message = d.Message
		} else if len(res.Outcome.Decisions) > 0 {
			ev.Code = res.Outcome.Decisions[0].RuleID
		}
	}
	if in.HookEventName != "" {
		fields["event"] = in.HookEventName
	}
	if len(fields) > 0 {
		ev.Fields = fields
	}
	if err := s.Audit.Log(ev); err != nil {
		s.Logger.Debug("audit write failed", "error", err)
	}
}
