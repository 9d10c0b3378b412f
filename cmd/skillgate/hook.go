package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"skillgate/internal/app"
	"skillgate/internal/hook"
	"skillgate/internal/report"
	"skillgate/internal/rules"
)

var hookShort = map[string]string{
	app.HookEditGuard:    "PreToolUse Edit|Write: protected paths, workflow, capabilities, docs-first",
	app.HookProtect:      "PreToolUse Edit|Write: protected paths only",
	app.HookSkillGuard:   "PreToolUse Skill: project docs before docs-first skills",
	app.HookStop:         "Stop: final check after code edits",
	app.HookDocsReminder: "PreToolUse Edit|Write: docs index reminder as additional context",
	app.HookFormat:       "Stop: run the formatter over edited files",
	app.HookNotify:       "Stop: desktop notification",
	app.HookSummary:      "Stop: session summary",
	app.HookStats:        "Stop: skills used in this session",
}

func newHookCmd(newSvc serviceFactory) *cobra.Command {
	hookCmd := &cobra.Command{
		Use:   "hook",
		Short: "Claude Code hook entrypoints (JSON on stdin, exit 2 blocks)",
	}
	for _, name := range app.HookNames() {
		hookCmd.AddCommand(newHookEntryCmd(name, newSvc))
	}
	return hookCmd
}

// newHookEntryCmd runs one hook. Unreadable input is treated as an empty
// document so the hook proceeds.
func newHookEntryCmd(name string, newSvc serviceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: hookShort[name],
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			in, err := hook.ReadInput(cmd.InOrStdin())
			if err != nil {
				svc.Logger.Debug("hook input ignored", "hook", name, "error", err)
				in = hook.Input{}
			}
			res, err := svc.RunHook(cmd.Context(), name, in)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
			fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
			if code := res.ExitCode(); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
}

func checkInput(svc *app.Service, transcriptPath, path, skill string) hook.Input {
	return hook.Input{
		TranscriptPath: transcriptPath,
		CWD:            svc.Cwd,
		ToolInput:      hook.ToolInput{FilePath: path, Skill: skill},
	}
}

func printOutcome(w io.Writer, format string, out rules.Outcome) error {
	return report.Encode(w, out, format, func(w io.Writer) {
		line := "verdict: " + out.Verdict.String()
		var ids []string
		for _, d := range out.Decisions {
			ids = append(ids, d.RuleID)
		}
		if len(ids) > 0 {
			line += " (" + strings.Join(ids, ", ") + ")"
		}
		fmt.Fprintln(w, line)
		for _, msg := range out.Messages() {
			fmt.Fprintln(w)
			fmt.Fprintln(w, msg)
		}
	})
}

type ruleInfo struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Triggers    []string `json:"triggers" yaml:"triggers"`
}

// ruleListing reports each rule with the triggers whose pipelines run it
// under the current config.
func ruleListing(svc *app.Service) []ruleInfo {
	active := map[string][]string{}
	for _, t := range rules.Triggers {
		p, err := svc.Engine.Pipeline(t)
		if err != nil {
			continue
		}
		for _, r := range p.Rules {
			active[r.ID()] = append(active[r.ID()], string(t))
		}
	}
	var out []ruleInfo
	for _, r := range rules.AllRules() {
		out = append(out, ruleInfo{ID: r.ID(), Description: r.Description(), Triggers: active[r.ID()]})
	}
	return out
}
