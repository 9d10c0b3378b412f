package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"skillgate/internal/app"
	"skillgate/internal/config"
	"skillgate/internal/report"
	"skillgate/internal/rules"
	"skillgate/internal/settings"
)

type ExitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }
func (e *exitError) ExitCode() int { return e.code }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ex ExitCoder
		if errors.As(err, &ex) {
			if msg := err.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(ex.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	jsonOutput bool
	output     string
	debug      bool
}

// format resolves --json and -o into one output format.
func (g *globalFlags) format() string {
	if g.jsonOutput {
		return report.FormatJSON
	}
	return g.output
}

type serviceFactory func() (*app.Service, error)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	newSvc := func() (*app.Service, error) {
		return app.New(app.Options{ConfigPath: flags.configPath, Debug: flags.debug, Strict: true})
	}
	newHookSvc := func() (*app.Service, error) {
		return app.New(app.Options{ConfigPath: flags.configPath, Debug: flags.debug})
	}

	cmd := &cobra.Command{
		Use:           "skillgate",
		Short:         "Skill and docs-first policy gates for Claude Code hooks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(flags.output) {
			case report.FormatText, report.FormatJSON, report.FormatYAML:
				flags.output = strings.ToLower(flags.output)
				return nil
			default:
				return fmt.Errorf("CLI_FORMAT: --output must be text, json or yaml, got %q", flags.output)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "output JSON")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", report.FormatText, "output format: text|json|yaml")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "log at debug level to stderr")

	cmd.AddCommand(newHookCmd(newHookSvc))
	cmd.AddCommand(newInspectCmd(newSvc, flags))
	cmd.AddCommand(newCheckCmd(newSvc, flags))
	cmd.AddCommand(newRulesCmd(newSvc, flags))
	cmd.AddCommand(newInitCmd(newHookSvc, flags))
	cmd.AddCommand(newHooksCmd(newHookSvc, flags))
	cmd.AddCommand(newDoctorCmd(newHookSvc, flags))
	cmd.AddCommand(newAuditCmd(newSvc, flags))
	cmd.AddCommand(newVersionCmd(flags))

	return cmd
}

func newInspectCmd(newSvc serviceFactory, flags *globalFlags) *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:     "inspect <transcript>",
		Aliases: []string{"show-state"},
		Short:   "Aggregate a session transcript and print the result",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			if summary {
				sum := svc.Summary(args[0])
				if sum.Empty() && flags.format() == report.FormatText {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to report")
					return nil
				}
				return report.Render(cmd.OutOrStdout(), sum, flags.format())
			}
			return report.RenderState(cmd.OutOrStdout(), svc.Inspect(args[0]), flags.format())
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "print the end-of-session summary instead of the raw state")
	return cmd
}

func newCheckCmd(newSvc serviceFactory, flags *globalFlags) *cobra.Command {
	var transcriptPath string
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Dry-run a gate and print the outcome instead of exiting non-zero",
	}
	checkCmd.PersistentFlags().StringVar(&transcriptPath, "transcript", "", "session transcript (JSONL)")

	run := func(cmd *cobra.Command, trigger rules.Trigger, path, skill string) error {
		svc, err := newSvc()
		if err != nil {
			return err
		}
		out := svc.Gate(trigger, checkInput(svc, transcriptPath, path, skill))
		return printOutcome(cmd.OutOrStdout(), flags.format(), out)
	}

	editCmd := &cobra.Command{
		Use:   "edit <path>",
		Short: "Evaluate the edit gate for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rules.TriggerEdit, args[0], "")
		},
	}
	protectCmd := &cobra.Command{
		Use:   "protect <path>",
		Short: "Evaluate the protected-path gate for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rules.TriggerProtect, args[0], "")
		},
	}
	skillCmd := &cobra.Command{
		Use:   "skill <name>",
		Short: "Evaluate the skill gate for a skill invocation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, rules.TriggerSkill, "", args[0])
		},
	}
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Evaluate the stop gate for a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if transcriptPath == "" {
				return fmt.Errorf("CLI_ARGS: --transcript is required")
			}
			return run(cmd, rules.TriggerStop, "", "")
		},
	}
	checkCmd.AddCommand(editCmd, protectCmd, skillCmd, stopCmd)
	return checkCmd
}

func newRulesCmd(newSvc serviceFactory, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the gating rules and the triggers that run them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			listing := ruleListing(svc)
			return report.Encode(cmd.OutOrStdout(), listing, flags.format(), func(w io.Writer) {
				for _, r := range listing {
					triggers := "disabled"
					if len(r.Triggers) > 0 {
						triggers = strings.Join(r.Triggers, ",")
					}
					fmt.Fprintf(w, "%-26s %-14s %s\n", r.ID, triggers, r.Description)
				}
			})
		},
	}
}

func newInitCmd(newSvc serviceFactory, flags *globalFlags) *cobra.Command {
	var project bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			target := flags.configPath
			if target == "" {
				target = config.DefaultConfigPath()
				if project {
					target = config.ProjectConfigPath(svc.Cwd)
				}
			}
			path, created, err := svc.InitConfig(target)
			if err != nil {
				return err
			}
			msg := "config already exists at " + path
			if created {
				msg = "wrote " + path
			}
			return print(cmd.OutOrStdout(), flags.format(), map[string]any{"path": path, "created": created}, msg)
		},
	}
	cmd.Flags().BoolVar(&project, "project", false, "write .skillgate/config.toml in the current directory")
	return cmd
}

func newHooksCmd(newSvc serviceFactory, flags *globalFlags) *cobra.Command {
	var settingsPath string
	var binary string
	hooksCmd := &cobra.Command{Use: "hooks", Short: "Manage skillgate entries in Claude Code settings.json"}
	hooksCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "settings file (default .claude/settings.json in the current directory)")

	showCmd := &cobra.Command{
		Use:     "show",
		Aliases: []string{"ls", "list"},
		Short:   "Show installed skillgate hooks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			path := svc.SettingsPath(settingsPath)
			raw, err := settings.Load(path)
			if err != nil {
				return err
			}
			managed := settings.Managed(raw)
			payload := map[string]any{"path": path, "hooks": managed}
			return report.Encode(cmd.OutOrStdout(), payload, flags.format(), func(w io.Writer) {
				if len(managed) == 0 {
					fmt.Fprintf(w, "no skillgate hooks in %s\n", path)
					return
				}
				events := make([]string, 0, len(managed))
				for ev := range managed {
					events = append(events, ev)
				}
				sort.Strings(events)
				fmt.Fprintln(w, path)
				for _, ev := range events {
					fmt.Fprintf(w, "%s:\n", ev)
					for _, c := range managed[ev] {
						fmt.Fprintf(w, "  - %s\n", c)
					}
				}
			})
		},
	}

	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Merge the skillgate hooks into settings.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			res, err := settings.Install(svc.SettingsPath(settingsPath), binary, time.Now())
			if err != nil {
				return err
			}
			msg := "hooks already up to date in " + res.Path
			if res.Changed {
				msg = "installed skillgate hooks into " + res.Path
				if res.Backup != "" {
					msg += " (backup: " + res.Backup + ")"
				}
			}
			return print(cmd.OutOrStdout(), flags.format(), res, msg)
		},
	}
	installCmd.Flags().StringVar(&binary, "binary", "skillgate", "command used to invoke skillgate from the hooks")

	hooksCmd.AddCommand(showCmd, installCmd)
	return hooksCmd
}

func newDoctorCmd(newSvc serviceFactory, flags *globalFlags) *cobra.Command {
	var settingsPath string
	cmd := &cobra.Command{
		Use:     "doctor",
		Aliases: []string{"diag", "checkup"},
		Short:   "Run diagnostics",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			rep := svc.Doctor(svc.SettingsPath(settingsPath)).Run(cmd.Context())
			return report.Encode(cmd.OutOrStdout(), rep, flags.format(), func(w io.Writer) {
				if len(rep.Findings) == 0 {
					fmt.Fprintln(w, "healthy")
					return
				}
				if rep.Healthy {
					fmt.Fprintln(w, "healthy with warnings:")
				} else {
					fmt.Fprintln(w, "issues found:")
				}
				for _, f := range rep.Findings {
					fmt.Fprintf(w, "- [%s] %s\n", f.Code, f.Message)
				}
			})
		},
	}
	cmd.Flags().StringVar(&settingsPath, "settings", "", "settings file to check for installed hooks")
	return cmd
}

func newAuditCmd(newSvc serviceFactory, flags *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent hook invocations from the audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newSvc()
			if err != nil {
				return err
			}
			events, err := svc.RecentAudit(limit)
			if err != nil {
				return err
			}
			return report.Encode(cmd.OutOrStdout(), events, flags.format(), func(w io.Writer) {
				if len(events) == 0 {
					fmt.Fprintln(w, "no audit events")
					return
				}
				for _, ev := range events {
					line := fmt.Sprintf("%s %s %s", ev.Timestamp, ev.Operation, ev.Status)
					if ev.Code != "" {
						line += " " + ev.Code
					}
					if ev.Target != "" {
						line += " " + ev.Target
					}
					fmt.Fprintln(w, line)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of events to show (0 for all)")
	return cmd
}

func print(w io.Writer, format string, payload any, message string) error {
	return report.Encode(w, payload, format, func(w io.Writer) {
		if message != "" {
			fmt.Fprintln(w, message)
		}
	})
}
