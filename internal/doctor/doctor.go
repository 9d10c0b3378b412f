package doctor

import (
	"context"
	"os"
	"sort"
	"strings"

	"skillgate/internal/classify"
	"skillgate/internal/config"
	"skillgate/internal/rules"
	"skillgate/internal/runner"
	"skillgate/internal/settings"
)

type Finding struct {
	Code    string `json:"code" yaml:"code"`
	Level   string `json:"level" yaml:"level"`
	Message string `json:"message" yaml:"message"`
}

type Report struct {
	Healthy      bool                `json:"healthy" yaml:"healthy"`
	Findings     []Finding           `json:"findings" yaml:"findings"`
	ConfigPath   string              `json:"configPath" yaml:"config_path"`
	Settings     string              `json:"settingsPath,omitempty" yaml:"settings_path,omitempty"`
	ManagedHooks map[string][]string `json:"managedHooks,omitempty" yaml:"managed_hooks,omitempty"`
}

// Service checks that skillgate can run as configured. Notifications are the
// commands the notifier would run on this platform.
type Service struct {
	ConfigPath    string
	SettingsPath  string
	Formatter     []string
	Notifications [][]string
	LookPath      runner.LookPath
}

func (s *Service) Run(_ context.Context) Report {
	findings := []Finding{}
	report := Report{ConfigPath: s.ConfigPath, Settings: s.SettingsPath}

	cfg := config.DefaultConfig()
	if _, err := os.Stat(s.ConfigPath); err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_MISSING", Level: "warn", Message: "using built-in defaults; run `skillgate init` to write " + s.ConfigPath})
	} else if loaded, err := config.Load(s.ConfigPath); err != nil {
		findings = append(findings, Finding{Code: "DOC_CONFIG_INVALID", Level: "error", Message: err.Error()})
	} else {
		cfg = loaded
	}
	if _, err := classify.New(cfg.Policy); err != nil {
		findings = append(findings, Finding{Code: "DOC_POLICY_INVALID", Level: "error", Message: err.Error()})
	}
	known := map[string]bool{}
	for _, r := range rules.AllRules() {
		known[r.ID()] = true
	}
	for _, id := range cfg.Policy.DisabledRules {
		if !known[id] {
			findings = append(findings, Finding{Code: "DOC_RULE_UNKNOWN", Level: "warn", Message: "disabled_rules names unknown rule " + id})
		}
	}

	if cfg.Formatter.Enabled && len(s.Formatter) > 0 {
		if _, err := s.lookPath(s.Formatter[0]); err != nil {
			findings = append(findings, Finding{Code: "DOC_FORMATTER_UNAVAILABLE", Level: "warn", Message: s.Formatter[0] + " not found on PATH"})
		}
	}
	if cfg.Notify.Enabled {
		for _, c := range s.Notifications {
			if _, err := s.lookPath(c[0]); err != nil {
				findings = append(findings, Finding{Code: "DOC_NOTIFIER_UNAVAILABLE", Level: "warn", Message: c[0] + " not found on PATH"})
			}
		}
	}

	if s.SettingsPath != "" {
		findings = append(findings, s.checkHooks(&report)...)
	}

	report.Healthy = true
	for _, f := range findings {
		if f.Level == "error" {
			report.Healthy = false
			break
		}
	}
	report.Findings = findings
	return report
}

func (s *Service) checkHooks(report *Report) []Finding {
	raw, err := settings.Load(s.SettingsPath)
	if err != nil {
		return []Finding{{Code: "DOC_SETTINGS_INVALID", Level: "warn", Message: err.Error()}}
	}
	managed := settings.Managed(raw)
	if len(managed) == 0 {
		return []Finding{{Code: "DOC_HOOKS_MISSING", Level: "warn", Message: "no skillgate hooks in " + s.SettingsPath + "; run `skillgate hooks install`"}}
	}
	report.ManagedHooks = managed

	var missing []string
	for ev := range settings.Recommended("") {
		if len(managed[ev]) == 0 {
			missing = append(missing, ev)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return []Finding{{Code: "DOC_HOOKS_PARTIAL", Level: "warn", Message: "no skillgate hooks for " + strings.Join(missing, ", ")}}
}

func (s *Service) lookPath(name string) (string, error) {
	if s.LookPath != nil {
		return s.LookPath(name)
	}
	return runner.Exec{}.LookPath(name)
}
