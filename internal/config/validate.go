package config

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

var allowedLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

var allowedLogFormats = map[string]struct{}{
	"text": {},
	"json": {},
}

var allowedTriggerTargets = map[string]struct{}{
	"name": {},
	"path": {},
}

func Validate(cfg Config) error {
	if cfg.Version != SchemaVersion {
		return fmt.Errorf("CFG_VERSION: unsupported version %d", cfg.Version)
	}
	if err := checkMinVersion(cfg.MinVersion); err != nil {
		return err
	}
	if _, ok := allowedLogLevels[cfg.Logging.Level]; !ok {
		return fmt.Errorf("CFG_LOGGING: invalid log level %q", cfg.Logging.Level)
	}
	if _, ok := allowedLogFormats[cfg.Logging.Format]; !ok {
		return fmt.Errorf("CFG_LOGGING: invalid log format %q", cfg.Logging.Format)
	}
	if cfg.Storage.Root == "" {
		return fmt.Errorf("CFG_STORAGE: missing storage root")
	}
	if err := validatePolicy(cfg.Policy); err != nil {
		return err
	}
	if _, err := time.ParseDuration(cfg.Formatter.Timeout); err != nil {
		return fmt.Errorf("CFG_FORMATTER: invalid timeout %q", cfg.Formatter.Timeout)
	}
	if len(cfg.Formatter.Command) == 0 || strings.TrimSpace(cfg.Formatter.Command[0]) == "" {
		return fmt.Errorf("CFG_FORMATTER: empty formatter command")
	}
	return nil
}

func validatePolicy(p PolicyConfig) error {
	if p.WorkflowSkill == "" || p.FinalSkill == "" {
		return fmt.Errorf("CFG_POLICY: workflow and final skills are required")
	}
	keys := map[string]struct{}{}
	skills := map[string]struct{}{}
	for _, c := range p.Capabilities {
		if c.Key == "" {
			return fmt.Errorf("CFG_CAPABILITY: capability key is required")
		}
		if _, ok := keys[c.Key]; ok {
			return fmt.Errorf("CFG_CAPABILITY: duplicate capability %q", c.Key)
		}
		keys[c.Key] = struct{}{}
		if c.Skill == "" {
			return fmt.Errorf("CFG_CAPABILITY: capability %q missing skill", c.Key)
		}
		if _, ok := skills[c.Skill]; ok {
			return fmt.Errorf("CFG_CAPABILITY: skill %q registered twice", c.Skill)
		}
		skills[c.Skill] = struct{}{}
	}
	if p.HookCapability != "" && p.HookCapability != HookCapabilityNone {
		if _, ok := keys[p.HookCapability]; !ok {
			return fmt.Errorf("CFG_CAPABILITY: hook capability %q is not registered", p.HookCapability)
		}
	}
	for _, seg := range p.ProtectedSegments {
		if strings.ContainsAny(seg, `/\`) {
			return fmt.Errorf("CFG_POLICY: protected segment %q must be a single path component", seg)
		}
	}
	if strings.ContainsAny(p.DocIndex, `/\`) {
		return fmt.Errorf("CFG_POLICY: doc index %q must be a file name", p.DocIndex)
	}
	for _, t := range p.DocTriggers {
		if t.Label == "" || t.Pattern == "" {
			return fmt.Errorf("CFG_DOC_TRIGGER: label and pattern are required")
		}
		if _, ok := allowedTriggerTargets[t.Target]; !ok {
			return fmt.Errorf("CFG_DOC_TRIGGER: invalid target %q for %q", t.Target, t.Label)
		}
	}
	return nil
}

// checkMinVersion rejects configs written for a newer binary.
func checkMinVersion(minVersion string) error {
	if minVersion == "" {
		return nil
	}
	want := canonicalSemver(minVersion)
	if want == "" {
		return fmt.Errorf("CFG_MIN_VERSION: invalid semver %q", minVersion)
	}
	have := canonicalSemver(Version)
	if have == "" {
		// development builds are not gated
		return nil
	}
	if semver.Compare(have, want) < 0 {
		return fmt.Errorf("CFG_MIN_VERSION: config requires skillgate %s, running %s", want, have)
	}
	return nil
}

func canonicalSemver(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}
