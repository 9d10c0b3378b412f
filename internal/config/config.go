package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"skillgate/internal/fsutil"
)

// Ensure loads path, writing the default config first when it does not exist.
func Ensure(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	cfg = DefaultConfig()
	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load decodes path and fills every key the file leaves out with its default.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("CFG_PARSE: %w", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("CFG_PARSE: %w", err)
	}
	cfg = applyToggleDefaults(cfg, raw)
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOrDefault is the read-only variant used by hooks: a missing file yields
// the defaults and nothing is written. Environment overrides are applied last.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
		cfg = DefaultConfig()
	}
	cfg = ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv applies SKILLGATE_* overrides. A truthy SKILLGATE_DEBUG or DEBUG
// forces the debug level.
func ApplyEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv("SKILLGATE_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("SKILLGATE_LOG_FORMAT")); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if envTruthy("SKILLGATE_DEBUG") || envTruthy("DEBUG") {
		cfg.Logging.Level = "debug"
	}
	return cfg
}

func envTruthy(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// applyToggleDefaults restores default-true booleans the file does not set.
// A zero bool cannot tell "absent" from "false", so presence is read from raw.
func applyToggleDefaults(cfg Config, raw map[string]any) Config {
	def := DefaultConfig()
	if !hasKey(raw, "audit", "enabled") {
		cfg.Audit.Enabled = def.Audit.Enabled
	}
	if !hasKey(raw, "formatter", "enabled") {
		cfg.Formatter.Enabled = def.Formatter.Enabled
	}
	if !hasKey(raw, "notify", "enabled") {
		cfg.Notify.Enabled = def.Notify.Enabled
	}
	if !hasKey(raw, "policy", "enforce_docs_first") {
		cfg.Policy.EnforceDocsFirst = def.Policy.EnforceDocsFirst
	}
	if !hasKey(raw, "policy", "warn_missing_workflow") {
		cfg.Policy.WarnMissingWorkflow = def.Policy.WarnMissingWorkflow
	}
	return cfg
}

func hasKey(raw map[string]any, section, key string) bool {
	table, ok := raw[section].(map[string]any)
	if !ok {
		return false
	}
	_, ok = table[key]
	return ok
}

func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return err
	}

	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("CFG_ENCODE: %w", err)
	}
	return fsutil.AtomicWrite(path, blob, 0o644)
}
