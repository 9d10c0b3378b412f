package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	configDir         = ".skillgate"
	configFile        = "config.toml"
	maxAncestorSearch = 50
)

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(configDir, configFile)
	}
	return filepath.Join(home, configDir, configFile)
}

// ProjectConfigPath returns the config path for a project root.
func ProjectConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, configDir, configFile)
}

// FindProjectConfig walks up from startDir looking for .skillgate/config.toml.
func FindProjectConfig(startDir string) (string, bool) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false
	}
	for i := 0; i < maxAncestorSearch; i++ {
		candidate := ProjectConfigPath(dir)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// ResolvePath picks the config file to use: explicit flag, SKILLGATE_CONFIG,
// nearest project config above cwd, then the home config.
func ResolvePath(explicit, cwd string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv("SKILLGATE_CONFIG")); p != "" {
		return p
	}
	if cwd != "" {
		if p, ok := FindProjectConfig(cwd); ok {
			return p
		}
	}
	return DefaultConfigPath()
}

func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}

func ResolveStorageRoot(cfg Config) (string, error) {
	expanded, err := ExpandPath(cfg.Storage.Root)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

func AuditPath(root string) string {
	return filepath.Join(root, "audit.log")
}
