package app

import (
	"io"
	"log/slog"
	"os"

	"skillgate/internal/audit"
	"skillgate/internal/classify"
	"skillgate/internal/config"
	"skillgate/internal/doctor"
	"skillgate/internal/format"
	"skillgate/internal/fsutil"
	"skillgate/internal/logging"
	"skillgate/internal/notify"
	"skillgate/internal/rules"
	"skillgate/internal/settings"
	"skillgate/internal/transcript"
)

type Options struct {
	ConfigPath string
	Debug      bool

	// Cwd anchors project config discovery; empty means the process cwd.
	Cwd string

	// LogWriter receives slog output. Defaults to stderr.
	LogWriter io.Writer

	// Strict turns config and policy errors into construction errors.
	// Hooks run non-strict and fall back to the built-in defaults.
	Strict bool
}

type Service struct {
	ConfigPath string
	Config     config.Config
	Cwd        string

	// ConfigErr is the load error that forced the defaults, if any.
	ConfigErr error

	Tables     *classify.Tables
	Engine     *rules.Engine
	Logger     *slog.Logger
	Audit      *audit.Logger
	Aggregator *transcript.Aggregator
	Formatter  *format.Formatter
	Notifier   *notify.Notifier
}

func New(opts Options) (*Service, error) {
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		cwd = wd
	}
	configPath := config.ResolvePath(opts.ConfigPath, cwd)
	cfg, cfgErr := config.LoadOrDefault(configPath)
	if cfgErr != nil {
		if opts.Strict {
			return nil, cfgErr
		}
		cfg = config.ApplyEnv(config.DefaultConfig())
	}
	if opts.Debug {
		cfg.Logging.Level = "debug"
	}

	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	logger := logging.New(cfg.Logging, w)
	if cfgErr != nil {
		logger.Warn("config unusable, using defaults", "path", configPath, "error", cfgErr)
	}

	tables, err := classify.New(cfg.Policy)
	if err != nil {
		if opts.Strict {
			return nil, err
		}
		logger.Warn("policy unusable, using defaults", "error", err)
		tables = classify.Default()
	}

	auditLogger := audit.New("")
	if cfg.Audit.Enabled {
		root, err := config.ResolveStorageRoot(cfg)
		if err != nil {
			logger.Debug("audit disabled", "error", err)
		} else {
			auditLogger = audit.New(config.AuditPath(root))
		}
	}

	return &Service{
		ConfigPath: configPath,
		Config:     cfg,
		ConfigErr:  cfgErr,
		Cwd:        cwd,
		Tables:     tables,
		Engine:     rules.NewEngine(tables, cfg.Policy.DisabledRules),
		Logger:     logger,
		Audit:      auditLogger,
		Aggregator: &transcript.Aggregator{Tables: tables, Exists: fsutil.Exists, Logger: logger},
		Formatter:  format.New(cfg.Formatter, logger),
		Notifier:   notify.New(cfg.Notify, logger),
	}, nil
}

// InitConfig writes the default config unless one already exists.
func (s *Service) InitConfig(path string) (string, bool, error) {
	if path == "" {
		path = s.ConfigPath
	}
	existed := fsutil.IsFile(path)
	if _, err := config.Ensure(path); err != nil {
		return path, false, err
	}
	return path, !existed, nil
}

// SettingsPath returns the settings file hooks are installed into: the
// explicit path, else the project settings under the current directory.
func (s *Service) SettingsPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return settings.Path(s.Cwd)
}

// Doctor builds the diagnostics service for settingsPath.
func (s *Service) Doctor(settingsPath string) *doctor.Service {
	return &doctor.Service{
		ConfigPath:    s.ConfigPath,
		SettingsPath:  settingsPath,
		Formatter:     s.Formatter.Command,
		Notifications: s.Notifier.Commands(),
	}
}

// RecentAudit returns up to limit of the newest audit events.
func (s *Service) RecentAudit(limit int) ([]audit.Event, error) {
	if s.Audit.Path() == "" {
		return nil, nil
	}
	return audit.Recent(s.Audit.Path(), limit)
}
