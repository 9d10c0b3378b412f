package config

import "strings"

func Normalize(cfg Config) Config {
	if cfg.Version == 0 {
		cfg.Version = SchemaVersion
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Storage.Root == "" {
		cfg.Storage.Root = "~/.skillgate"
	}
	cfg.Policy = normalizePolicy(cfg.Policy)
	if len(cfg.Formatter.Command) == 0 {
		cfg.Formatter.Command = []string{"npx", "prettier", "--write"}
	}
	if cfg.Formatter.RootMarker == "" {
		cfg.Formatter.RootMarker = "package.json"
	}
	if cfg.Formatter.Timeout == "" {
		cfg.Formatter.Timeout = "60s"
	}
	if cfg.Notify.Title == "" {
		cfg.Notify.Title = "Claude Code"
	}
	if cfg.Notify.Message == "" {
		cfg.Notify.Message = "Claude finished"
	}
	return cfg
}

func normalizePolicy(p PolicyConfig) PolicyConfig {
	def := DefaultPolicy()
	if p.CodeExtensions == nil {
		p.CodeExtensions = def.CodeExtensions
	}
	if p.FormattableExtensions == nil {
		p.FormattableExtensions = def.FormattableExtensions
	}
	if p.WorkflowSkill == "" {
		p.WorkflowSkill = def.WorkflowSkill
	}
	if p.FinalSkill == "" {
		p.FinalSkill = def.FinalSkill
	}
	if p.DocsRequiredSkills == nil {
		p.DocsRequiredSkills = def.DocsRequiredSkills
	}
	if p.HookCapability == "" {
		p.HookCapability = def.HookCapability
	}
	if p.ProtectedSegments == nil {
		p.ProtectedSegments = def.ProtectedSegments
	}
	if p.ExemptGlobs == nil {
		p.ExemptGlobs = def.ExemptGlobs
	}
	if p.Capabilities == nil {
		p.Capabilities = def.Capabilities
	}
	if p.DocTriggers == nil {
		p.DocTriggers = def.DocTriggers
	}
	if p.DocIndex == "" {
		p.DocIndex = def.DocIndex
	}
	p.CodeExtensions = normalizeExtensions(p.CodeExtensions)
	p.FormattableExtensions = normalizeExtensions(p.FormattableExtensions)
	p.HookExtensions = normalizeExtensions(p.HookExtensions)
	for i := range p.Capabilities {
		p.Capabilities[i].Key = strings.TrimSpace(p.Capabilities[i].Key)
		p.Capabilities[i].Skill = strings.TrimSpace(p.Capabilities[i].Skill)
		p.Capabilities[i].Extensions = normalizeExtensions(p.Capabilities[i].Extensions)
	}
	for i := range p.DocTriggers {
		if p.DocTriggers[i].Target == "" {
			p.DocTriggers[i].Target = "name"
		}
	}
	return p
}

// normalizeExtensions lower-cases and dot-prefixes each entry.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
