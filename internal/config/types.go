package config

// Config is the frozen v1 schema.
type Config struct {
	Version    int             `toml:"version" json:"version" yaml:"version"`
	MinVersion string          `toml:"min_version,omitempty" json:"minVersion,omitempty" yaml:"min_version,omitempty"`
	Logging    LoggingConfig   `toml:"logging" json:"logging" yaml:"logging"`
	Storage    StorageConfig   `toml:"storage" json:"storage" yaml:"storage"`
	Audit      AuditConfig     `toml:"audit" json:"audit" yaml:"audit"`
	Policy     PolicyConfig    `toml:"policy" json:"policy" yaml:"policy"`
	Formatter  FormatterConfig `toml:"formatter" json:"formatter" yaml:"formatter"`
	Notify     NotifyConfig    `toml:"notify" json:"notify" yaml:"notify"`
}

type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
}

type StorageConfig struct {
	Root string `toml:"root" json:"root" yaml:"root"`
}

type AuditConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
}

// PolicyConfig is the source of the classification tables. It is turned into
// an immutable classify.Tables once per process.
type PolicyConfig struct {
	CodeExtensions        []string `toml:"code_extensions" json:"codeExtensions" yaml:"code_extensions"`
	FormattableExtensions []string `toml:"formattable_extensions" json:"formattableExtensions" yaml:"formattable_extensions"`

	WorkflowSkill      string   `toml:"workflow_skill" json:"workflowSkill" yaml:"workflow_skill"`
	FinalSkill         string   `toml:"final_skill" json:"finalSkill" yaml:"final_skill"`
	DocsRequiredSkills []string `toml:"docs_required_skills" json:"docsRequiredSkills" yaml:"docs_required_skills"`

	// HookCapability is the UI-framework capability added by hook-name
	// inference; "none" switches the inference off. HookExtensions narrows
	// the inference to the listed extensions; empty means every code file.
	HookCapability string   `toml:"hook_capability" json:"hookCapability" yaml:"hook_capability"`
	HookExtensions []string `toml:"hook_extensions" json:"hookExtensions" yaml:"hook_extensions"`

	ProtectedSegments []string `toml:"protected_segments" json:"protectedSegments" yaml:"protected_segments"`
	ExemptGlobs       []string `toml:"exempt_globs" json:"exemptGlobs" yaml:"exempt_globs"`
	DocIndex          string   `toml:"doc_index" json:"docIndex" yaml:"doc_index"`

	EnforceDocsFirst    bool `toml:"enforce_docs_first" json:"enforceDocsFirst" yaml:"enforce_docs_first"`
	WarnMissingWorkflow bool `toml:"warn_missing_workflow" json:"warnMissingWorkflow" yaml:"warn_missing_workflow"`

	// DisabledRules lists rule IDs that are never evaluated.
	DisabledRules []string `toml:"disabled_rules,omitempty" json:"disabledRules,omitempty" yaml:"disabled_rules,omitempty"`

	Capabilities []CapabilityConfig `toml:"capabilities" json:"capabilities" yaml:"capabilities"`
	DocTriggers  []DocTriggerConfig `toml:"doc_triggers" json:"docTriggers" yaml:"doc_triggers"`
}

// CapabilityConfig registers a language/domain skill and the extensions that
// require it. Registration order is reporting order.
type CapabilityConfig struct {
	Key        string   `toml:"key" json:"key" yaml:"key"`
	Skill      string   `toml:"skill" json:"skill" yaml:"skill"`
	Extensions []string `toml:"extensions" json:"extensions" yaml:"extensions"`
	Disabled   bool     `toml:"disabled,omitempty" json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// DocTriggerConfig is one documentation-need pattern. Target is "name" to
// match the base name or "path" to match the slash-normalised full path.
type DocTriggerConfig struct {
	Label   string `toml:"label" json:"label" yaml:"label"`
	Target  string `toml:"target" json:"target" yaml:"target"`
	Pattern string `toml:"pattern" json:"pattern" yaml:"pattern"`
}

type FormatterConfig struct {
	Enabled    bool     `toml:"enabled" json:"enabled" yaml:"enabled"`
	Command    []string `toml:"command" json:"command" yaml:"command"`
	RootMarker string   `toml:"root_marker" json:"rootMarker" yaml:"root_marker"`
	Timeout    string   `toml:"timeout" json:"timeout" yaml:"timeout"`
}

type NotifyConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled" yaml:"enabled"`
	Title   string `toml:"title" json:"title" yaml:"title"`
	Message string `toml:"message" json:"message" yaml:"message"`
	Sound   string `toml:"sound" json:"sound" yaml:"sound"`
}
