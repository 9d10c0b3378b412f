package config

const (
	SchemaVersion = 1

	// HookCapabilityNone disables hook-name capability inference.
	HookCapabilityNone = "none"
)

// DefaultConfig returns a fully-populated v1 config document.
func DefaultConfig() Config {
	return Config{
		Version: SchemaVersion,
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Storage: StorageConfig{
			Root: "~/.skillgate",
		},
		Audit: AuditConfig{
			Enabled: true,
		},
		Policy: DefaultPolicy(),
		Formatter: FormatterConfig{
			Enabled:    true,
			Command:    []string{"npx", "prettier", "--write"},
			RootMarker: "package.json",
			Timeout:    "60s",
		},
		Notify: NotifyConfig{
			Enabled: true,
			Title:   "Claude Code",
			Message: "Claude finished",
			Sound:   "/System/Library/Sounds/Ping.aiff",
		},
	}
}

var ecmascriptExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}

// DefaultPolicy returns the built-in classification tables.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		CodeExtensions: []string{
			".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs",
			".py", ".go", ".rs", ".lua", ".java", ".kt", ".swift",
			".c", ".cpp", ".h", ".hpp", ".cs",
		},
		FormattableExtensions: []string{".ts", ".tsx", ".js", ".jsx", ".json", ".css", ".scss"},
		WorkflowSkill:         "applying-workflow",
		FinalSkill:            "final-checking",
		DocsRequiredSkills:    []string{"applying-workflow"},
		HookCapability:        "react",
		ProtectedSegments:     []string{"node_modules", "target"},
		ExemptGlobs:           []string{"**/.claude/**"},
		DocIndex:              "index.md",
		EnforceDocsFirst:      true,
		WarnMissingWorkflow:   true,
		Capabilities: []CapabilityConfig{
			{Key: "ecmascript", Skill: "writing-ecmascript", Extensions: append([]string(nil), ecmascriptExtensions...)},
			{Key: "typescript", Skill: "writing-typescript", Extensions: []string{".ts", ".tsx"}},
			{Key: "react", Skill: "writing-react", Extensions: []string{".jsx", ".tsx"}},
			{Key: "lua", Skill: "writing-lua", Extensions: []string{".lua"}},
			{Key: "rust", Skill: "writing-rust", Extensions: []string{".rs"}, Disabled: true},
			{Key: "wgsl", Skill: "writing-wgsl", Extensions: []string{".wgsl"}, Disabled: true},
		},
		DocTriggers: []DocTriggerConfig{
			{Label: "Public export", Target: "name", Pattern: `^index\.(ts|tsx|js|jsx|mjs)$`},
			{Label: "API contract", Target: "name", Pattern: `(^api\.|\.(api|service|client)\.)(ts|tsx|js|jsx)$`},
			{Label: "Configuration", Target: "name", Pattern: `(\.config\.(ts|js|mjs|cjs|json)$|^(package|tsconfig)\.json$)`},
			{Label: "Hook", Target: "path", Pattern: `(/hooks/|(^|/)use[A-Z][^/]*$)`},
			{Label: "Component", Target: "path", Pattern: `/components/[^/]+\.(tsx|jsx)$`},
			{Label: "State slice", Target: "name", Pattern: `[Ss]lice\.(ts|js)$`},
			{Label: "Context", Target: "name", Pattern: `[Cc]ontext\.(tsx|ts|jsx|js)$`},
		},
	}
}
