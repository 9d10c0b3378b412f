package config

// Set via -ldflags at release time.
var (
	Version = "v0.1.0"
	Commit  = "none"
	Date    = "unknown"
)
