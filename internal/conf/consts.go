package conf

const (
	APP_NAME = "llmadmin"
	APP_DESC = "Admin console and rate-limited gateway for LLM API keys"
)

// Overridden at build time via -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)
