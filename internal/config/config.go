package config

import (
	"os"
	"strconv"
	"strings"
)

const AppVersion = "1.0.0"

// Settings holds the environment-backed configuration. Values are read once
// at startup; core logic only depends on the numeric thresholds.
type Settings struct {
	Host string
	Port string

	// Cloudflare R2
	R2AccessKey  string
	R2SecretKey  string
	R2BucketName string
	R2Endpoint   string

	// Azure Document Intelligence
	AzureEndpoint string
	AzureAPIKey   string

	// Claude
	ClaudeAPIKey string
	ClaudeModel  string

	MaxFileSizeMB          int
	AllowedFileTypes       []string
	TempFileRetentionHours int
}

// Required lists the env vars that must be present before the server starts.
var Required = []string{
	"R2_ACCESS_KEY",
	"R2_SECRET_KEY",
	"R2_BUCKET_NAME",
	"R2_ENDPOINT",
	"AZURE_DOC_INTELLIGENCE_ENDPOINT",
	"AZURE_DOC_INTELLIGENCE_API_KEY",
	"CLAUDE_API_KEY",
}

func Load() *Settings {
	return &Settings{
		Host: envOr("HOST", "0.0.0.0"),
		Port: envOr("PORT", "8000"),

		R2AccessKey:  os.Getenv("R2_ACCESS_KEY"),
		R2SecretKey:  os.Getenv("R2_SECRET_KEY"),
		R2BucketName: envOr("R2_BUCKET_NAME", "menuscanner-temp"),
		R2Endpoint:   os.Getenv("R2_ENDPOINT"),

		AzureEndpoint: os.Getenv("AZURE_DOC_INTELLIGENCE_ENDPOINT"),
		AzureAPIKey:   os.Getenv("AZURE_DOC_INTELLIGENCE_API_KEY"),

		ClaudeAPIKey: os.Getenv("CLAUDE_API_KEY"),
		ClaudeModel:  envOr("CLAUDE_MODEL", "claude-3-5-sonnet-20241022"),

		MaxFileSizeMB:          envIntOr("MAX_FILE_SIZE_MB", 10),
		AllowedFileTypes:       splitCSV(envOr("ALLOWED_FILE_TYPES", "image/jpeg,image/png,image/webp")),
		TempFileRetentionHours: envIntOr("TEMP_FILE_RETENTION_HOURS", 24),
	}
}

func (s *Settings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) * 1024 * 1024
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
