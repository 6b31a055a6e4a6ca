package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where seamless stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your seamless instance.
	InstanceURL string

	// JWTSecret signs session access tokens.
	JWTSecret string

	// Model backend configuration
	ModelAPIKey    string // SEAMLESS_MODEL_API_KEY
	ModelBaseURL   string // SEAMLESS_MODEL_BASE_URL (default: https://api.openai.com/v1)
	ChatModel      string // SEAMLESS_CHAT_MODEL (default: gpt-4o-mini)
	EmbeddingModel string // SEAMLESS_EMBEDDING_MODEL (default: text-embedding-3-small)

	// SearchAPIKey authorizes the external web-search capability.
	SearchAPIKey string // SEAMLESS_SEARCH_API_KEY
	// SearchBaseURL points to the web-search endpoint.
	SearchBaseURL string // SEAMLESS_SEARCH_BASE_URL
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Warning codes reported by MissingCredentialWarnings.
const (
	WarnMissingModelAPIKey  = "MISSING_MODEL_API_KEY"
	WarnMissingSearchAPIKey = "MISSING_SEARCH_API_KEY"
	WarnMissingJWTSecret    = "MISSING_JWT_SECRET"
)

// MissingCredentialWarnings reports absent credentials as a warning list.
// A missing credential degrades the related capability but never prevents
// the server from starting.
func (p *Profile) MissingCredentialWarnings() []string {
	var warnings []string
	if p.ModelAPIKey == "" {
		warnings = append(warnings, WarnMissingModelAPIKey)
	}
	if p.SearchAPIKey == "" {
		warnings = append(warnings, WarnMissingSearchAPIKey)
	}
	if p.JWTSecret == "" {
		warnings = append(warnings, WarnMissingJWTSecret)
	}
	return warnings
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from SEAMLESS_* environment variables.
func (p *Profile) FromEnv() {
	p.JWTSecret = os.Getenv("SEAMLESS_JWT_SECRET")
	p.ModelAPIKey = os.Getenv("SEAMLESS_MODEL_API_KEY")
	p.ModelBaseURL = getEnvOrDefault("SEAMLESS_MODEL_BASE_URL", "https://api.openai.com/v1")
	p.ChatModel = getEnvOrDefault("SEAMLESS_CHAT_MODEL", "gpt-4o-mini")
	p.EmbeddingModel = getEnvOrDefault("SEAMLESS_EMBEDDING_MODEL", "text-embedding-3-small")
	p.SearchAPIKey = os.Getenv("SEAMLESS_SEARCH_API_KEY")
	p.SearchBaseURL = getEnvOrDefault("SEAMLESS_SEARCH_BASE_URL", "https://serpapi.com/search")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "seamless")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/seamless"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("seamless_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
