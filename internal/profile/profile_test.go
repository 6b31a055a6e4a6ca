package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	clearEnvVars(t)

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "https://api.openai.com/v1", p.ModelBaseURL)
	require.Equal(t, "gpt-4o-mini", p.ChatModel)
	require.Equal(t, "text-embedding-3-small", p.EmbeddingModel)
	require.Empty(t, p.ModelAPIKey)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("SEAMLESS_MODEL_API_KEY", "sk-test")
	t.Setenv("SEAMLESS_CHAT_MODEL", "gpt-4o")

	p := &Profile{}
	p.FromEnv()

	require.Equal(t, "sk-test", p.ModelAPIKey)
	require.Equal(t, "gpt-4o", p.ChatModel)
}

func TestMissingCredentialWarnings(t *testing.T) {
	p := &Profile{}
	warnings := p.MissingCredentialWarnings()
	require.Contains(t, warnings, WarnMissingModelAPIKey)
	require.Contains(t, warnings, WarnMissingSearchAPIKey)
	require.Contains(t, warnings, WarnMissingJWTSecret)

	p.ModelAPIKey = "sk-test"
	p.SearchAPIKey = "sp-test"
	p.JWTSecret = "secret"
	require.Empty(t, p.MissingCredentialWarnings())
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SEAMLESS_JWT_SECRET",
		"SEAMLESS_MODEL_API_KEY",
		"SEAMLESS_MODEL_BASE_URL",
		"SEAMLESS_CHAT_MODEL",
		"SEAMLESS_EMBEDDING_MODEL",
		"SEAMLESS_SEARCH_API_KEY",
		"SEAMLESS_SEARCH_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}
