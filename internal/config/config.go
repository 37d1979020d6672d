package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"

	"github.com/petasbytes/mcp-bridge/internal/provider"
)

const (
	// APIKeyEnv holds the Anthropic credential; the process refuses to start
	// without it.
	APIKeyEnv = "ANTHROPIC_API_KEY"
	// ModelEnv optionally overrides the model used for every API call. It is
	// also exported to the tool-process environment at connection time.
	ModelEnv = "ANTHROPIC_MODEL"
)

var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

// Config carries credential and model selection for the whole session.
// It is built once at startup; nothing else reads these variables.
type Config struct {
	APIKey string
	Model  string
}

// FromEnv builds a Config from the process environment, loading a .env file
// from the working directory first when one exists. A missing API key is a
// fatal configuration error; a missing model falls back to the provider
// default.
func FromEnv() (Config, error) {
	_ = godotenv.Load()

	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return Config{}, ErrMissingAPIKey
	}
	model := os.Getenv(ModelEnv)
	if model == "" {
		model = string(provider.DefaultModel)
	}
	return Config{APIKey: key, Model: model}, nil
}
