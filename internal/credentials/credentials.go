// Package credentials resolves provider API keys. Keys set through the
// app land in the OS keyring; the config document and environment
// variables remain as fallbacks for portable installs and development.
package credentials

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const serviceName = "glance"

// envVars names the conventional environment variable per provider,
// typically populated from a .env file during development.
var envVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"groq":      "GROQ_API_KEY",
	"grok":      "XAI_API_KEY",
}

// Resolver looks up API keys in priority order: OS keyring, config
// document, environment. The keyring and env accessors are injectable
// for tests.
type Resolver struct {
	keyringGet    func(service, user string) (string, error)
	keyringSet    func(service, user, password string) error
	keyringDelete func(service, user string) error
	lookupEnv     func(key string) (string, bool)
}

func NewResolver() *Resolver {
	return &Resolver{
		keyringGet:    keyring.Get,
		keyringSet:    keyring.Set,
		keyringDelete: keyring.Delete,
		lookupEnv:     os.LookupEnv,
	}
}

// Resolve returns the API key for a provider, or "" when none is
// configured anywhere. configKey is the value from the settings document.
func (r *Resolver) Resolve(providerID, configKey string) string {
	if key, err := r.keyringGet(serviceName, providerID); err == nil && strings.TrimSpace(key) != "" {
		return strings.TrimSpace(key)
	}
	if strings.TrimSpace(configKey) != "" {
		return strings.TrimSpace(configKey)
	}
	if name, ok := envVars[providerID]; ok {
		if key, ok := r.lookupEnv(name); ok && strings.TrimSpace(key) != "" {
			return strings.TrimSpace(key)
		}
	}
	return ""
}

// Store writes the key to the OS keyring. Callers fall back to the
// config document when the platform has no usable keyring.
func (r *Resolver) Store(providerID, apiKey string) error {
	if providerID == "" {
		return errors.New("provider is required")
	}
	if strings.TrimSpace(apiKey) == "" {
		return errors.New("API key is empty")
	}
	return r.keyringSet(serviceName, providerID, apiKey)
}

// Delete removes the provider's key from the keyring, ignoring absence.
func (r *Resolver) Delete(providerID string) error {
	err := r.keyringDelete(serviceName, providerID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
