package config

// Markdown rendering modes for the popup body.
const (
	MarkdownOff   = "off"
	MarkdownLight = "light"
	MarkdownFull  = "full"
)

// HotkeySummarize is the named binding the default preset mirrors.
const HotkeySummarize = "summarize"

// AutoHideMaxMs bounds the auto-hide countdown; 0 disables it.
const AutoHideMaxMs = 30000

// Preset is a named (prompt, accelerator) pair invocable independently.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PromptText  string `json:"promptText"`
	Accelerator string `json:"accelerator"`
	IsDefault   bool   `json:"isDefault"`
}

// ProviderSettings holds the per-provider credential and model choice.
// The API key may instead live in the OS keyring; an empty value here is
// not an error.
type ProviderSettings struct {
	APIKey string `json:"apiKey,omitempty"`
	Model  string `json:"model,omitempty"`
}

// DocumentSession is an optional context block appended to the prompt
// while the user is working through a particular document.
type DocumentSession struct {
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Config is the whole persisted settings document. Unknown fields found in
// the file are preserved verbatim across rewrites by the Store.
type Config struct {
	Providers         map[string]ProviderSettings `json:"providers"`
	ActiveProviderID  string                      `json:"activeProviderId"`
	Theme             string                      `json:"theme"`
	MarkdownMode      string                      `json:"markdownMode"`
	AutoHideMs        int                         `json:"autoHideMs"`
	AutoCopySelection bool                        `json:"autoCopySelection"`
	UnlimitedInput    bool                        `json:"unlimitedInput"`
	MaxInputChars     int                         `json:"maxInputChars"`
	MaxOutputTokens   int                         `json:"maxOutputTokens"`
	Hotkeys           map[string]string           `json:"hotkeys"`
	Presets           []Preset                    `json:"presets"`
	ActiveDocument    *DocumentSession            `json:"activeDocumentSession,omitempty"`
	Onboarded         bool                        `json:"onboarded"`
}

// SupportedProviders lists the provider ids the gateway knows, with the
// model each one starts out on.
var SupportedProviders = map[string]string{
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
	"gemini":    "gemini-2.0-flash",
	"groq":      "llama-3.3-70b-versatile",
	"grok":      "grok-3-mini",
}

// deprecatedProviders maps retired provider ids to their supported fallback.
var deprecatedProviders = map[string]string{
	"palm":         "gemini",
	"bard":         "gemini",
	"azure-openai": "openai",
}

const (
	defaultTheme           = "system"
	defaultMarkdownMode    = MarkdownLight
	defaultAutoHideMs      = 10000
	defaultMaxInputChars   = 12000
	defaultMaxOutputTokens = 1024
	defaultProviderID      = "openai"
	defaultAccelerator     = "CommandOrControl+Shift+Space"
	maxPresets             = 10
)

const defaultPromptText = "Summarize the following text in a few short sentences. " +
	"Prefer plain language and keep the original meaning."

// Default returns a fully populated settings document.
func Default() *Config {
	cfg := &Config{
		Providers:         map[string]ProviderSettings{},
		ActiveProviderID:  defaultProviderID,
		Theme:             defaultTheme,
		MarkdownMode:      defaultMarkdownMode,
		AutoHideMs:        defaultAutoHideMs,
		AutoCopySelection: true,
		MaxInputChars:     defaultMaxInputChars,
		MaxOutputTokens:   defaultMaxOutputTokens,
		Hotkeys:           map[string]string{HotkeySummarize: defaultAccelerator},
	}
	for id, model := range SupportedProviders {
		cfg.Providers[id] = ProviderSettings{Model: model}
	}
	cfg.Presets = []Preset{defaultPreset(cfg.Hotkeys[HotkeySummarize])}
	return cfg
}

func defaultPreset(accelerator string) Preset {
	return Preset{
		ID:          "default",
		Name:        "Summarize",
		PromptText:  defaultPromptText,
		Accelerator: accelerator,
		IsDefault:   true,
	}
}

// DefaultPreset returns the preset marked as default, falling back to the
// first entry when the invariant is somehow broken.
func (c *Config) DefaultPreset() *Preset {
	for i := range c.Presets {
		if c.Presets[i].IsDefault {
			return &c.Presets[i]
		}
	}
	if len(c.Presets) > 0 {
		return &c.Presets[0]
	}
	return nil
}

// PresetByID returns the preset with the given id, or nil.
func (c *Config) PresetByID(id string) *Preset {
	for i := range c.Presets {
		if c.Presets[i].ID == id {
			return &c.Presets[i]
		}
	}
	return nil
}
