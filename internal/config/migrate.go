package config

import (
	"encoding/json"

	"github.com/google/uuid"
)

// migrate patches cfg in place so every document read from disk satisfies
// the invariants the rest of the app relies on. raw holds the file's
// top-level fields and is consulted for legacy keys that no longer exist
// on the Config struct. Returns true when anything was changed.
func migrate(cfg *Config, raw map[string]json.RawMessage) bool {
	changed := false

	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderSettings{}
		changed = true
	}
	for old, fallback := range deprecatedProviders {
		settings, ok := cfg.Providers[old]
		if !ok {
			continue
		}
		if _, exists := cfg.Providers[fallback]; !exists {
			settings.Model = SupportedProviders[fallback]
			cfg.Providers[fallback] = settings
		}
		delete(cfg.Providers, old)
		changed = true
	}
	for id, model := range SupportedProviders {
		settings, ok := cfg.Providers[id]
		if !ok {
			cfg.Providers[id] = ProviderSettings{Model: model}
			changed = true
			continue
		}
		if settings.Model == "" {
			settings.Model = model
			cfg.Providers[id] = settings
			changed = true
		}
	}

	if fallback, ok := deprecatedProviders[cfg.ActiveProviderID]; ok {
		cfg.ActiveProviderID = fallback
		changed = true
	}
	if _, ok := SupportedProviders[cfg.ActiveProviderID]; !ok {
		cfg.ActiveProviderID = defaultProviderID
		changed = true
	}

	if cfg.Theme == "" {
		cfg.Theme = defaultTheme
		changed = true
	}

	if cfg.MarkdownMode != MarkdownOff && cfg.MarkdownMode != MarkdownLight && cfg.MarkdownMode != MarkdownFull {
		cfg.MarkdownMode = markdownModeFromLegacy(raw)
		changed = true
	}

	if cfg.AutoHideMs < 0 {
		cfg.AutoHideMs = 0
		changed = true
	}
	if cfg.AutoHideMs > AutoHideMaxMs {
		cfg.AutoHideMs = AutoHideMaxMs
		changed = true
	}

	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = defaultMaxInputChars
		changed = true
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
		changed = true
	}

	if cfg.Hotkeys == nil {
		cfg.Hotkeys = map[string]string{}
		changed = true
	}
	if cfg.Hotkeys[HotkeySummarize] == "" {
		cfg.Hotkeys[HotkeySummarize] = defaultAccelerator
		changed = true
	}

	if migratePresets(cfg) {
		changed = true
	}

	return changed
}

// markdownModeFromLegacy derives the tri-state mode from the retired
// boolean "markdownEnabled" flag, defaulting when the flag is absent too.
func markdownModeFromLegacy(raw map[string]json.RawMessage) string {
	if raw != nil {
		if legacy, ok := raw["markdownEnabled"]; ok {
			var enabled bool
			if err := json.Unmarshal(legacy, &enabled); err == nil {
				if enabled {
					return MarkdownFull
				}
				return MarkdownOff
			}
		}
	}
	return defaultMarkdownMode
}

func migratePresets(cfg *Config) bool {
	changed := false

	if len(cfg.Presets) > maxPresets {
		cfg.Presets = cfg.Presets[:maxPresets]
		changed = true
	}

	for i := range cfg.Presets {
		if cfg.Presets[i].ID == "" {
			cfg.Presets[i].ID = uuid.NewString()
			changed = true
		}
	}

	// Exactly one default preset, and it sits at index 0.
	defaultIdx := -1
	for i := range cfg.Presets {
		if !cfg.Presets[i].IsDefault {
			continue
		}
		if defaultIdx == -1 {
			defaultIdx = i
		} else {
			cfg.Presets[i].IsDefault = false
			changed = true
		}
	}
	switch {
	case defaultIdx == -1:
		cfg.Presets = append([]Preset{defaultPreset(cfg.Hotkeys[HotkeySummarize])}, cfg.Presets...)
		if len(cfg.Presets) > maxPresets {
			cfg.Presets = cfg.Presets[:maxPresets]
		}
		changed = true
	case defaultIdx > 0:
		def := cfg.Presets[defaultIdx]
		cfg.Presets = append(cfg.Presets[:defaultIdx], cfg.Presets[defaultIdx+1:]...)
		cfg.Presets = append([]Preset{def}, cfg.Presets...)
		changed = true
	}

	// The default preset mirrors the summarize hotkey unless the user
	// overrode its accelerator.
	if cfg.Presets[0].Accelerator == "" {
		cfg.Presets[0].Accelerator = cfg.Hotkeys[HotkeySummarize]
		changed = true
	}

	return changed
}
