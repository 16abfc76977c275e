package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"glance/internal/capture"
	"glance/internal/config"
	"glance/internal/credentials"
	"glance/internal/events"
	"glance/internal/hotkeys"
	"glance/internal/llm"
	"glance/internal/popup"
	"glance/internal/summary"
	"glance/internal/surface"
)

// App struct
type App struct {
	ctx context.Context

	store     *config.Store
	resolver  *credentials.Resolver
	gateway   *llm.Gateway
	registry  *hotkeys.Registry
	lifecycle *popup.Lifecycle
	window    *surface.Window
	emitter   *events.RuntimeEmitter
	orch      *summary.Orchestrator

	dbClose   func() error
	watchStop func()
}

// NewApp wires the services around the already-opened gateway and store.
func NewApp(store *config.Store, gateway *llm.Gateway) *App {
	a := &App{
		store:    store,
		resolver: credentials.NewResolver(),
		gateway:  gateway,
		window:   surface.NewWindow(),
		emitter:  events.NewRuntimeEmitter(),
	}
	a.lifecycle = popup.NewLifecycle(a.window, popup.NewClock(), a.autoHideMs)
	a.registry = hotkeys.NewRegistry(a.trigger)
	a.orch = summary.NewOrchestrator(store, gateway, a.resolver, capture.NewClipboardCapturer(), a.lifecycle, a.window)
	return a
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.window.Startup(ctx)
	a.emitter.Startup(ctx)
	a.store.SetEmitter(a.emitter)

	if err := capture.Init(); err != nil {
		runtime.LogError(ctx, fmt.Sprintf("clipboard unavailable: %v", err))
	}

	cfg, err := a.store.Load()
	if err != nil {
		runtime.LogError(ctx, fmt.Sprintf("failed to load settings: %v", err))
		return
	}
	a.applyHotkeys(cfg)

	if stop, err := a.store.Watch(); err != nil {
		runtime.LogError(ctx, fmt.Sprintf("config watch unavailable: %v", err))
	} else {
		a.watchStop = stop
	}

	// The frontend can trigger a summarize run itself, e.g. from the
	// preset list or a pointer-button binding it handles in-window.
	runtime.EventsOn(ctx, events.Summarize, func(args ...interface{}) {
		presetID := ""
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				presetID = id
			}
		}
		a.Summarize(presetID)
	})
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	a.registry.Close()
	if a.watchStop != nil {
		a.watchStop()
		a.watchStop = nil
	}
	a.window.Shutdown()

	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			runtime.LogError(ctx, fmt.Sprintf("failed to close database: %v", err))
		}
		a.dbClose = nil
	}
}

// trigger is invoked by the hotkey registry on every bound keydown.
func (a *App) trigger(presetID string) {
	a.Summarize(presetID)
}

func (a *App) autoHideMs() int {
	cfg, err := a.store.Load()
	if err != nil {
		return 0
	}
	return cfg.AutoHideMs
}

// applyHotkeys replaces the OS-level bindings with the current preset set
// and reports accelerators that lost a first-wins conflict.
func (a *App) applyHotkeys(cfg *config.Config) []hotkeys.Conflict {
	bindings := make([]hotkeys.Binding, 0, len(cfg.Presets))
	for _, p := range cfg.Presets {
		bindings = append(bindings, hotkeys.Binding{PresetID: p.ID, Accelerator: p.Accelerator})
	}
	conflicts, err := a.registry.Apply(bindings)
	if err != nil && a.ctx != nil {
		runtime.LogError(a.ctx, fmt.Sprintf("hotkey registration: %v", err))
	}
	return conflicts
}

// Summarize captures the current selection and runs the pipeline for the
// given preset (empty id selects the default). Returns immediately.
func (a *App) Summarize(presetID string) {
	go a.orch.Summarize(a.ctx, presetID)
}

// RequestHide starts the popup fade sequence.
func (a *App) RequestHide() {
	a.lifecycle.RequestHide()
}

// FinalizeHide is called by the frontend once its fade animation ends.
func (a *App) FinalizeHide() {
	a.lifecycle.FinalizeHide()
}

// SetHovered suspends the auto-hide countdown while the pointer is over
// the popup.
func (a *App) SetHovered(hovered bool) {
	a.lifecycle.SetHovered(hovered)
}

// GetConfig returns the current settings document.
func (a *App) GetConfig() (*config.Config, error) {
	return a.store.Load()
}

// SetTheme persists the UI theme ("light", "dark" or "system").
func (a *App) SetTheme(theme string) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) { c.Theme = theme })
}

// SetMarkdownMode persists the popup rendering mode.
func (a *App) SetMarkdownMode(mode string) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) { c.MarkdownMode = mode })
}

// SetAutoHideMs persists the auto-hide countdown; 0 disables it.
func (a *App) SetAutoHideMs(ms int) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) { c.AutoHideMs = ms })
}

// SetAutoCopySelection toggles the simulated copy keystroke on trigger.
func (a *App) SetAutoCopySelection(enabled bool) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) { c.AutoCopySelection = enabled })
}

// SetInputLimits persists the capture size controls.
func (a *App) SetInputLimits(maxInputChars int, unlimited bool) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) {
		c.MaxInputChars = maxInputChars
		c.UnlimitedInput = unlimited
	})
}

// SetMaxOutputTokens persists the completion length cap.
func (a *App) SetMaxOutputTokens(tokens int) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) { c.MaxOutputTokens = tokens })
}

// SetOnboarded marks the first-run flow as completed.
func (a *App) SetOnboarded(done bool) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) { c.Onboarded = done })
}

// SetActiveProvider switches the provider used for new requests.
func (a *App) SetActiveProvider(providerID string) (*config.Config, error) {
	if _, ok := config.SupportedProviders[providerID]; !ok {
		return nil, fmt.Errorf("unsupported provider %q", providerID)
	}
	return a.store.Mutate(func(c *config.Config) { c.ActiveProviderID = providerID })
}

// SetProviderModel persists the model choice for one provider.
func (a *App) SetProviderModel(providerID, model string) (*config.Config, error) {
	if _, ok := config.SupportedProviders[providerID]; !ok {
		return nil, fmt.Errorf("unsupported provider %q", providerID)
	}
	return a.store.Mutate(func(c *config.Config) {
		s := c.Providers[providerID]
		s.Model = model
		c.Providers[providerID] = s
	})
}

// SetDocumentSession attaches document context to subsequent prompts.
func (a *App) SetDocumentSession(title, author, notes string) (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) {
		c.ActiveDocument = &config.DocumentSession{Title: title, Author: author, Notes: notes}
	})
}

// ClearDocumentSession removes the document context block.
func (a *App) ClearDocumentSession() (*config.Config, error) {
	return a.store.Mutate(func(c *config.Config) { c.ActiveDocument = nil })
}

// SetSummarizeAccelerator rebinds the main hotkey. The default preset
// mirrors the named binding, migration keeps the two in sync.
func (a *App) SetSummarizeAccelerator(accelerator string) ([]hotkeys.Conflict, error) {
	normalized := hotkeys.Normalize(accelerator)
	if normalized == "" {
		return nil, fmt.Errorf("invalid accelerator %q", accelerator)
	}
	cfg, err := a.store.Mutate(func(c *config.Config) {
		c.Hotkeys[config.HotkeySummarize] = normalized
		if def := c.DefaultPreset(); def != nil {
			def.Accelerator = normalized
		}
	})
	if err != nil {
		return nil, err
	}
	return a.applyHotkeys(cfg), nil
}

// CreatePreset adds a preset and registers its accelerator.
func (a *App) CreatePreset(name, promptText, accelerator string) ([]hotkeys.Conflict, error) {
	cfg, err := a.store.Mutate(func(c *config.Config) {
		c.Presets = append(c.Presets, config.Preset{
			Name:        name,
			PromptText:  promptText,
			Accelerator: hotkeys.Normalize(accelerator),
		})
	})
	if err != nil {
		return nil, err
	}
	return a.applyHotkeys(cfg), nil
}

// UpdatePreset replaces the preset with the same id.
func (a *App) UpdatePreset(preset config.Preset) ([]hotkeys.Conflict, error) {
	cfg, err := a.store.Mutate(func(c *config.Config) {
		for i := range c.Presets {
			if c.Presets[i].ID == preset.ID {
				preset.IsDefault = c.Presets[i].IsDefault
				preset.Accelerator = hotkeys.Normalize(preset.Accelerator)
				c.Presets[i] = preset
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return a.applyHotkeys(cfg), nil
}

// DeletePreset removes a preset. The default preset cannot be deleted.
func (a *App) DeletePreset(id string) ([]hotkeys.Conflict, error) {
	var refused error
	cfg, err := a.store.Mutate(func(c *config.Config) {
		for i := range c.Presets {
			if c.Presets[i].ID != id {
				continue
			}
			if c.Presets[i].IsDefault {
				refused = fmt.Errorf("the default preset cannot be deleted")
				return
			}
			c.Presets = append(c.Presets[:i], c.Presets[i+1:]...)
			return
		}
	})
	if err != nil {
		return nil, err
	}
	if refused != nil {
		return nil, refused
	}
	return a.applyHotkeys(cfg), nil
}

// SetAPIKey stores the key in the OS keyring, falling back to the config
// document when no keyring backend is usable.
func (a *App) SetAPIKey(providerID, apiKey string) error {
	if _, ok := config.SupportedProviders[providerID]; !ok {
		return fmt.Errorf("unsupported provider %q", providerID)
	}
	if err := a.resolver.Store(providerID, apiKey); err == nil {
		return nil
	} else if a.ctx != nil {
		runtime.LogWarning(a.ctx, fmt.Sprintf("keyring unavailable, storing key in config: %v", err))
	}
	_, err := a.store.Mutate(func(c *config.Config) {
		s := c.Providers[providerID]
		s.APIKey = apiKey
		c.Providers[providerID] = s
	})
	return err
}

// DeleteAPIKey removes the key from both the keyring and the document.
func (a *App) DeleteAPIKey(providerID string) error {
	if err := a.resolver.Delete(providerID); err != nil {
		return err
	}
	_, err := a.store.Mutate(func(c *config.Config) {
		s := c.Providers[providerID]
		s.APIKey = ""
		c.Providers[providerID] = s
	})
	return err
}

// HasAPIKey reports whether any credential source can serve the provider.
func (a *App) HasAPIKey(providerID string) bool {
	cfg, err := a.store.Load()
	if err != nil {
		return false
	}
	return a.resolver.Resolve(providerID, cfg.Providers[providerID].APIKey) != ""
}

// ListModels returns the provider's chat-capable models, served from the
// ten minute cache when fresh.
func (a *App) ListModels(providerID string) ([]string, error) {
	cfg, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	apiKey := a.resolver.Resolve(providerID, cfg.Providers[providerID].APIKey)
	return a.gateway.ListModels(a.ctx, providerID, apiKey)
}
