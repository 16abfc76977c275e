// Package summary composes selection capture, the provider gateway and
// the popup lifecycle into the hotkey-to-summary pipeline.
package summary

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"glance/internal/capture"
	"glance/internal/config"
	"glance/internal/events"
	"glance/internal/llm"
	"glance/internal/popup"
	"glance/internal/surface"
)

const (
	noSelectionFallback = "(No selection)"
	docNotesLimit       = 200
	inputPreviewLen     = 120

	// Character budget math for "unlimited" input: roughly four
	// characters per token, a tenth of the window held back as a safety
	// margin, and never below a floor that keeps the feature useful.
	charsPerToken    = 4
	safetyMarginFrac = 0.1
	minUnlimitedCap  = 5000
)

// Truncation reasons surfaced in the inline notice.
const (
	reasonSafetyLimit  = "safety limit"
	reasonDocOverhead  = "document-context overhead"
	reasonModelContext = "model-context limit"
)

// ConfigSource is the slice of the config store the orchestrator needs.
type ConfigSource interface {
	Load() (*config.Config, error)
}

// Gateway is the slice of the provider gateway the orchestrator needs.
type Gateway interface {
	Complete(ctx context.Context, providerID, apiKey string, req llm.Request) (string, error)
}

// CredentialSource resolves a provider API key from keyring/config/env.
type CredentialSource interface {
	Resolve(providerID, configKey string) string
}

// Orchestrator runs one summarization per trigger. It owns no OS state
// itself; everything side-effectful is behind the injected collaborators.
type Orchestrator struct {
	store     ConfigSource
	gateway   Gateway
	creds     CredentialSource
	capturer  capture.Capturer
	lifecycle *popup.Lifecycle
	surface   surface.Surface
}

func NewOrchestrator(
	store ConfigSource,
	gateway Gateway,
	creds CredentialSource,
	capturer capture.Capturer,
	lifecycle *popup.Lifecycle,
	surf surface.Surface,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		gateway:   gateway,
		creds:     creds,
		capturer:  capturer,
		lifecycle: lifecycle,
		surface:   surf,
	}
}

// Summarize runs the pipeline for a preset; an empty id selects the
// default preset. Designed to be called from its own goroutine: failures
// degrade to a message in the popup, never an error to the caller.
func (o *Orchestrator) Summarize(ctx context.Context, presetID string) {
	cfg, err := o.store.Load()
	if err != nil {
		o.surface.Push(events.SummaryPayload{Error: fmt.Sprintf("failed to load settings: %v", err)})
		return
	}

	var preset *config.Preset
	if presetID != "" {
		preset = cfg.PresetByID(presetID)
	}
	if preset == nil {
		preset = cfg.DefaultPreset()
	}
	if preset == nil {
		o.surface.Push(events.SummaryPayload{Error: "no preset configured"})
		return
	}

	providerID := cfg.ActiveProviderID
	settings := cfg.Providers[providerID]
	apiKey := o.creds.Resolve(providerID, settings.APIKey)
	if apiKey == "" {
		// Guidance, not an error: the popup still shows and toggles.
		fp := Fingerprint("missing-credential:"+providerID, preset.ID)
		if d := o.lifecycle.HandleTrigger(fp); d == popup.DecisionToggleOff || d == popup.DecisionIgnore {
			return
		}
		o.surface.Push(events.SummaryPayload{
			Summary:  fmt.Sprintf("No API key is configured for %s. Add one in the settings to start summarizing.", providerID),
			PresetID: preset.ID,
		})
		o.lifecycle.ContentUpdated()
		return
	}

	text := o.capturer.Capture(ctx, cfg.AutoCopySelection)
	if strings.TrimSpace(text) == "" {
		text = noSelectionFallback
	}

	fingerprint := Fingerprint(text, preset.ID)
	switch o.lifecycle.HandleTrigger(fingerprint) {
	case popup.DecisionToggleOff, popup.DecisionIgnore:
		return
	default:
	}

	preview := inputPreview(text)
	o.lifecycle.SetInFlight(true)
	defer o.lifecycle.SetInFlight(false)

	o.surface.Push(events.SummaryPayload{
		Working:      true,
		InputPreview: preview,
		PresetID:     preset.ID,
	})

	systemPrompt := preset.PromptText
	docOverhead := 0
	if cfg.ActiveDocument != nil {
		block := documentBlock(cfg.ActiveDocument)
		if block != "" {
			systemPrompt = systemPrompt + "\n\n" + block
			docOverhead = len(block)
		}
	}

	model := settings.Model
	ceiling, reason := effectiveCeiling(cfg, model, systemPrompt, docOverhead, len(text))
	truncated, notice := truncateInput(text, ceiling, reason)

	result, err := o.gateway.Complete(ctx, providerID, apiKey, llm.Request{
		Model:        model,
		SystemPrompt: systemPrompt,
		UserText:     truncated,
		MaxTokens:    cfg.MaxOutputTokens,
	})

	payload := events.SummaryPayload{
		InputPreview: preview,
		FullText:     truncated,
		Notice:       notice,
		PresetID:     preset.ID,
	}
	if err != nil {
		payload.Error = err.Error()
	} else {
		payload.Summary = result
	}
	o.surface.Push(payload)
	o.lifecycle.ContentUpdated()
}

// Fingerprint hashes captured text plus preset id so a repeated trigger
// of the same request is recognizable.
func Fingerprint(text, presetID string) string {
	h := fnv.New64a()
	h.Write([]byte(presetID))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return fmt.Sprintf("%016x", h.Sum64())
}

// effectiveCeiling computes the input character budget and the reason a
// truncation against it would be reported under. When the document block
// alone pushes text that would otherwise fit over the budget, that is
// what gets named in the notice.
func effectiveCeiling(cfg *config.Config, model, systemPrompt string, docOverhead, textLen int) (int, string) {
	base := cfg.MaxInputChars
	reason := reasonSafetyLimit

	if cfg.UnlimitedInput {
		if limit := llm.ContextLimit(model); limit > 0 {
			base = unlimitedCap(limit, len(systemPrompt)/charsPerToken, cfg.MaxOutputTokens)
			reason = reasonModelContext
		}
	}

	ceiling := base
	if docOverhead > 0 {
		ceiling -= docOverhead
		if ceiling < 0 {
			ceiling = 0
		}
		if textLen > ceiling && textLen <= base {
			reason = reasonDocOverhead
		}
	}
	return ceiling, reason
}

// unlimitedCap converts a model context window into a character budget:
// max(5000, floor(4 * (limit - systemPromptTokens - outputTokens - 0.1*limit))).
func unlimitedCap(limit, systemPromptTokens, outputTokens int) int {
	budget := float64(limit) - float64(systemPromptTokens) - float64(outputTokens) - safetyMarginFrac*float64(limit)
	chars := int(charsPerToken * budget)
	if chars < minUnlimitedCap {
		return minUnlimitedCap
	}
	return chars
}

func truncateInput(text string, ceiling int, reason string) (string, string) {
	if ceiling <= 0 || len(text) <= ceiling {
		return text, ""
	}
	cut := cutAtRune(text, ceiling)
	notice := fmt.Sprintf("Input was truncated to %d of %d characters (%s).", len(cut), len(text), reason)
	return cut, notice
}

// cutAtRune shortens s to at most limit bytes without splitting a rune.
func cutAtRune(s string, limit int) string {
	if limit >= len(s) {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

// documentBlock renders the active document session as a bounded context
// block appended to the preset prompt. Notes are clipped to 200 chars.
func documentBlock(doc *config.DocumentSession) string {
	var lines []string
	if doc.Title != "" {
		lines = append(lines, "Title: "+doc.Title)
	}
	if doc.Author != "" {
		lines = append(lines, "Author: "+doc.Author)
	}
	if notes := strings.TrimSpace(doc.Notes); notes != "" {
		if len(notes) > docNotesLimit {
			notes = notes[:docNotesLimit]
		}
		lines = append(lines, "Notes: "+notes)
	}
	if len(lines) == 0 {
		return ""
	}
	return "Document context:\n" + strings.Join(lines, "\n")
}

func inputPreview(text string) string {
	if len(text) <= inputPreviewLen {
		return text
	}
	return cutAtRune(text, inputPreviewLen) + "…"
}
