package events

// Event names shared between the Go side and the popup frontend.
const (
	Summarize         = "summarize"
	SummaryResult     = "summary-result"
	ThemeChanged      = "theme-changed"
	StartFadeOut      = "start-fade-out"
	AutoHideMsChanged = "auto-hide-ms-changed"
	MarkdownChanged   = "markdown-mode-changed"
)

// SummaryPayload is the body of a summary-result event. Exactly one of
// Summary or Error is non-empty. Notice carries an informational message
// (for example a truncation warning) that the popup renders inline.
type SummaryPayload struct {
	Summary      string `json:"summary,omitempty"`
	Error        string `json:"error,omitempty"`
	Working      bool   `json:"working,omitempty"`
	Notice       string `json:"notice,omitempty"`
	InputPreview string `json:"inputPreview,omitempty"`
	FullText     string `json:"fullText,omitempty"`
	PresetID     string `json:"presetId,omitempty"`
}

// Emitter pushes named events to every open window. The production
// implementation wraps the wails runtime; tests inject a recorder.
type Emitter interface {
	Emit(name string, payload any)
}

// EmitterFunc adapts a plain function to the Emitter interface.
type EmitterFunc func(name string, payload any)

func (f EmitterFunc) Emit(name string, payload any) { f(name, payload) }

// Discard swallows every event. Useful before the window exists.
var Discard Emitter = EmitterFunc(func(string, any) {})
