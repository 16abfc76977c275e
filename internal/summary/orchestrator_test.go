package summary

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glance/internal/config"
	"glance/internal/events"
	"glance/internal/llm"
	"glance/internal/popup"
)

type fakeStore struct {
	cfg *config.Config
	err error
}

func (s *fakeStore) Load() (*config.Config, error) { return s.cfg, s.err }

type fakeGateway struct {
	requests []llm.Request
	result   string
	err      error
	onCall   func()
}

func (g *fakeGateway) Complete(_ context.Context, _, _ string, req llm.Request) (string, error) {
	g.requests = append(g.requests, req)
	if g.onCall != nil {
		g.onCall()
	}
	return g.result, g.err
}

type fakeCreds struct{ keys map[string]string }

func (c *fakeCreds) Resolve(providerID, configKey string) string {
	if configKey != "" {
		return configKey
	}
	return c.keys[providerID]
}

type fakeCapturer struct{ text string }

func (c *fakeCapturer) Capture(context.Context, bool) string { return c.text }

type fakeSurface struct {
	shows, hides, fades int
	pushed              []events.SummaryPayload
}

func (s *fakeSurface) ShowNearCursor()              { s.shows++ }
func (s *fakeSurface) Hide()                        { s.hides++ }
func (s *fakeSurface) StartFadeOut()                { s.fades++ }
func (s *fakeSurface) Push(p events.SummaryPayload) { s.pushed = append(s.pushed, p) }

type manualTimer struct{ stopped bool }

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) AfterFunc(time.Duration, func()) popup.Timer { return &manualTimer{} }

type fixture struct {
	orch    *Orchestrator
	store   *fakeStore
	gateway *fakeGateway
	creds   *fakeCreds
	cap     *fakeCapturer
	surf    *fakeSurface
	clock   *manualClock
	life    *popup.Lifecycle
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Providers["openai"] = config.ProviderSettings{Model: "gpt-4o-mini"}

	f := &fixture{
		store:   &fakeStore{cfg: cfg},
		gateway: &fakeGateway{result: "a short summary"},
		creds:   &fakeCreds{keys: map[string]string{"openai": "sk-test"}},
		cap:     &fakeCapturer{text: "the selected paragraph"},
		surf:    &fakeSurface{},
		clock:   &manualClock{now: time.Unix(1700000000, 0)},
	}
	f.life = popup.NewLifecycle(f.surf, f.clock, func() int { return f.store.cfg.AutoHideMs })
	f.orch = NewOrchestrator(f.store, f.gateway, f.creds, f.cap, f.life, f.surf)
	return f
}

func (f *fixture) lastPush(t *testing.T) events.SummaryPayload {
	t.Helper()
	require.NotEmpty(t, f.surf.pushed)
	return f.surf.pushed[len(f.surf.pushed)-1]
}

func TestSummarizePushesWorkingThenResult(t *testing.T) {
	f := newFixture(t)

	f.orch.Summarize(context.Background(), "")

	require.Len(t, f.surf.pushed, 2)
	assert.True(t, f.surf.pushed[0].Working)
	assert.Equal(t, "a short summary", f.surf.pushed[1].Summary)
	assert.Equal(t, "the selected paragraph", f.surf.pushed[1].FullText)
	assert.Equal(t, 1, f.surf.shows)
	assert.False(t, f.life.InFlight(), "in-flight flag cleared after completion")
}

func TestMissingCredentialShowsGuidanceWithoutRequest(t *testing.T) {
	f := newFixture(t)
	f.creds.keys = nil

	f.orch.Summarize(context.Background(), "")

	assert.Empty(t, f.gateway.requests, "gateway must not be called")
	last := f.lastPush(t)
	assert.Contains(t, last.Summary, "No API key")
	assert.Contains(t, last.Summary, "openai")
	assert.Equal(t, 1, f.surf.shows, "guidance still shows the popup")
}

func TestEmptyCaptureUsesFallbackLiteral(t *testing.T) {
	f := newFixture(t)
	f.cap.text = "   \n\t "

	f.orch.Summarize(context.Background(), "")

	require.Len(t, f.gateway.requests, 1)
	assert.Equal(t, "(No selection)", f.gateway.requests[0].UserText)
}

func TestProviderErrorSurfacedInPayload(t *testing.T) {
	f := newFixture(t)
	f.gateway.result = ""
	f.gateway.err = &llm.HTTPError{Provider: "openai", Status: 401, Body: "invalid key"}

	f.orch.Summarize(context.Background(), "")

	last := f.lastPush(t)
	assert.Empty(t, last.Summary)
	assert.Contains(t, last.Error, "401")
	assert.False(t, f.life.InFlight())
}

func TestRepeatTriggerTogglesOffWithoutSecondRequest(t *testing.T) {
	f := newFixture(t)

	f.orch.Summarize(context.Background(), "")
	require.Len(t, f.gateway.requests, 1)

	// Same selection, same preset, past the debounce window: toggle off.
	f.clock.now = f.clock.now.Add(time.Second)
	f.orch.Summarize(context.Background(), "")

	assert.Len(t, f.gateway.requests, 1, "toggle must not start a request")
	assert.Equal(t, 1, f.surf.fades)
}

func TestRepeatTriggerInsideDebounceIgnored(t *testing.T) {
	f := newFixture(t)

	f.orch.Summarize(context.Background(), "")
	f.clock.now = f.clock.now.Add(100 * time.Millisecond)
	f.orch.Summarize(context.Background(), "")

	assert.Len(t, f.gateway.requests, 1)
	assert.Equal(t, 0, f.surf.fades)
	assert.Equal(t, 1, f.surf.shows)
}

func TestInFlightSetDuringGatewayCall(t *testing.T) {
	f := newFixture(t)
	f.gateway.onCall = func() {
		assert.True(t, f.life.InFlight(), "request outstanding while gateway runs")
	}

	f.orch.Summarize(context.Background(), "")
	assert.False(t, f.life.InFlight())
}

func TestUnknownPresetFallsBackToDefault(t *testing.T) {
	f := newFixture(t)

	f.orch.Summarize(context.Background(), "no-such-preset")

	require.Len(t, f.gateway.requests, 1)
	def := f.store.cfg.DefaultPreset()
	require.NotNil(t, def)
	assert.Contains(t, f.gateway.requests[0].SystemPrompt, def.PromptText)
}

func TestSafetyLimitTruncation(t *testing.T) {
	f := newFixture(t)
	f.store.cfg.MaxInputChars = 100
	f.cap.text = strings.Repeat("x", 500)

	f.orch.Summarize(context.Background(), "")

	require.Len(t, f.gateway.requests, 1)
	assert.Len(t, f.gateway.requests[0].UserText, 100)
	last := f.lastPush(t)
	assert.Contains(t, last.Notice, "truncated")
	assert.Contains(t, last.Notice, "safety limit")
}

func TestDocumentContextAppendedAndClipped(t *testing.T) {
	f := newFixture(t)
	f.store.cfg.ActiveDocument = &config.DocumentSession{
		Title:  "Dune",
		Author: "Frank Herbert",
		Notes:  strings.Repeat("n", 300),
	}

	f.orch.Summarize(context.Background(), "")

	require.Len(t, f.gateway.requests, 1)
	prompt := f.gateway.requests[0].SystemPrompt
	assert.Contains(t, prompt, "Title: Dune")
	assert.Contains(t, prompt, "Author: Frank Herbert")
	assert.Contains(t, prompt, "Notes: "+strings.Repeat("n", 200))
	assert.NotContains(t, prompt, strings.Repeat("n", 201))
}

func TestDocumentOverheadNamedWhenItCausesTruncation(t *testing.T) {
	f := newFixture(t)
	f.store.cfg.MaxInputChars = 200
	f.store.cfg.ActiveDocument = &config.DocumentSession{Title: "A title long enough to matter"}
	// Fits in 200 chars on its own, but not once the document block is
	// charged against the budget.
	f.cap.text = strings.Repeat("y", 190)

	f.orch.Summarize(context.Background(), "")

	last := f.lastPush(t)
	assert.Contains(t, last.Notice, "document-context overhead")
}

func TestUnlimitedCapFormula(t *testing.T) {
	cases := []struct {
		name               string
		limit, sysTok, out int
		want               int
	}{
		{"large window", 128000, 100, 1024, int(4 * (float64(128000) - 100 - 1024 - 0.1*128000))},
		{"floor applies", 2000, 500, 1024, 5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, unlimitedCap(tc.limit, tc.sysTok, tc.out))
		})
	}
}

func TestUnlimitedInputUsesModelContextLimit(t *testing.T) {
	f := newFixture(t)
	f.store.cfg.UnlimitedInput = true
	f.store.cfg.MaxOutputTokens = 1024
	huge := 5_000_000
	f.cap.text = strings.Repeat("z", huge)

	f.orch.Summarize(context.Background(), "")

	require.Len(t, f.gateway.requests, 1)
	got := len(f.gateway.requests[0].UserText)
	assert.Less(t, got, huge)
	assert.GreaterOrEqual(t, got, minUnlimitedCap)
	assert.Contains(t, f.lastPush(t).Notice, "model-context limit")
}

func TestUnlimitedInputUnknownModelKeepsSafetyLimit(t *testing.T) {
	f := newFixture(t)
	f.store.cfg.UnlimitedInput = true
	f.store.cfg.Providers["openai"] = config.ProviderSettings{Model: "mystery-model-9000"}
	f.store.cfg.MaxInputChars = 50
	f.cap.text = strings.Repeat("q", 500)

	f.orch.Summarize(context.Background(), "")

	require.Len(t, f.gateway.requests, 1)
	assert.Len(t, f.gateway.requests[0].UserText, 50)
	assert.Contains(t, f.lastPush(t).Notice, "safety limit")
}

func TestTruncationKeepsRuneBoundaries(t *testing.T) {
	f := newFixture(t)
	f.store.cfg.MaxInputChars = 99
	// Two-byte runes; an odd ceiling lands mid-rune without the backup.
	f.cap.text = strings.Repeat("é", 80)

	f.orch.Summarize(context.Background(), "")

	require.Len(t, f.gateway.requests, 1)
	sent := f.gateway.requests[0].UserText
	assert.True(t, utf8.ValidString(sent))
	assert.LessOrEqual(t, len(sent), 99)
	assert.Contains(t, f.lastPush(t).Notice, "truncated")
}

func TestInputPreviewKeepsRuneBoundaries(t *testing.T) {
	f := newFixture(t)
	// The leading byte shifts every rune boundary off the 120-byte
	// preview cut.
	f.cap.text = "a" + strings.Repeat("\U0001F600", 40)

	f.orch.Summarize(context.Background(), "")

	preview := f.lastPush(t).InputPreview
	assert.True(t, utf8.ValidString(preview))
}

func TestFingerprintDistinguishesPresetAndText(t *testing.T) {
	a := Fingerprint("same text", "preset-1")
	assert.Equal(t, a, Fingerprint("same text", "preset-1"))
	assert.NotEqual(t, a, Fingerprint("same text", "preset-2"))
	assert.NotEqual(t, a, Fingerprint("other text", "preset-1"))
	assert.Len(t, a, 16)
}
