package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glance/internal/events"
)

type recordingEmitter struct {
	names    []string
	payloads []any
}

func (r *recordingEmitter) Emit(name string, payload any) {
	r.names = append(r.names, name)
	r.payloads = append(r.payloads, payload)
}

func (r *recordingEmitter) count(name string) int {
	n := 0
	for _, got := range r.names {
		if got == name {
			n++
		}
	}
	return n
}

func testStore(t *testing.T) (*Store, string, *recordingEmitter) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	emitter := &recordingEmitter{}
	return NewStore(path, emitter), path, emitter
}

func TestLoadCreatesDefaultsWhenFileMissing(t *testing.T) {
	store, path, _ := testStore(t)

	cfg, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.ActiveProviderID)
	assert.Equal(t, MarkdownLight, cfg.MarkdownMode)
	assert.True(t, cfg.AutoCopySelection)
	assert.Len(t, cfg.Providers, len(SupportedProviders))
	require.Len(t, cfg.Presets, 1)
	assert.True(t, cfg.Presets[0].IsDefault)
	assert.Equal(t, cfg.Hotkeys[HotkeySummarize], cfg.Presets[0].Accelerator)

	_, err = os.Stat(path)
	assert.NoError(t, err, "defaults should be persisted on first read")
}

func TestLoadCorruptFileFallsBackToDefaults(t *testing.T) {
	store, path, _ := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	cfg, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.ActiveProviderID)
	assert.Equal(t, defaultMaxInputChars, cfg.MaxInputChars)
}

func TestMutateRoundTripBroadcastsThemeOnce(t *testing.T) {
	store, _, emitter := testStore(t)
	_, err := store.Load()
	require.NoError(t, err)

	updated, err := store.Mutate(func(cfg *Config) { cfg.Theme = "dark" })
	require.NoError(t, err)
	assert.Equal(t, "dark", updated.Theme)

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "dark", reloaded.Theme)

	assert.Equal(t, 1, emitter.count(events.ThemeChanged))
}

func TestMutateBroadcastsAutoHideAndMarkdown(t *testing.T) {
	store, _, emitter := testStore(t)

	_, err := store.Mutate(func(cfg *Config) {
		cfg.AutoHideMs = 5000
		cfg.MarkdownMode = MarkdownFull
	})
	require.NoError(t, err)

	assert.Equal(t, 1, emitter.count(events.AutoHideMsChanged))
	assert.Equal(t, 1, emitter.count(events.MarkdownChanged))
	assert.Equal(t, 0, emitter.count(events.ThemeChanged))
}

func TestMutateClampsAutoHide(t *testing.T) {
	store, _, _ := testStore(t)

	updated, err := store.Mutate(func(cfg *Config) { cfg.AutoHideMs = 90000 })
	require.NoError(t, err)
	assert.Equal(t, AutoHideMaxMs, updated.AutoHideMs)

	updated, err = store.Mutate(func(cfg *Config) { cfg.AutoHideMs = -5 })
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AutoHideMs)
}

func TestUnknownFieldsSurviveRewrite(t *testing.T) {
	store, path, _ := testStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	doc := `{"theme":"light","futureSetting":{"nested":true},"windowScale":1.5}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := store.Mutate(func(cfg *Config) { cfg.Theme = "dark" })
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Contains(t, onDisk, "futureSetting")
	assert.Contains(t, onDisk, "windowScale")
	assert.JSONEq(t, `{"nested":true}`, string(onDisk["futureSetting"]))
}

func TestMutateReturnsFreshReload(t *testing.T) {
	store, _, _ := testStore(t)

	updated, err := store.Mutate(func(cfg *Config) {
		cfg.Providers["openai"] = ProviderSettings{APIKey: "sk-test", Model: ""}
	})
	require.NoError(t, err)
	// Migration refills the cleared model on the way back in.
	assert.Equal(t, SupportedProviders["openai"], updated.Providers["openai"].Model)
	assert.Equal(t, "sk-test", updated.Providers["openai"].APIKey)
}
