package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"glance/internal/events"
)

const appDirName = "glance"

// Store owns the settings document: a lazily loaded in-memory copy backed
// by a whole-file JSON rewrite. Reads are served from cache; every write
// invalidates the cache and reloads from disk so callers always observe
// persisted state. A corrupt or missing file yields defaults, never an error.
type Store struct {
	path    string
	emitter events.Emitter

	mu     sync.Mutex
	cached *Config
	extras map[string]json.RawMessage
}

// NewStore creates a store persisting to path. The emitter receives
// theme/auto-hide/markdown change broadcasts.
func NewStore(path string, emitter events.Emitter) *Store {
	if emitter == nil {
		emitter = events.Discard
	}
	return &Store{path: path, emitter: emitter}
}

// DefaultPath places the document under the user config dir, the same
// layout the credential sidecar files use.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appDirName, "config.json"), nil
}

// SetEmitter swaps the broadcast target. Used once the window exists.
func (s *Store) SetEmitter(emitter events.Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if emitter == nil {
		emitter = events.Discard
	}
	s.emitter = emitter
}

// Load returns the current settings, reading and migrating the file on the
// first call after an invalidation. The returned config is a private copy.
func (s *Store) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return clone(cfg), nil
}

// Mutate applies fn to a draft of the current settings, persists the whole
// document, invalidates the cache and returns a fresh reload. Changes to
// theme, autoHideMs and markdownMode are broadcast exactly once each.
func (s *Store) Mutate(fn func(*Config)) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	before := clone(prev)

	draft := clone(prev)
	fn(draft)
	migrate(draft, nil)

	if err := s.save(draft); err != nil {
		return nil, fmt.Errorf("persist config: %w", err)
	}
	s.cached = nil

	fresh, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	s.broadcastDiff(before, fresh)
	return clone(fresh), nil
}

// Invalidate drops the cache; the next Load rereads the file.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

// Watch reloads the document when the file changes on disk (external edits)
// and broadcasts any observable differences. Our own writes reload to an
// identical document and so broadcast nothing. Returns a stop function.
func (s *Store) Watch() (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				s.reloadAndBroadcast()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("config watch: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}

func (s *Store) reloadAndBroadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.cached
	s.cached = nil
	fresh, err := s.loadLocked()
	if err != nil {
		log.Printf("config reload: %v", err)
		return
	}
	if before != nil {
		s.broadcastDiff(before, fresh)
	}
}

func (s *Store) broadcastDiff(before, after *Config) {
	if before.Theme != after.Theme {
		s.emitter.Emit(events.ThemeChanged, after.Theme)
	}
	if before.AutoHideMs != after.AutoHideMs {
		s.emitter.Emit(events.AutoHideMsChanged, after.AutoHideMs)
	}
	if before.MarkdownMode != after.MarkdownMode {
		s.emitter.Emit(events.MarkdownChanged, after.MarkdownMode)
	}
}

// loadLocked returns the cached document, reading from disk when needed.
// Callers must hold s.mu.
func (s *Store) loadLocked() (*Config, error) {
	if s.cached != nil {
		return s.cached, nil
	}

	cfg := Default()
	var raw map[string]json.RawMessage

	data, err := os.ReadFile(s.path)
	if err == nil {
		if parseErr := json.Unmarshal(data, &raw); parseErr == nil {
			cfg = &Config{}
			if parseErr := json.Unmarshal(data, cfg); parseErr != nil {
				// Corrupt document: fall back to defaults.
				cfg = Default()
				raw = nil
			}
		}
	}

	s.extras = extractExtras(raw)
	changed := migrate(cfg, raw)

	if err != nil || changed {
		if saveErr := s.save(cfg); saveErr != nil {
			return nil, fmt.Errorf("write config: %w", saveErr)
		}
	}

	s.cached = cfg
	return cfg, nil
}

// save writes the whole document atomically, carrying along any top-level
// fields this version of the app does not know about.
func (s *Store) save(cfg *Config) error {
	known, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(known, &doc); err != nil {
		return err
	}
	for key, value := range s.extras {
		if _, ok := doc[key]; !ok {
			doc[key] = value
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// extractExtras keeps the file's unknown top-level fields so rewrites do
// not drop them. The legacy markdownEnabled flag is consumed by migration
// and intentionally not carried forward.
func extractExtras(raw map[string]json.RawMessage) map[string]json.RawMessage {
	if raw == nil {
		return nil
	}
	knownKeys, err := json.Marshal(&Config{ActiveDocument: &DocumentSession{}})
	if err != nil {
		return nil
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(knownKeys, &known); err != nil {
		return nil
	}
	extras := map[string]json.RawMessage{}
	for key, value := range raw {
		if _, ok := known[key]; ok {
			continue
		}
		if key == "markdownEnabled" {
			continue
		}
		extras[key] = value
	}
	if len(extras) == 0 {
		return nil
	}
	return extras
}

func clone(cfg *Config) *Config {
	data, err := json.Marshal(cfg)
	if err != nil {
		return cfg
	}
	out := &Config{}
	if err := json.Unmarshal(data, out); err != nil {
		return cfg
	}
	return out
}
