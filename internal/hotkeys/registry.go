package hotkeys

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.design/x/hotkey"
)

// Binding ties a raw accelerator string to the preset it invokes.
type Binding struct {
	PresetID    string
	Accelerator string
}

// Conflict reports presets competing for the same normalized accelerator.
// The first preset keeps the binding.
type Conflict struct {
	Accelerator string
	PresetIDs   []string
}

// DetectConflicts normalizes every binding, drops unbound ones and splits
// the rest into first-wins winners and duplicate reports.
func DetectConflicts(bindings []Binding) ([]Binding, []Conflict) {
	seen := map[string]int{}
	var valid []Binding
	conflictIdx := map[string]int{}
	var conflicts []Conflict

	for _, b := range bindings {
		normalized := Normalize(b.Accelerator)
		if normalized == "" {
			continue
		}
		if winner, dup := seen[normalized]; dup {
			idx, ok := conflictIdx[normalized]
			if !ok {
				conflicts = append(conflicts, Conflict{
					Accelerator: normalized,
					PresetIDs:   []string{valid[winner].PresetID},
				})
				idx = len(conflicts) - 1
				conflictIdx[normalized] = idx
			}
			conflicts[idx].PresetIDs = append(conflicts[idx].PresetIDs, b.PresetID)
			continue
		}
		seen[normalized] = len(valid)
		valid = append(valid, Binding{PresetID: b.PresetID, Accelerator: normalized})
	}
	return valid, conflicts
}

type registration struct {
	hk   *hotkey.Hotkey
	done chan struct{}
}

// Registry owns the process's OS-level global hotkeys. Apply replaces the
// full set each time, so stale bindings can never linger after a settings
// change.
type Registry struct {
	trigger func(presetID string)

	mu     sync.Mutex
	active []*registration
}

// NewRegistry creates a registry that invokes trigger with the bound
// preset id on every keydown.
func NewRegistry(trigger func(presetID string)) *Registry {
	return &Registry{trigger: trigger}
}

// Apply unregisters all previous global bindings, then registers each
// valid, non-pointer binding. Pointer-button bindings stay usable from
// in-app affordances only. Duplicate accelerators are reported, not fatal.
func (r *Registry) Apply(bindings []Binding) ([]Conflict, error) {
	valid, conflicts := DetectConflicts(bindings)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked()

	var failures []string
	for _, b := range valid {
		if IsPointer(b.Accelerator) {
			continue
		}
		mods, key, err := chord(b.Accelerator)
		if err != nil {
			log.Printf("hotkeys: skip %q: %v", b.Accelerator, err)
			failures = append(failures, b.Accelerator)
			continue
		}
		hk := hotkey.New(mods, key)
		if err := hk.Register(); err != nil {
			log.Printf("hotkeys: register %q: %v", b.Accelerator, err)
			failures = append(failures, b.Accelerator)
			continue
		}
		reg := &registration{hk: hk, done: make(chan struct{})}
		r.active = append(r.active, reg)
		go r.listen(reg, b.PresetID)
	}

	if len(failures) > 0 {
		return conflicts, fmt.Errorf("failed to register: %s", strings.Join(failures, ", "))
	}
	return conflicts, nil
}

// Close releases every registered hotkey.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unregisterLocked()
}

func (r *Registry) unregisterLocked() {
	for _, reg := range r.active {
		close(reg.done)
		if err := reg.hk.Unregister(); err != nil {
			log.Printf("hotkeys: unregister: %v", err)
		}
	}
	r.active = nil
}

func (r *Registry) listen(reg *registration, presetID string) {
	for {
		select {
		case <-reg.hk.Keydown():
			r.trigger(presetID)
		case <-reg.done:
			return
		}
	}
}

// chord translates a normalized accelerator into the platform modifier
// mask and key code.
func chord(normalized string) ([]hotkey.Modifier, hotkey.Key, error) {
	parts := strings.Split(normalized, "+")
	var mods []hotkey.Modifier
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modifierFor(part)
		if !ok {
			return nil, 0, fmt.Errorf("unsupported modifier %q", part)
		}
		mods = append(mods, mod)
	}
	key, ok := keyFor(parts[len(parts)-1])
	if !ok {
		return nil, 0, fmt.Errorf("unsupported key %q", parts[len(parts)-1])
	}
	return mods, key, nil
}
