// Package capture reads the text currently selected in the foreground
// application by synthesizing a copy keystroke and inspecting the
// clipboard, without permanently clobbering the user's clipboard.
package capture

import (
	"bytes"
	"context"
	"log"
	"runtime"
	"time"

	"github.com/micmonay/keybd_event"
	"golang.design/x/clipboard"
)

// Capturer abstracts selection capture so the orchestrator and its tests
// never touch the real clipboard.
type Capturer interface {
	// Capture returns the selected text, best effort. simulateCopy=false
	// skips keystroke synthesis and just reads the existing clipboard.
	// Capture never fails; any platform error falls back to the
	// pre-capture clipboard value.
	Capture(ctx context.Context, simulateCopy bool) string
}

const (
	// Time the OS gets to deliver the synthesized copy to the clipboard.
	settleDelay = 220 * time.Millisecond
	// The prior clipboard is restored shortly after, fire-and-forget.
	restoreDelay = 30 * time.Millisecond
)

// Init prepares the clipboard backend. Must be called once before the
// first Capture; returns an error when no clipboard is available (for
// example a headless session).
func Init() error {
	return clipboard.Init()
}

// ClipboardCapturer is the production Capturer.
type ClipboardCapturer struct{}

func NewClipboardCapturer() *ClipboardCapturer {
	return &ClipboardCapturer{}
}

func (c *ClipboardCapturer) Capture(ctx context.Context, simulateCopy bool) string {
	prior := clipboard.Read(clipboard.FmtText)
	if !simulateCopy {
		return string(prior)
	}

	if err := sendCopyChord(); err != nil {
		log.Printf("capture: copy keystroke failed: %v", err)
		return string(prior)
	}

	select {
	case <-time.After(settleDelay):
	case <-ctx.Done():
		return string(prior)
	}

	current := clipboard.Read(clipboard.FmtText)
	if len(current) == 0 || bytes.Equal(current, prior) {
		// Nothing selected, or the copy never landed.
		return string(prior)
	}

	snapshot := append([]byte(nil), prior...)
	time.AfterFunc(restoreDelay, func() {
		clipboard.Write(clipboard.FmtText, snapshot)
	})

	return string(current)
}

func sendCopyChord() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_C)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return kb.Launching()
}
