package surface

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"glance/internal/events"
)

const (
	popupWidth   = 420
	popupHeight  = 280
	screenMargin = 16
	cursorOffset = 12
)

// Window implements Surface over the wails runtime. Every method no-ops
// until Startup delivers the application context and after Shutdown, so
// late results land harmlessly.
type Window struct {
	mu  sync.RWMutex
	ctx context.Context
}

func NewWindow() *Window {
	return &Window{}
}

func (w *Window) Startup(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = ctx
}

func (w *Window) Shutdown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctx = nil
}

func (w *Window) context() context.Context {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ctx
}

func (w *Window) ShowNearCursor() {
	ctx := w.context()
	if ctx == nil {
		return
	}

	x, y := w.anchor(ctx)
	runtime.WindowSetPosition(ctx, x, y)
	runtime.WindowShow(ctx)
	// WindowShow does not activate the app on every platform; without
	// this the popup can appear behind the foreground window.
	runtime.Show(ctx)
}

// anchor picks the popup's top-left corner: next to the pointer when the
// platform exposes it, else centered on the current screen. Clamped so
// the popup stays fully on screen with a fixed margin.
func (w *Window) anchor(ctx context.Context) (int, int) {
	screenW, screenH := currentScreenSize(ctx)

	x, y, ok := cursorPos()
	if !ok {
		return (screenW - popupWidth) / 2, (screenH - popupHeight) / 2
	}
	x += cursorOffset
	y += cursorOffset

	if max := screenW - popupWidth - screenMargin; x > max {
		x = max
	}
	if max := screenH - popupHeight - screenMargin; y > max {
		y = max
	}
	if x < screenMargin {
		x = screenMargin
	}
	if y < screenMargin {
		y = screenMargin
	}
	return x, y
}

func currentScreenSize(ctx context.Context) (int, int) {
	screens, err := runtime.ScreenGetAll(ctx)
	if err != nil || len(screens) == 0 {
		return 1920, 1080
	}
	chosen := screens[0]
	for _, s := range screens {
		if s.IsCurrent {
			chosen = s
			break
		}
		if s.IsPrimary {
			chosen = s
		}
	}
	if chosen.Size.Width > 0 && chosen.Size.Height > 0 {
		return chosen.Size.Width, chosen.Size.Height
	}
	return 1920, 1080
}

func (w *Window) Hide() {
	ctx := w.context()
	if ctx == nil {
		return
	}
	runtime.WindowHide(ctx)
}

func (w *Window) StartFadeOut() {
	ctx := w.context()
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, events.StartFadeOut)
}

func (w *Window) Push(payload events.SummaryPayload) {
	ctx := w.context()
	if ctx == nil {
		return
	}
	runtime.EventsEmit(ctx, events.SummaryResult, payload)
}
