package events

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// RuntimeEmitter emits events through the wails runtime. It no-ops until
// Startup has been called with the application context, so services created
// before the window exists can hold it safely.
type RuntimeEmitter struct {
	ctx context.Context
}

func NewRuntimeEmitter() *RuntimeEmitter {
	return &RuntimeEmitter{}
}

func (e *RuntimeEmitter) Startup(ctx context.Context) {
	e.ctx = ctx
}

func (e *RuntimeEmitter) Emit(name string, payload any) {
	if e.ctx == nil {
		return
	}
	runtime.EventsEmit(e.ctx, name, payload)
}
