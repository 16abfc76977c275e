// Package surface abstracts the popup window so the lifecycle machine
// and orchestrator never talk to the windowing runtime directly.
package surface

import "glance/internal/events"

// Surface is the capability set the core needs from the popup window.
// Implementations must tolerate calls after the window is torn down by
// silently doing nothing, since late provider results are still delivered.
type Surface interface {
	// ShowNearCursor positions the popup near the pointer, clamped to
	// the active display's work area, shows it and focuses it.
	ShowNearCursor()
	Hide()
	// StartFadeOut asks the window to begin its visual fade; the window
	// invokes the lifecycle's finalize step when the animation ends.
	StartFadeOut()
	// Push delivers a summary-result payload to the window.
	Push(payload events.SummaryPayload)
}
