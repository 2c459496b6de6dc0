package agent

import (
	"github.com/morezero/interop-agent/pkg/platform"
)

// DesktopAgent routes intents and contexts across the connected platforms.
// Platform iteration order is the descriptor order given to Connect and is
// part of the resolution semantics (see RaiseIntent).
type DesktopAgent struct {
	platforms []*platform.Platform
	identity  platform.AppIdentity
	registry  *callbackRegistry
}

// Platforms returns the connected platform handles in iteration order.
func (a *DesktopAgent) Platforms() []*platform.Platform {
	out := make([]*platform.Platform, len(a.platforms))
	copy(out, a.platforms)
	return out
}

// Close closes every platform session.
func (a *DesktopAgent) Close() {
	for _, p := range a.platforms {
		if p.Session != nil {
			p.Session.Close()
		}
	}
}
