package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/interop-agent/pkg/match"
	"github.com/morezero/interop-agent/pkg/platform"
)

const broadcastLogPrefix = "agent:broadcast"

// Broadcast fans c out to every registered context-listener method on every
// platform. Delivery is fire-and-forget: one detached task per platform,
// failures observed and discarded, no ordering between platforms and no
// acknowledgment to the caller. Only argument validation can fail.
func (a *DesktopAgent) Broadcast(ctx context.Context, c *platform.Context) error {
	if c == nil {
		return NewAgentError(CodeInvalidArgument, "context is required")
	}

	for _, p := range a.platforms {
		// Detach from the caller's cancellation: broadcast outcome is
		// unobserved by design.
		go a.deliverContext(context.WithoutCancel(ctx), p, c)
	}
	return nil
}

// deliverContext delivers c to every context-listener method on one platform.
func (a *DesktopAgent) deliverContext(ctx context.Context, p *platform.Platform, c *platform.Context) {
	methods, err := p.Session.DiscoverMethods(ctx)
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - discovery on %s failed, dropping delivery: %v", broadcastLogPrefix, p.Name, err))
		return
	}
	for _, m := range match.ByName(methods, p.ContextListenerMethod) {
		if _, err := p.Session.Invoke(ctx, m.Name, c); err != nil {
			slog.Debug(fmt.Sprintf("%s - delivery to %s on %s failed: %v", broadcastLogPrefix, m.Name, p.Name, err))
		}
	}
}
