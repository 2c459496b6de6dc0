package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/morezero/interop-agent/pkg/platform"
)

const busLogPrefix = "agent:bus"

// defaultRetryInterval is the fixed delay between connection attempts to a
// platform that is not yet reachable.
const defaultRetryInterval = 2 * time.Second

// BusConfig configures the bus factory.
type BusConfig struct {
	// Identity is presented to every platform at connect time.
	Identity platform.AppIdentity
	// Descriptors lists the platforms to connect, in iteration order.
	Descriptors []platform.Descriptor
	// Methods are pre-registered on every platform at connect time.
	Methods []platform.MethodImpl
	// RetryInterval overrides the fixed connection retry delay.
	RetryInterval time.Duration
}

// Connect validates the descriptor set, connects every platform concurrently
// (retrying each on a fixed interval until it succeeds or ctx is canceled)
// and assembles the routing engine. It returns only once every platform is
// connected.
func Connect(ctx context.Context, cfg BusConfig) (*DesktopAgent, error) {
	if len(cfg.Descriptors) == 0 {
		return nil, NewAgentError(CodeInvalidArgument, "at least one platform descriptor is required")
	}

	seen := make(map[string]bool, len(cfg.Descriptors))
	for _, d := range cfg.Descriptors {
		if d.Type == "" {
			return nil, NewAgentError(CodeInvalidArgument, "platform descriptor with empty type")
		}
		if seen[d.Type] {
			return nil, NewAgentError(CodeDuplicatePlatform,
				fmt.Sprintf("duplicate platform type %q in configuration", d.Type))
		}
		seen[d.Type] = true
		if d.Transport == nil {
			return nil, NewAgentError(CodeInvalidArgument,
				fmt.Sprintf("platform %q has no transport", d.Type))
		}
	}

	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = defaultRetryInterval
	}

	handles := make([]*platform.Platform, len(cfg.Descriptors))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range cfg.Descriptors {
		i, d := i, d.Normalized()
		g.Go(func() error {
			sess, err := connectWithRetry(gctx, d, cfg.Identity, cfg.Methods, interval)
			if err != nil {
				return err
			}
			if d.Version != "" {
				if _, verr := semver.NewVersion(d.Version); verr != nil {
					slog.Warn(fmt.Sprintf("%s - platform %q reports non-semver version %q", busLogPrefix, d.Name, d.Version))
				}
			}
			handles[i] = &platform.Platform{
				Name:                  d.Name,
				Version:               d.Version,
				Online:                true,
				Status:                platform.StatusConnected,
				ListAppsMethod:        d.ListAppsMethod,
				StartAppMethod:        d.StartAppMethod,
				ContextListenerMethod: d.ContextListenerMethod,
				Session:               sess,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, h := range handles {
			if h != nil && h.Session != nil {
				h.Session.Close()
			}
		}
		return nil, err
	}

	slog.Info(fmt.Sprintf("%s - connected %d platforms", busLogPrefix, len(handles)))
	return &DesktopAgent{
		platforms: handles,
		identity:  cfg.Identity,
		registry:  newCallbackRegistry(),
	}, nil
}

// connectWithRetry attempts the platform connection on a fixed interval with
// no attempt bound. The retry timer stops the instant a connection succeeds.
func connectWithRetry(ctx context.Context, d platform.Descriptor, identity platform.AppIdentity, methods []platform.MethodImpl, interval time.Duration) (platform.Session, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		sess, err := d.Transport.Connect(ctx, identity, methods)
		if err == nil {
			slog.Info(fmt.Sprintf("%s - connected platform %q (attempt %d)", busLogPrefix, d.Name, attempt))
			return sess, nil
		}
		slog.Warn(fmt.Sprintf("%s - connect to %q failed (attempt %d): %v", busLogPrefix, d.Name, attempt, err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s - connect to %q aborted: %w", busLogPrefix, d.Name, ctx.Err())
		case <-ticker.C:
		}
	}
}
