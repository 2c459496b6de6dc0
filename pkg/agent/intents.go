package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/morezero/interop-agent/pkg/match"
	"github.com/morezero/interop-agent/pkg/platform"
)

// discoverAll fans discovery out to every platform concurrently, keeping
// results addressed by platform index so aggregation can walk iteration
// order deterministically.
func (a *DesktopAgent) discoverAll(ctx context.Context) ([][]platform.Method, error) {
	snapshots := make([][]platform.Method, len(a.platforms))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range a.platforms {
		i, p := i, p
		g.Go(func() error {
			methods, err := p.Session.DiscoverMethods(gctx)
			if err != nil {
				return fmt.Errorf("discovery on platform %q: %w", p.Name, err)
			}
			snapshots[i] = methods
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// FindIntent returns every application, across all platforms, with a method
// declaring the intent. When c is non-nil, declarations whose context is not
// structurally equal to c are excluded. Apps appear in platform-then-method
// order and duplicates are kept.
func (a *DesktopAgent) FindIntent(ctx context.Context, intent string, c *platform.Context) (*AppIntent, error) {
	if intent == "" {
		return nil, NewAgentError(CodeInvalidArgument, "intent name is required")
	}

	snapshots, err := a.discoverAll(ctx)
	if err != nil {
		return nil, NewAgentError(CodeInternal, err.Error())
	}

	apps := make([]AppMetadata, 0)
	for _, methods := range snapshots {
		for _, cand := range match.IntentCandidates(methods, intent, c) {
			apps = append(apps, AppMetadata{Name: cand.Method.Peer.ApplicationName})
		}
	}
	return &AppIntent{
		Intent: IntentMetadata{Name: intent, DisplayName: intent},
		Apps:   apps,
	}, nil
}

// FindIntentsByContext aggregates, across all platforms, the intents whose
// declared context is structurally equal to c, grouped by intent name in
// first-seen order.
func (a *DesktopAgent) FindIntentsByContext(ctx context.Context, c *platform.Context) ([]AppIntent, error) {
	if c == nil {
		return nil, NewAgentError(CodeInvalidArgument, "context is required")
	}

	snapshots, err := a.discoverAll(ctx)
	if err != nil {
		return nil, NewAgentError(CodeInternal, err.Error())
	}

	index := make(map[string]int)
	out := make([]AppIntent, 0)
	for _, methods := range snapshots {
		for _, cand := range match.ContextCandidates(methods, c) {
			app := AppMetadata{Name: cand.Method.Peer.ApplicationName}
			if i, ok := index[cand.Intent.Name]; ok {
				out[i].Apps = append(out[i].Apps, app)
				continue
			}
			index[cand.Intent.Name] = len(out)
			out = append(out, AppIntent{
				Intent: IntentMetadata{Name: cand.Intent.Name, DisplayName: cand.Intent.Name},
				Apps:   []AppMetadata{app},
			})
		}
	}
	return out, nil
}

// RaiseIntent resolves the intent to a single invocable method and invokes it
// with c, returning the invocation's result payload.
//
// The platform scan is strictly sequential: the first platform in iteration
// order with any intent-name match wins, and later platforms are never
// consulted, so cross-platform ambiguity is not detected. Within the winning
// platform exactly one candidate must remain after the optional target
// filter.
func (a *DesktopAgent) RaiseIntent(ctx context.Context, intent string, c *platform.Context, target string) (*platform.InvokeResult, error) {
	if intent == "" {
		return nil, NewAgentError(CodeInvalidArgument, "intent name is required")
	}
	if c == nil {
		return nil, NewAgentError(CodeInvalidArgument, "context is required")
	}

	for _, p := range a.platforms {
		methods, err := p.Session.DiscoverMethods(ctx)
		if err != nil {
			return nil, NewAgentError(CodeDeliveryFailed,
				fmt.Sprintf("discovery on platform %q failed: %v", p.Name, err))
		}
		candidates := match.ByIntentName(methods, intent)
		if len(candidates) == 0 {
			continue
		}
		if target != "" {
			candidates = match.ByPeer(candidates, target)
		}
		switch len(candidates) {
		case 0:
			return nil, NewAgentError(CodeIntentNotFound,
				fmt.Sprintf("no method found for intent %q", intent))
		case 1:
			res, err := p.Session.Invoke(ctx, candidates[0].Name, c)
			if err != nil {
				return nil, NewAgentError(CodeDeliveryFailed,
					fmt.Sprintf("invoking intent %q on platform %q failed: %v", intent, p.Name, err))
			}
			return res, nil
		default:
			return nil, NewAgentError(CodeIntentAmbiguous,
				fmt.Sprintf("multiple applications found for intent %q", intent))
		}
	}
	return nil, NewAgentError(CodeIntentNotFound, fmt.Sprintf("no method found for intent %q", intent))
}
