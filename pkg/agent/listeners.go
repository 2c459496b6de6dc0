package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/morezero/interop-agent/pkg/platform"
)

const listenersLogPrefix = "agent:listeners"

// Callback channels of the local registry.
const (
	channelAddIntent  = "add-intent"
	channelAddContext = "add-context"
)

// callbackRegistry is the engine's only mutable shared state: callbacks keyed
// by channel. Dispatch takes a snapshot under the read lock and invokes
// callbacks outside it, so registration and removal mid-dispatch cannot
// corrupt an in-flight broadcast.
type callbackRegistry struct {
	mu       sync.RWMutex
	channels map[string]map[string]ContextHandler
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{channels: make(map[string]map[string]ContextHandler)}
}

func (r *callbackRegistry) add(channel string, fn ContextHandler) string {
	id := uuid.NewString()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.channels[channel] == nil {
		r.channels[channel] = make(map[string]ContextHandler)
	}
	r.channels[channel][id] = fn
	return id
}

func (r *callbackRegistry) remove(channel, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels[channel], id)
}

func (r *callbackRegistry) dispatch(channel string, c *platform.Context) {
	r.mu.RLock()
	snapshot := make([]ContextHandler, 0, len(r.channels[channel]))
	for _, fn := range r.channels[channel] {
		snapshot = append(snapshot, fn)
	}
	r.mu.RUnlock()

	for _, fn := range snapshot {
		fn(c)
	}
}

// AddIntentListener registers handler for the named intent. For every
// platform a registration-change hook is installed: whenever a platform
// reports a newly registered method declaring the intent, every callback on
// the add-intent channel receives that declaration's context.
//
// Unsubscribe removes only the local callback; the per-platform hooks stay
// installed for the life of the engine.
func (a *DesktopAgent) AddIntentListener(intent string, handler ContextHandler) (*Listener, error) {
	if intent == "" {
		return nil, NewAgentError(CodeInvalidArgument, "intent name is required")
	}
	if handler == nil {
		return nil, NewAgentError(CodeInvalidArgument, "handler is required")
	}

	id := a.registry.add(channelAddIntent, handler)
	for _, p := range a.platforms {
		p.Session.OnMethodRegistered(func(m platform.Method) {
			for _, decl := range m.Intents {
				if decl.Name == intent {
					a.registry.dispatch(channelAddIntent, decl.Context)
				}
			}
		})
	}
	return &Listener{unsubscribe: func() { a.registry.remove(channelAddIntent, id) }}, nil
}

// AddContextListener registers handler for broadcast contexts. A
// context-listener method, named per each platform's convention, is
// registered on every platform; its invocations feed the received context to
// every callback on the add-context channel. Per-platform registration
// failures degrade silently so one platform's outage cannot block the rest.
//
// Unsubscribe removes only the local callback; the registered platform
// methods stay in place for the life of the engine.
func (a *DesktopAgent) AddContextListener(ctx context.Context, handler ContextHandler) (*Listener, error) {
	if handler == nil {
		return nil, NewAgentError(CodeInvalidArgument, "handler is required")
	}

	id := a.registry.add(channelAddContext, handler)
	for _, p := range a.platforms {
		impl := platform.MethodImpl{
			Method: platform.Method{
				Name: p.ContextListenerMethod,
				Peer: platform.Peer{ApplicationName: a.identity.ApplicationName},
			},
			Handler: func(_ context.Context, args json.RawMessage) (any, error) {
				var c platform.Context
				if err := json.Unmarshal(args, &c); err != nil {
					return nil, fmt.Errorf("decode broadcast context: %w", err)
				}
				a.registry.dispatch(channelAddContext, &c)
				return nil, nil
			},
		}
		if err := p.Session.Register(ctx, impl); err != nil {
			slog.Warn(fmt.Sprintf("%s - register context listener on %s failed: %v", listenersLogPrefix, p.Name, err))
		}
	}
	return &Listener{unsubscribe: func() { a.registry.remove(channelAddContext, id) }}, nil
}
