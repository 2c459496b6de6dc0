// Package platform defines the capability contract every interop platform
// exposes to the routing engine, plus the handle the engine keeps per
// connected platform.
package platform

import (
	"context"
	"encoding/json"
)

// Method is one remote-invocable capability as reported by a platform's
// discovery call. Snapshots are volatile: the engine re-fetches them on every
// resolution and never mutates them.
type Method struct {
	Name    string       `json:"name"`
	Intents []IntentDecl `json:"intent,omitempty"`
	Peer    Peer         `json:"peer"`
}

// IntentDecl declares that a method serves a named intent, optionally scoped
// to a specific context shape.
type IntentDecl struct {
	Name    string   `json:"name"`
	Context *Context `json:"context,omitempty"`
}

// Peer identifies the application that registered a method.
type Peer struct {
	ApplicationName string `json:"applicationName"`
}

// AppIdentity identifies the local application when connecting to a platform.
type AppIdentity struct {
	ApplicationName string `json:"applicationName"`
	Instance        string `json:"instance,omitempty"`
}

// InvokeResult carries the payload returned by a remote invocation.
type InvokeResult struct {
	Result json.RawMessage `json:"result,omitempty"`
}

// InvocationHandler handles an incoming invocation of a locally registered
// method. Args is the raw JSON payload the caller passed to invoke.
type InvocationHandler func(ctx context.Context, args json.RawMessage) (any, error)

// MethodImpl is a locally implemented method offered to a platform via
// register (or pre-registered at connect time).
type MethodImpl struct {
	Method
	Handler InvocationHandler `json:"-"`
}

// Transport establishes sessions against one interop platform.
type Transport interface {
	Connect(ctx context.Context, identity AppIdentity, methods []MethodImpl) (Session, error)
}

// Session is the uniform low-level capability surface of a connected
// platform: method discovery, invocation, registration, and
// registration-change notification. A hung remote call hangs the caller;
// timeout policy belongs to the implementation, not to consumers.
type Session interface {
	DiscoverMethods(ctx context.Context) ([]Method, error)
	Invoke(ctx context.Context, method string, args any) (*InvokeResult, error)
	Register(ctx context.Context, impl MethodImpl) error
	OnMethodRegistered(fn func(Method))
	Close() error
}
