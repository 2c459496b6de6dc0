// Package agent implements the DesktopAgent routing engine: application
// launch, intent resolution, context broadcast and listener registration over
// a set of connected interop platforms.
package agent

import (
	"time"

	"github.com/morezero/interop-agent/pkg/platform"
)

// IntentMetadata describes a resolvable intent.
type IntentMetadata struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// AppMetadata identifies an application able to service an intent.
type AppMetadata struct {
	Name string `json:"name"`
}

// AppIntent is an aggregation result: one intent and the applications, across
// all platforms, that can service it. Rebuilt on every query, never cached.
type AppIntent struct {
	Intent IntentMetadata `json:"intent"`
	Apps   []AppMetadata  `json:"apps"`
}

// ContextHandler receives a context delivered to a local listener.
type ContextHandler func(ctx *platform.Context)

// Listener is the handle returned by listener registration. Unsubscribe
// removes exactly the callback this handle was created for; per-platform
// forwarding hooks installed alongside it stay in place for the life of the
// engine.
type Listener struct {
	unsubscribe func()
}

// Unsubscribe removes the callback. A Listener is not re-armable; calling
// Unsubscribe again is a no-op.
func (l *Listener) Unsubscribe() {
	l.unsubscribe()
}

// OpenArgs is the payload sent to a platform's start-application method.
type OpenArgs struct {
	Application string            `json:"application"`
	Context     *platform.Context `json:"context,omitempty"`
}

// HealthStatus reports engine health for the RPC surface.
type HealthStatus struct {
	Status    string           `json:"status"`
	Platforms []PlatformHealth `json:"platforms"`
	Timestamp string           `json:"timestamp"`
}

// PlatformHealth is one platform's connection snapshot.
type PlatformHealth struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Online  bool   `json:"online"`
	Status  string `json:"status"`
}

// Health reports the connection snapshot of every platform.
func (a *DesktopAgent) Health() *HealthStatus {
	out := &HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for _, p := range a.platforms {
		out.Platforms = append(out.Platforms, PlatformHealth{
			Name:    p.Name,
			Version: p.Version,
			Online:  p.Online,
			Status:  string(p.Status),
		})
		if !p.Online {
			out.Status = "degraded"
		}
	}
	return out
}
