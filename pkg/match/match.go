// Package match holds the pure filtering and aggregation functions behind
// intent and application resolution. Nothing here performs I/O; callers feed
// in freshly discovered method snapshots and apply cardinality policy on the
// results.
package match

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/morezero/interop-agent/pkg/platform"
)

// ContextEqual reports whether two contexts are structurally equal: same
// type, name, id entries and extension fields, regardless of key order. A
// nil map and an empty map compare equal; differing values do not.
func ContextEqual(a, b *platform.Context) bool {
	if a == nil || b == nil {
		return a == b
	}
	return cmp.Equal(*a, *b, cmpopts.EquateEmpty())
}

// Candidate pairs a discovered method with one of its declared intents.
type Candidate struct {
	Method platform.Method
	Intent platform.IntentDecl
}

// IntentCandidates returns one candidate per declared intent whose name
// equals intent and, when ctx is non-nil, whose declared context is
// structurally equal to ctx. Input order is preserved; duplicates are kept.
func IntentCandidates(methods []platform.Method, intent string, ctx *platform.Context) []Candidate {
	var out []Candidate
	for _, m := range methods {
		for _, decl := range m.Intents {
			if decl.Name != intent {
				continue
			}
			if ctx != nil && !ContextEqual(decl.Context, ctx) {
				continue
			}
			out = append(out, Candidate{Method: m, Intent: decl})
		}
	}
	return out
}

// ContextCandidates returns one candidate per declared intent that accepts
// ctx (structural equality), across all intent names. Input order is
// preserved.
func ContextCandidates(methods []platform.Method, ctx *platform.Context) []Candidate {
	var out []Candidate
	for _, m := range methods {
		for _, decl := range m.Intents {
			if !ContextEqual(decl.Context, ctx) {
				continue
			}
			out = append(out, Candidate{Method: m, Intent: decl})
		}
	}
	return out
}

// ByIntentName filters methods to those declaring the intent by name alone.
func ByIntentName(methods []platform.Method, intent string) []platform.Method {
	var out []platform.Method
	for _, m := range methods {
		for _, decl := range m.Intents {
			if decl.Name == intent {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// ByPeer filters methods to those registered by the named application.
func ByPeer(methods []platform.Method, app string) []platform.Method {
	var out []platform.Method
	for _, m := range methods {
		if m.Peer.ApplicationName == app {
			out = append(out, m)
		}
	}
	return out
}

// ByName filters methods to those with the given method name.
func ByName(methods []platform.Method, name string) []platform.Method {
	var out []platform.Method
	for _, m := range methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// HasMethod reports whether any method carries the given name.
func HasMethod(methods []platform.Method, name string) bool {
	for _, m := range methods {
		if m.Name == name {
			return true
		}
	}
	return false
}
