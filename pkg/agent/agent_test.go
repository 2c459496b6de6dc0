package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/morezero/interop-agent/pkg/platform"
)

// fakeSession is an in-memory Session for driving the engine in tests.
type fakeSession struct {
	mu            sync.Mutex
	methods       []platform.Method
	discoverErr   error
	invoked       []fakeInvocation
	invokeResults map[string]json.RawMessage
	invokeErrs    map[string]error
	registered    []platform.MethodImpl
	registerErr   error
	hooks         []func(platform.Method)
}

type fakeInvocation struct {
	method string
	args   any
}

func (s *fakeSession) DiscoverMethods(_ context.Context) ([]platform.Method, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.discoverErr != nil {
		return nil, s.discoverErr
	}
	out := make([]platform.Method, len(s.methods))
	copy(out, s.methods)
	return out, nil
}

func (s *fakeSession) Invoke(_ context.Context, method string, args any) (*platform.InvokeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoked = append(s.invoked, fakeInvocation{method: method, args: args})
	if err := s.invokeErrs[method]; err != nil {
		return nil, err
	}
	return &platform.InvokeResult{Result: s.invokeResults[method]}, nil
}

func (s *fakeSession) Register(_ context.Context, impl platform.MethodImpl) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.registerErr != nil {
		return s.registerErr
	}
	s.registered = append(s.registered, impl)
	s.methods = append(s.methods, impl.Method)
	return nil
}

func (s *fakeSession) OnMethodRegistered(fn func(platform.Method)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *fakeSession) Close() error { return nil }

// announce simulates the platform reporting a newly registered remote method.
func (s *fakeSession) announce(m platform.Method) {
	s.mu.Lock()
	hooks := make([]func(platform.Method), len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(m)
	}
}

func (s *fakeSession) invocations() []fakeInvocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]fakeInvocation, len(s.invoked))
	copy(out, s.invoked)
	return out
}

func (s *fakeSession) hookCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hooks)
}

// fakeTransport fails a configured number of connect attempts before
// producing its session.
type fakeTransport struct {
	mu       sync.Mutex
	session  *fakeSession
	failures int
	attempts int
}

func (t *fakeTransport) Connect(_ context.Context, _ platform.AppIdentity, methods []platform.MethodImpl) (platform.Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	if t.attempts <= t.failures {
		return nil, fmt.Errorf("platform not ready (attempt %d)", t.attempts)
	}
	for _, m := range methods {
		t.session.methods = append(t.session.methods, m.Method)
		t.session.registered = append(t.session.registered, m)
	}
	return t.session, nil
}

func (t *fakeTransport) attemptCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		invokeResults: make(map[string]json.RawMessage),
		invokeErrs:    make(map[string]error),
	}
}

func newTestPlatform(name string, s *fakeSession) *platform.Platform {
	return &platform.Platform{
		Name:                  name,
		Version:               "1.0.0",
		Online:                true,
		Status:                platform.StatusConnected,
		ListAppsMethod:        platform.DefaultListAppsMethod,
		StartAppMethod:        platform.DefaultStartAppMethod,
		ContextListenerMethod: platform.DefaultContextListenerMethod,
		Session:               s,
	}
}

func newTestAgent(platforms ...*platform.Platform) *DesktopAgent {
	return &DesktopAgent{
		platforms: platforms,
		identity:  platform.AppIdentity{ApplicationName: "test-agent"},
		registry:  newCallbackRegistry(),
	}
}

func methodFor(app, name string, intents ...platform.IntentDecl) platform.Method {
	return platform.Method{
		Name:    name,
		Intents: intents,
		Peer:    platform.Peer{ApplicationName: app},
	}
}

func wantAgentError(t *testing.T, prefix string, err error, code string) *AgentError {
	t.Helper()
	if err == nil {
		t.Fatalf("%s - expected error with code %s, got nil", prefix, code)
	}
	agentErr, ok := err.(*AgentError)
	if !ok {
		t.Fatalf("%s - expected *AgentError, got %T: %v", prefix, err, err)
	}
	if agentErr.Code != code {
		t.Fatalf("%s - expected code %s, got %s (%s)", prefix, code, agentErr.Code, agentErr.Message)
	}
	return agentErr
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, prefix string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s - condition not met before deadline", prefix)
}
