package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/morezero/interop-agent/pkg/agent"
	"github.com/morezero/interop-agent/pkg/platform"
)

const dispatcherTestPrefix = "dispatcher:dispatcher_test"

// stubAgent records calls and returns canned results.
type stubAgent struct {
	lastMethod string
	lastIntent string
	lastApp    string
	lastTarget string
	lastCtx    *platform.Context
	err        error
}

func (s *stubAgent) Open(_ context.Context, app string, c *platform.Context) (*platform.InvokeResult, error) {
	s.lastMethod, s.lastApp, s.lastCtx = "open", app, c
	if s.err != nil {
		return nil, s.err
	}
	return &platform.InvokeResult{Result: json.RawMessage(`{"pid":42}`)}, nil
}

func (s *stubAgent) FindIntent(_ context.Context, intent string, c *platform.Context) (*agent.AppIntent, error) {
	s.lastMethod, s.lastIntent, s.lastCtx = "findIntent", intent, c
	if s.err != nil {
		return nil, s.err
	}
	return &agent.AppIntent{Intent: agent.IntentMetadata{Name: intent, DisplayName: intent}}, nil
}

func (s *stubAgent) FindIntentsByContext(_ context.Context, c *platform.Context) ([]agent.AppIntent, error) {
	s.lastMethod, s.lastCtx = "findIntentsByContext", c
	return nil, s.err
}

func (s *stubAgent) RaiseIntent(_ context.Context, intent string, c *platform.Context, target string) (*platform.InvokeResult, error) {
	s.lastMethod, s.lastIntent, s.lastCtx, s.lastTarget = "raiseIntent", intent, c, target
	if s.err != nil {
		return nil, s.err
	}
	return &platform.InvokeResult{Result: json.RawMessage(`{"ok":true}`)}, nil
}

func (s *stubAgent) Broadcast(_ context.Context, c *platform.Context) error {
	s.lastMethod, s.lastCtx = "broadcast", c
	return s.err
}

func (s *stubAgent) Health() *agent.HealthStatus {
	s.lastMethod = "health"
	return &agent.HealthStatus{Status: "ok"}
}

func dispatch(t *testing.T, stub *stubAgent, method string, params string) *AgentResponse {
	t.Helper()
	d := NewDispatcher(stub)
	return d.Dispatch(context.Background(), &AgentRequest{
		ID:     "req-1",
		Method: method,
		Params: json.RawMessage(params),
	})
}

func TestDispatch_RoutesOpen(t *testing.T) {
	stub := &stubAgent{}
	resp := dispatch(t, stub, "open", `{"app":"chat:glue","context":{"type":"fdc3.contact"}}`)
	if !resp.Ok || stub.lastMethod != "open" || stub.lastApp != "chat:glue" {
		t.Errorf("%s - open not routed: %+v stub=%+v", dispatcherTestPrefix, resp, stub)
	}
	if stub.lastCtx == nil || stub.lastCtx.Type != "fdc3.contact" {
		t.Errorf("%s - context not decoded: %+v", dispatcherTestPrefix, stub.lastCtx)
	}
}

func TestDispatch_RoutesFindIntent(t *testing.T) {
	stub := &stubAgent{}
	resp := dispatch(t, stub, "findIntent", `{"intent":"ViewChart"}`)
	if !resp.Ok || stub.lastMethod != "findIntent" || stub.lastIntent != "ViewChart" {
		t.Errorf("%s - findIntent not routed: %+v", dispatcherTestPrefix, stub)
	}
	if stub.lastCtx != nil {
		t.Errorf("%s - absent context must decode to nil", dispatcherTestPrefix)
	}
}

func TestDispatch_RoutesFindIntentsByContext(t *testing.T) {
	stub := &stubAgent{}
	resp := dispatch(t, stub, "findIntentsByContext", `{"context":{"type":"fdc3.contact"}}`)
	if !resp.Ok || stub.lastMethod != "findIntentsByContext" {
		t.Errorf("%s - findIntentsByContext not routed: %+v", dispatcherTestPrefix, stub)
	}
}

func TestDispatch_RoutesRaiseIntentWithTarget(t *testing.T) {
	stub := &stubAgent{}
	resp := dispatch(t, stub, "raiseIntent", `{"intent":"ViewChart","context":{"type":"fdc3.instrument"},"target":"appB"}`)
	if !resp.Ok || stub.lastTarget != "appB" {
		t.Errorf("%s - raiseIntent target not routed: %+v", dispatcherTestPrefix, stub)
	}
}

func TestDispatch_RoutesBroadcastAndHealth(t *testing.T) {
	stub := &stubAgent{}
	if resp := dispatch(t, stub, "broadcast", `{"context":{"type":"fdc3.contact"}}`); !resp.Ok || stub.lastMethod != "broadcast" {
		t.Errorf("%s - broadcast not routed", dispatcherTestPrefix)
	}
	if resp := dispatch(t, stub, "health", `{}`); !resp.Ok || stub.lastMethod != "health" {
		t.Errorf("%s - health not routed", dispatcherTestPrefix)
	}
}

func TestDispatch_UnknownMethod(t *testing.T) {
	resp := dispatch(t, &stubAgent{}, "resolve", `{}`)
	if resp.Ok || resp.Error == nil || resp.Error.Code != "METHOD_NOT_FOUND" {
		t.Errorf("%s - expected METHOD_NOT_FOUND, got %+v", dispatcherTestPrefix, resp)
	}
}

func TestDispatch_ListenerMethodsRejected(t *testing.T) {
	resp := dispatch(t, &stubAgent{}, "addContextListener", `{}`)
	if resp.Ok || resp.Error == nil || resp.Error.Code != "METHOD_NOT_FOUND" {
		t.Errorf("%s - expected METHOD_NOT_FOUND for listener method, got %+v", dispatcherTestPrefix, resp)
	}
}

func TestDispatch_BadParams(t *testing.T) {
	resp := dispatch(t, &stubAgent{}, "open", `{not json`)
	if resp.Ok || resp.Error == nil || resp.Error.Code != agent.CodeInvalidArgument {
		t.Errorf("%s - expected INVALID_ARGUMENT, got %+v", dispatcherTestPrefix, resp)
	}
}

func TestDispatch_AgentErrorCodePassesThrough(t *testing.T) {
	stub := &stubAgent{err: agent.NewAgentError(agent.CodeAppNotFound, `no platform has an application named "chat"`)}
	resp := dispatch(t, stub, "open", `{"app":"chat"}`)
	if resp.Ok || resp.Error == nil {
		t.Fatalf("%s - expected error response, got %+v", dispatcherTestPrefix, resp)
	}
	if resp.Error.Code != agent.CodeAppNotFound || resp.Error.Retryable {
		t.Errorf("%s - error mapping wrong: %+v", dispatcherTestPrefix, resp.Error)
	}
}

func TestDispatch_InternalErrorsRetryable(t *testing.T) {
	stub := &stubAgent{err: agent.NewAgentError(agent.CodeInternal, "boom")}
	resp := dispatch(t, stub, "findIntent", `{"intent":"X"}`)
	if resp.Ok || resp.Error == nil || !resp.Error.Retryable {
		t.Errorf("%s - internal errors must be retryable: %+v", dispatcherTestPrefix, resp.Error)
	}
}
