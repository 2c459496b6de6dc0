package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/morezero/interop-agent/pkg/agent"
	"github.com/morezero/interop-agent/pkg/platform"
)

const logPrefix = "dispatcher:dispatch"

// AgentAPI is the surface of the desktop agent the dispatcher routes to.
// Listener registration is deliberately absent: callbacks do not cross the
// serialization boundary.
type AgentAPI interface {
	Open(ctx context.Context, app string, c *platform.Context) (*platform.InvokeResult, error)
	FindIntent(ctx context.Context, intent string, c *platform.Context) (*agent.AppIntent, error)
	FindIntentsByContext(ctx context.Context, c *platform.Context) ([]agent.AppIntent, error)
	RaiseIntent(ctx context.Context, intent string, c *platform.Context, target string) (*platform.InvokeResult, error)
	Broadcast(ctx context.Context, c *platform.Context) error
	Health() *agent.HealthStatus
}

// Dispatcher routes COMMS requests to agent methods.
type Dispatcher struct {
	agent AgentAPI
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(a AgentAPI) *Dispatcher {
	return &Dispatcher{agent: a}
}

// Dispatch routes a request to the appropriate agent method and returns a
// response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *AgentRequest) *AgentResponse {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", logPrefix, req.Method, req.ID))

	switch req.Method {
	case "open":
		return d.handleOpen(ctx, req)
	case "findIntent":
		return d.handleFindIntent(ctx, req)
	case "findIntentsByContext":
		return d.handleFindIntentsByContext(ctx, req)
	case "raiseIntent":
		return d.handleRaiseIntent(ctx, req)
	case "broadcast":
		return d.handleBroadcast(ctx, req)
	case "health":
		return &AgentResponse{ID: req.ID, Ok: true, Result: d.agent.Health()}
	case "addIntentListener", "addContextListener":
		return errorResponse(req.ID, "METHOD_NOT_FOUND",
			fmt.Sprintf("%s is in-process only; callbacks do not serialize", req.Method), false)
	default:
		return errorResponse(req.ID, "METHOD_NOT_FOUND",
			fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (d *Dispatcher) handleOpen(ctx context.Context, req *AgentRequest) *AgentResponse {
	var params OpenParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, agent.CodeInvalidArgument, "Failed to parse open params", false)
	}
	result, err := d.agent.Open(ctx, params.App, params.Context)
	if err != nil {
		return agentErrorToResponse(req.ID, err)
	}
	return &AgentResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleFindIntent(ctx context.Context, req *AgentRequest) *AgentResponse {
	var params FindIntentParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, agent.CodeInvalidArgument, "Failed to parse findIntent params", false)
	}
	result, err := d.agent.FindIntent(ctx, params.Intent, params.Context)
	if err != nil {
		return agentErrorToResponse(req.ID, err)
	}
	return &AgentResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleFindIntentsByContext(ctx context.Context, req *AgentRequest) *AgentResponse {
	var params FindIntentsByContextParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, agent.CodeInvalidArgument, "Failed to parse findIntentsByContext params", false)
	}
	result, err := d.agent.FindIntentsByContext(ctx, params.Context)
	if err != nil {
		return agentErrorToResponse(req.ID, err)
	}
	return &AgentResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleRaiseIntent(ctx context.Context, req *AgentRequest) *AgentResponse {
	var params RaiseIntentParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, agent.CodeInvalidArgument, "Failed to parse raiseIntent params", false)
	}
	result, err := d.agent.RaiseIntent(ctx, params.Intent, params.Context, params.Target)
	if err != nil {
		return agentErrorToResponse(req.ID, err)
	}
	return &AgentResponse{ID: req.ID, Ok: true, Result: result}
}

func (d *Dispatcher) handleBroadcast(ctx context.Context, req *AgentRequest) *AgentResponse {
	var params BroadcastParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, agent.CodeInvalidArgument, "Failed to parse broadcast params", false)
	}
	if err := d.agent.Broadcast(ctx, params.Context); err != nil {
		return agentErrorToResponse(req.ID, err)
	}
	return &AgentResponse{ID: req.ID, Ok: true}
}

// --- helpers ---

func errorResponse(id, code, message string, retryable bool) *AgentResponse {
	return &AgentResponse{
		ID: id,
		Ok: false,
		Error: &ErrorDetail{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}

func agentErrorToResponse(id string, err error) *AgentResponse {
	if agentErr, ok := err.(*agent.AgentError); ok {
		retryable := agentErr.Code == agent.CodeInternal || agentErr.Code == agent.CodeDeliveryFailed
		return &AgentResponse{
			ID: id,
			Ok: false,
			Error: &ErrorDetail{
				Code:      agentErr.Code,
				Message:   agentErr.Message,
				Details:   agentErr.Details,
				Retryable: retryable,
			},
		}
	}
	return errorResponse(id, agent.CodeInternal, err.Error(), true)
}
