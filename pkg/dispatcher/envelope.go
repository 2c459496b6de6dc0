// Package dispatcher routes incoming COMMS messages to agent methods.
package dispatcher

import (
	"encoding/json"

	"github.com/morezero/interop-agent/pkg/platform"
)

// AgentRequest is the JSON envelope for incoming COMMS agent requests.
type AgentRequest struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// AgentResponse is the JSON envelope for COMMS agent responses.
type AgentResponse struct {
	ID     string       `json:"id"`
	Ok     bool         `json:"ok"`
	Result interface{}  `json:"result,omitempty"`
	Error  *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// OpenParams carries the open method arguments.
type OpenParams struct {
	App     string            `json:"app"`
	Context *platform.Context `json:"context,omitempty"`
}

// FindIntentParams carries the findIntent method arguments.
type FindIntentParams struct {
	Intent  string            `json:"intent"`
	Context *platform.Context `json:"context,omitempty"`
}

// FindIntentsByContextParams carries the findIntentsByContext arguments.
type FindIntentsByContextParams struct {
	Context *platform.Context `json:"context"`
}

// RaiseIntentParams carries the raiseIntent method arguments.
type RaiseIntentParams struct {
	Intent  string            `json:"intent"`
	Context *platform.Context `json:"context"`
	Target  string            `json:"target,omitempty"`
}

// BroadcastParams carries the broadcast method arguments.
type BroadcastParams struct {
	Context *platform.Context `json:"context"`
}
