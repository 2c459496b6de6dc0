package agent

import "fmt"

// Error codes returned by the agent surface. These are the public error
// vocabulary: every resolution failure carries one of these rather than a
// generic error.
const (
	CodeInvalidArgument   = "INVALID_ARGUMENT"
	CodeDuplicatePlatform = "DUPLICATE_PLATFORM"
	CodePlatformNotFound  = "PLATFORM_NOT_FOUND"
	CodePlatformAmbiguous = "PLATFORM_AMBIGUOUS"
	CodeAppNotFound       = "APP_NOT_FOUND"
	CodeAppAmbiguous      = "APP_AMBIGUOUS"
	CodeLaunchFailed      = "LAUNCH_FAILED"
	CodeIntentNotFound    = "INTENT_NOT_FOUND"
	CodeIntentAmbiguous   = "INTENT_AMBIGUOUS"
	CodeDeliveryFailed    = "DELIVERY_FAILED"
	CodeInternal          = "INTERNAL_ERROR"
)

// AgentError is a structured error from the agent.
type AgentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *AgentError) Error() string {
	return e.Code + ": " + e.Message
}

// NewAgentError creates a new AgentError.
func NewAgentError(code, message string) *AgentError {
	return &AgentError{Code: code, Message: message}
}

// launchError builds the launch failure for an app, keeping the default
// message unless resolution produced a more specific one.
func launchError(app, message string) *AgentError {
	if message == "" {
		message = fmt.Sprintf("Unable to start application named %q", app)
	}
	return &AgentError{Code: CodeLaunchFailed, Message: message}
}
