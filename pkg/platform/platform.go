package platform

// ConnectionStatus describes the state of a platform connection.
type ConnectionStatus string

// Connection states.
const (
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusDisconnected ConnectionStatus = "disconnected"
)

// Default capability method names. Descriptors may override these per
// platform when the platform uses a different naming convention.
const (
	DefaultListAppsMethod        = "ListApplications"
	DefaultStartAppMethod        = "StartApplication"
	DefaultContextListenerMethod = "HandleContext"
)

// Descriptor configures one platform connection. Type must be unique across
// the configured set; Name defaults to Type.
type Descriptor struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	URL     string `json:"url,omitempty"`

	ListAppsMethod        string `json:"listAppsMethod,omitempty"`
	StartAppMethod        string `json:"startAppMethod,omitempty"`
	ContextListenerMethod string `json:"contextListenerMethod,omitempty"`

	Transport Transport `json:"-"`
}

// Normalized returns a copy with defaults applied.
func (d Descriptor) Normalized() Descriptor {
	if d.Name == "" {
		d.Name = d.Type
	}
	if d.ListAppsMethod == "" {
		d.ListAppsMethod = DefaultListAppsMethod
	}
	if d.StartAppMethod == "" {
		d.StartAppMethod = DefaultStartAppMethod
	}
	if d.ContextListenerMethod == "" {
		d.ContextListenerMethod = DefaultContextListenerMethod
	}
	return d
}

// Platform is the engine's handle to one connected interop platform. At most
// one handle per distinct Name exists in the active set; the bus factory
// enforces this at construction.
type Platform struct {
	Name    string
	Version string
	Online  bool
	Status  ConnectionStatus

	ListAppsMethod        string
	StartAppMethod        string
	ContextListenerMethod string

	Session Session
}
