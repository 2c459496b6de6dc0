// Package bootstrap loads the platform descriptor set the agent connects to.
package bootstrap

// BootstrapConfig is the on-disk shape of the agent's platform configuration.
type BootstrapConfig struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description,omitempty"`
	Platforms   []PlatformEntry `json:"platforms"`
}

// PlatformEntry describes one interop platform to connect. Name defaults to
// Type; URL empty means the agent's default COMMS URL; method names default
// to the uniform conventions.
type PlatformEntry struct {
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
	URL     string `json:"url,omitempty"`

	ListAppsMethod        string `json:"listAppsMethod,omitempty"`
	StartAppMethod        string `json:"startAppMethod,omitempty"`
	ContextListenerMethod string `json:"contextListenerMethod,omitempty"`
}
