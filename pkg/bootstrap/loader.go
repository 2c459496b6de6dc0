package bootstrap

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/morezero/interop-agent/pkg/platform"
)

const logPrefix = "bootstrap:loader"

// LoadBootstrapConfig loads bootstrap config from file paths or environment.
// It tries paths in order: first any paths passed in, then AGENT_BOOTSTRAP_FILE
// env, then defaults. An explicit path (e.g. from "validate my.json") is tried
// before the env var.
func LoadBootstrapConfig(paths ...string) (*BootstrapConfig, error) {
	all := make([]string, 0, len(paths)+3)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("AGENT_BOOTSTRAP_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/platforms.json", "platforms.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}

		var cfg BootstrapConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			slog.Warn(fmt.Sprintf("%s - Failed to parse bootstrap file %s: %v", logPrefix, p, err))
			continue
		}

		slog.Info(fmt.Sprintf("%s - Loaded bootstrap config from %s", logPrefix, p))
		return &cfg, nil
	}

	slog.Info(fmt.Sprintf("%s - Using default bootstrap config", logPrefix))
	return GetDefaultBootstrapConfig(), nil
}

// GetDefaultBootstrapConfig returns the embedded fallback configuration: a
// single COMMS platform on the agent's default connection.
func GetDefaultBootstrapConfig() *BootstrapConfig {
	return &BootstrapConfig{
		Name:        "interop-agent-bootstrap",
		Version:     "1.0.0",
		Description: "Default platform bootstrap configuration",
		Platforms: []PlatformEntry{
			{Type: "comms", Version: "1.0.0"},
		},
	}
}

// Validate checks the descriptor set for configuration errors. Duplicate
// platform types are rejected before any connection attempt is made.
func (c *BootstrapConfig) Validate() error {
	if len(c.Platforms) == 0 {
		return fmt.Errorf("%s - no platforms configured", logPrefix)
	}
	seen := make(map[string]bool, len(c.Platforms))
	for _, p := range c.Platforms {
		if p.Type == "" {
			return fmt.Errorf("%s - platform entry with empty type", logPrefix)
		}
		if seen[p.Type] {
			return fmt.Errorf("%s - duplicate platform type %q", logPrefix, p.Type)
		}
		seen[p.Type] = true
	}
	return nil
}

// ToDescriptors converts entries into platform descriptors wired to COMMS
// transports. Entries without a URL use defaultURL.
func (c *BootstrapConfig) ToDescriptors(defaultURL string) []platform.Descriptor {
	out := make([]platform.Descriptor, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		url := p.URL
		if url == "" {
			url = defaultURL
		}
		name := p.Name
		if name == "" {
			name = p.Type
		}
		out = append(out, platform.Descriptor{
			Type:                  p.Type,
			Name:                  name,
			Version:               p.Version,
			URL:                   url,
			ListAppsMethod:        p.ListAppsMethod,
			StartAppMethod:        p.StartAppMethod,
			ContextListenerMethod: p.ContextListenerMethod,
			Transport:             platform.NewCommsTransport(url, name),
		})
	}
	return out
}
