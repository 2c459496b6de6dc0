package config

import (
	"testing"
	"time"
)

const configTestPrefix = "config:config_test"

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("%s - LoadConfig failed: %v", configTestPrefix, err)
	}
	if cfg.COMMSURL != "nats://127.0.0.1:4222" {
		t.Errorf("%s - unexpected default COMMS URL: %s", configTestPrefix, cfg.COMMSURL)
	}
	if cfg.COMMSName != "interop-agent" || cfg.ApplicationName != "interop-agent" {
		t.Errorf("%s - unexpected default names: %s/%s", configTestPrefix, cfg.COMMSName, cfg.ApplicationName)
	}
	if cfg.RequestTimeout != 25*time.Second {
		t.Errorf("%s - unexpected default request timeout: %v", configTestPrefix, cfg.RequestTimeout)
	}
	if cfg.ConnectRetryInterval != 2*time.Second {
		t.Errorf("%s - unexpected default retry interval: %v", configTestPrefix, cfg.ConnectRetryInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("%s - unexpected default log level: %s", configTestPrefix, cfg.LogLevel)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("COMMS_URL", "nats://example:4222")
	t.Setenv("AGENT_SUBJECT", "interop.agent.test")
	t.Setenv("PLATFORM_RETRY_INTERVAL", "500ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("%s - LoadConfig failed: %v", configTestPrefix, err)
	}
	if cfg.COMMSURL != "nats://example:4222" {
		t.Errorf("%s - COMMS_URL override ignored: %s", configTestPrefix, cfg.COMMSURL)
	}
	if cfg.AgentSubject != "interop.agent.test" {
		t.Errorf("%s - AGENT_SUBJECT override ignored: %s", configTestPrefix, cfg.AgentSubject)
	}
	if cfg.ConnectRetryInterval != 500*time.Millisecond {
		t.Errorf("%s - PLATFORM_RETRY_INTERVAL override ignored: %v", configTestPrefix, cfg.ConnectRetryInterval)
	}
}

func TestValidateForServe(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("%s - LoadConfig failed: %v", configTestPrefix, err)
	}
	if err := cfg.ValidateForServe(); err != nil {
		t.Errorf("%s - default config must validate: %v", configTestPrefix, err)
	}

	cfg.RequestTimeout = 0
	if err := cfg.ValidateForServe(); err == nil {
		t.Errorf("%s - expected error for zero request timeout", configTestPrefix)
	}

	cfg.RequestTimeout = time.Second
	cfg.ConnectRetryInterval = -time.Second
	if err := cfg.ValidateForServe(); err == nil {
		t.Errorf("%s - expected error for negative retry interval", configTestPrefix)
	}

	cfg.ConnectRetryInterval = time.Second
	cfg.COMMSURL = ""
	if err := cfg.ValidateForServe(); err == nil {
		t.Errorf("%s - expected error for empty COMMS URL", configTestPrefix)
	}
}
