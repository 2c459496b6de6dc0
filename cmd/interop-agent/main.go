// Package main is the entrypoint for the interop-agent.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/morezero/interop-agent/internal/server"
	"github.com/morezero/interop-agent/pkg/bootstrap"
)

const usage = `Usage: interop-agent [command]

Commands:
  (default)       Start the interop agent (platform bus, COMMS endpoint, health).
  validate [file] Check a platform bootstrap file without connecting. Optional file overrides AGENT_BOOTSTRAP_FILE.

Environment: COMMS_URL, AGENT_BOOTSTRAP_FILE, AGENT_SUBJECT, LOG_LEVEL. See README for full list.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}

	switch cmd {
	case "validate":
		bootstrapFile := ""
		if len(args) > 1 {
			bootstrapFile = args[1]
		}
		if err := runValidate(bootstrapFile); err != nil {
			log.Fatalf("interop-agent validate: %v", err)
		}
		return
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	case "":
		// fall through to server
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err := server.Run(); err != nil {
		log.Fatalf("interop-agent: fatal error: %v", err)
	}
}

func runValidate(bootstrapFileOverride string) error {
	cfg, err := bootstrap.LoadBootstrapConfig(bootstrapFileOverride)
	if err != nil {
		return fmt.Errorf("load bootstrap: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Printf("ok: %d platform(s) configured\n", len(cfg.Platforms))
	return nil
}
