// Package server orchestrates all components: COMMS client, platform bus,
// agent, dispatcher, HTTP health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/interop-agent/internal/config"
	"github.com/morezero/interop-agent/pkg/agent"
	"github.com/morezero/interop-agent/pkg/bootstrap"
	"github.com/morezero/interop-agent/pkg/commsutil"
	"github.com/morezero/interop-agent/pkg/dispatcher"
	"github.com/morezero/interop-agent/pkg/platform"
)

const logPrefix = "server:server"

// Server is the interop-agent orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	httpServer *http.Server
	agent      *agent.DesktopAgent
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting interop-agent", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Step 1: Load bootstrap config (platform descriptor set)
	bootstrapCfg, err := bootstrap.LoadBootstrapConfig(cfg.BootstrapFile)
	if err != nil {
		return fmt.Errorf("%s - failed to load bootstrap config: %w", logPrefix, err)
	}
	if err := bootstrapCfg.Validate(); err != nil {
		return fmt.Errorf("%s - invalid bootstrap config: %w", logPrefix, err)
	}

	// Step 2: Connect the platform bus (retries each platform until ready)
	desktopAgent, err := agent.Connect(ctx, agent.BusConfig{
		Identity:      platform.AppIdentity{ApplicationName: cfg.ApplicationName},
		Descriptors:   bootstrapCfg.ToDescriptors(cfg.COMMSURL),
		RetryInterval: cfg.ConnectRetryInterval,
	})
	if err != nil {
		return fmt.Errorf("%s - failed to connect platform bus: %w", logPrefix, err)
	}
	s.agent = desktopAgent
	defer desktopAgent.Close()

	// Step 3: Connect the agent's own COMMS endpoint
	agentSubject := cfg.AgentSubject
	if agentSubject == "" {
		agentSubject = commsutil.SubjectAgent
	}
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to COMMS: %w", logPrefix, err)
	}
	s.nc = nc
	defer nc.Close()

	// Step 4: Create dispatcher and subscribe
	disp := dispatcher.NewDispatcher(desktopAgent)

	requestTimeout := cfg.RequestTimeout
	sub, err := nc.Subscribe(agentSubject, func(msg *comms.Msg) {
		var req dispatcher.AgentRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			resp := &dispatcher.AgentResponse{
				Ok: false,
				Error: &dispatcher.ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "Failed to decode request",
				},
			}
			data, _ := json.Marshal(resp)
			msg.Respond(data)
			return
		}

		reqCtx, cancelReq := context.WithTimeout(ctx, requestTimeout)
		defer cancelReq()

		resp := disp.Dispatch(reqCtx, &req)

		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
			return
		}
		msg.Respond(data)
	})
	if err != nil {
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, agentSubject, err)
	}
	defer sub.Unsubscribe()
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, agentSubject))

	// Step 5: HTTP health endpoint
	s.startHealthEndpoint()

	// Block until shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info(fmt.Sprintf("%s - Shutdown signal received", logPrefix))

	if s.httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn(fmt.Sprintf("%s - HTTP shutdown: %v", logPrefix, err))
		}
	}
	return nil
}

// startHealthEndpoint serves /healthz with the agent's platform snapshot.
func (s *Server) startHealthEndpoint() {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = fmt.Sprintf(":%d", s.cfg.HTTPPort)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		health := s.agent.Health()
		status := http.StatusOK
		if health.Status != "ok" || s.nc == nil || !s.nc.IsConnected() {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(health)
	})

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - Health endpoint on %s", logPrefix, addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server failed: %v", logPrefix, err))
		}
	}()
}
