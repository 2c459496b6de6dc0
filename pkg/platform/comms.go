package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/interop-agent/pkg/commsutil"
)

const commsLogPrefix = "platform:comms"

// defaultRequestTimeout bounds individual COMMS request/reply calls made by
// the adapter. The engine itself adds no timeouts; this is adapter policy.
const defaultRequestTimeout = 10 * time.Second

// invokeRequest is the JSON envelope for method invocations over COMMS.
type invokeRequest struct {
	ID   string          `json:"id"`
	Args json.RawMessage `json:"args,omitempty"`
}

// invokeResponse is the JSON envelope for invocation replies.
type invokeResponse struct {
	ID     string          `json:"id"`
	Ok     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// CommsTransport implements Transport over a COMMS (NATS) connection. Each
// platform owns a subject namespace: discovery and registration are
// request/reply against the platform directory, invocations are request/reply
// against per-method subjects, and registration-change events are published
// on a broadcast subject.
type CommsTransport struct {
	url      string
	platform string
	timeout  time.Duration
}

// NewCommsTransport creates a transport for one platform's subject namespace.
func NewCommsTransport(url, platformName string) *CommsTransport {
	return &CommsTransport{url: url, platform: platformName, timeout: defaultRequestTimeout}
}

// Connect establishes a session and registers the given methods.
func (t *CommsTransport) Connect(ctx context.Context, identity AppIdentity, methods []MethodImpl) (Session, error) {
	nc, err := commsutil.Connect(t.url, identity.ApplicationName)
	if err != nil {
		return nil, err
	}

	s := &commsSession{
		nc:       nc,
		platform: t.platform,
		identity: identity,
		timeout:  t.timeout,
	}
	for _, m := range methods {
		if err := s.Register(ctx, m); err != nil {
			nc.Close()
			return nil, fmt.Errorf("%s - failed to register %q on %s: %w", commsLogPrefix, m.Name, t.platform, err)
		}
	}
	return s, nil
}

type commsSession struct {
	nc       *comms.Conn
	platform string
	identity AppIdentity
	timeout  time.Duration

	mu   sync.Mutex
	subs []*comms.Subscription
}

func (s *commsSession) request(ctx context.Context, subject string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	reqCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	msg, err := s.nc.RequestWithContext(reqCtx, subject, data)
	if err != nil {
		return nil, err
	}
	return msg.Data, nil
}

// DiscoverMethods asks the platform directory for its current method table.
func (s *commsSession) DiscoverMethods(ctx context.Context) ([]Method, error) {
	data, err := s.request(ctx, commsutil.PlatformDiscoverSubject(s.platform), struct{}{})
	if err != nil {
		return nil, fmt.Errorf("%s - discover on %s: %w", commsLogPrefix, s.platform, err)
	}
	var methods []Method
	if err := json.Unmarshal(data, &methods); err != nil {
		return nil, fmt.Errorf("%s - decode discover reply from %s: %w", commsLogPrefix, s.platform, err)
	}
	return methods, nil
}

// Invoke performs a request/reply invocation of a remote method.
func (s *commsSession) Invoke(ctx context.Context, method string, args any) (*InvokeResult, error) {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	data, err := s.request(ctx, commsutil.PlatformInvokeSubject(s.platform, method), invokeRequest{
		ID:   uuid.NewString(),
		Args: rawArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("%s - invoke %q on %s: %w", commsLogPrefix, method, s.platform, err)
	}
	var resp invokeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%s - decode invoke reply for %q from %s: %w", commsLogPrefix, method, s.platform, err)
	}
	if !resp.Ok {
		return nil, fmt.Errorf("%s - invoke %q on %s failed: %s", commsLogPrefix, method, s.platform, resp.Error)
	}
	return &InvokeResult{Result: resp.Result}, nil
}

// Register announces a method to the platform directory and serves its
// invocation subject.
func (s *commsSession) Register(ctx context.Context, impl MethodImpl) error {
	if impl.Peer.ApplicationName == "" {
		impl.Peer.ApplicationName = s.identity.ApplicationName
	}

	sub, err := s.nc.Subscribe(commsutil.PlatformInvokeSubject(s.platform, impl.Name), func(msg *comms.Msg) {
		var req invokeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Warn(fmt.Sprintf("%s - bad invoke payload for %q: %v", commsLogPrefix, impl.Name, err))
			return
		}
		result, err := impl.Handler(context.Background(), req.Args)
		resp := invokeResponse{ID: req.ID, Ok: err == nil}
		if err != nil {
			resp.Error = err.Error()
		} else if result != nil {
			raw, merr := json.Marshal(result)
			if merr != nil {
				resp = invokeResponse{ID: req.ID, Ok: false, Error: merr.Error()}
			} else {
				resp.Result = raw
			}
		}
		data, _ := json.Marshal(resp)
		if err := msg.Respond(data); err != nil {
			slog.Warn(fmt.Sprintf("%s - respond for %q: %v", commsLogPrefix, impl.Name, err))
		}
	})
	if err != nil {
		return fmt.Errorf("%s - subscribe invoke subject for %q: %w", commsLogPrefix, impl.Name, err)
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	if _, err := s.request(ctx, commsutil.PlatformRegisterSubject(s.platform), impl.Method); err != nil {
		return fmt.Errorf("%s - announce %q to %s: %w", commsLogPrefix, impl.Name, s.platform, err)
	}
	return nil
}

// OnMethodRegistered subscribes to the platform's registration-change events.
func (s *commsSession) OnMethodRegistered(fn func(Method)) {
	sub, err := s.nc.Subscribe(commsutil.PlatformRegisteredSubject(s.platform), func(msg *comms.Msg) {
		var m Method
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - bad registered event on %s: %v", commsLogPrefix, s.platform, err))
			return
		}
		fn(m)
	})
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - subscribe registered events on %s: %v", commsLogPrefix, s.platform, err))
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// Close drains subscriptions and closes the connection.
func (s *commsSession) Close() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - unsubscribe: %v", commsLogPrefix, err))
		}
	}
	s.nc.Close()
	return nil
}

// Directory is the host side of a COMMS platform: it answers discovery
// requests with the current method table, records registrations, and
// publishes registered events. One Directory serves one platform namespace.
type Directory struct {
	nc       *comms.Conn
	platform string

	mu      sync.RWMutex
	methods []Method
	subs    []*comms.Subscription
}

// NewDirectory starts a directory for the given platform namespace on an
// existing COMMS connection.
func NewDirectory(nc *comms.Conn, platformName string) (*Directory, error) {
	d := &Directory{nc: nc, platform: platformName}

	discoverSub, err := nc.Subscribe(commsutil.PlatformDiscoverSubject(platformName), func(msg *comms.Msg) {
		d.mu.RLock()
		data, err := json.Marshal(d.methods)
		d.mu.RUnlock()
		if err != nil {
			slog.Warn(fmt.Sprintf("%s - encode method table for %s: %v", commsLogPrefix, platformName, err))
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Warn(fmt.Sprintf("%s - respond discover on %s: %v", commsLogPrefix, platformName, err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s - subscribe discover on %s: %w", commsLogPrefix, platformName, err)
	}

	registerSub, err := nc.Subscribe(commsutil.PlatformRegisterSubject(platformName), func(msg *comms.Msg) {
		var m Method
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			slog.Warn(fmt.Sprintf("%s - bad register payload on %s: %v", commsLogPrefix, platformName, err))
			return
		}
		d.mu.Lock()
		d.methods = append(d.methods, m)
		d.mu.Unlock()

		if err := msg.Respond([]byte(`{"ok":true}`)); err != nil {
			slog.Warn(fmt.Sprintf("%s - respond register on %s: %v", commsLogPrefix, platformName, err))
		}
		data, _ := json.Marshal(m)
		if err := nc.Publish(commsutil.PlatformRegisteredSubject(platformName), data); err != nil {
			slog.Warn(fmt.Sprintf("%s - publish registered event on %s: %v", commsLogPrefix, platformName, err))
		}
	})
	if err != nil {
		discoverSub.Unsubscribe()
		return nil, fmt.Errorf("%s - subscribe register on %s: %w", commsLogPrefix, platformName, err)
	}

	d.subs = []*comms.Subscription{discoverSub, registerSub}
	slog.Info(fmt.Sprintf("%s - directory serving platform %s", commsLogPrefix, platformName))
	return d, nil
}

// Methods returns a snapshot of the current method table.
func (d *Directory) Methods() []Method {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Method, len(d.methods))
	copy(out, d.methods)
	return out
}

// Close stops serving the directory subjects.
func (d *Directory) Close() {
	for _, sub := range d.subs {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn(fmt.Sprintf("%s - unsubscribe directory on %s: %v", commsLogPrefix, d.platform, err))
		}
	}
}
