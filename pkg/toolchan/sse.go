package toolchan

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/toolwire"
)

// SSEConfig configures the push/request split transport.
type SSEConfig struct {
	// BaseURL is the tool provider root; the push channel is opened at
	// BaseURL + "/sse".
	BaseURL string
	// Client defaults to a client without a global timeout; the push stream
	// is long-lived so per-call deadlines are handled by CallTimeout.
	Client      *http.Client
	CallTimeout time.Duration
	// HandshakeTimeout bounds waiting for the endpoint event and the
	// initialize round trip.
	HandshakeTimeout time.Duration
	Logger           *slog.Logger
}

// SSEChannel implements Channel over a persistent SSE push stream paired with
// a side request endpoint. The provider assigns a session-scoped message URL
// in the first push event; invocations are POSTed there and responses arrive
// asynchronously on the push stream, matched by correlation id.
type SSEChannel struct {
	cfg        SSEConfig
	log        *slog.Logger
	pending    *pendingTable
	messageURL string

	pushBody io.Closer
	cancel   context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// DialSSE opens the push channel, waits for the session endpoint, and runs
// the initialize handshake. A handshake failure is returned to the caller;
// services treat it as fatal at startup.
func DialSSE(ctx context.Context, cfg SSEConfig) (*SSEChannel, error) {
	if cfg.BaseURL == "" {
		return nil, errorsx.New(errorsx.ReasonToolHandshake, "sse channel: base url is required")
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// The push stream outlives the dial context.
	pushCtx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(pushCtx, http.MethodGet, strings.TrimRight(cfg.BaseURL, "/")+"/sse", nil)
	if err != nil {
		cancel()
		return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := cfg.Client.Do(req)
	if err != nil {
		cancel()
		return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, errorsx.Errorf(errorsx.ReasonToolHandshake, "sse channel: unexpected status %d", resp.StatusCode)
	}

	c := &SSEChannel{
		cfg:      cfg,
		log:      cfg.Logger.With(slog.String("component", "toolchan.sse")),
		pending:  newPendingTable(cfg.CallTimeout),
		pushBody: resp.Body,
		cancel:   cancel,
	}

	endpointCh := make(chan string, 1)
	go c.readPushStream(resp.Body, endpointCh)

	select {
	case endpoint, ok := <-endpointCh:
		if !ok {
			c.Close()
			return nil, errorsx.New(errorsx.ReasonToolHandshake, "sse channel: push stream closed before endpoint event")
		}
		resolved, err := resolveEndpoint(cfg.BaseURL, endpoint)
		if err != nil {
			c.Close()
			return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
		}
		c.messageURL = resolved
	case <-time.After(cfg.HandshakeTimeout):
		c.Close()
		return nil, errorsx.New(errorsx.ReasonToolHandshake, "sse channel: timed out waiting for endpoint event")
	case <-ctx.Done():
		c.Close()
		return nil, ctx.Err()
	}

	hsCtx, hsCancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer hsCancel()
	if _, err := c.roundTrip(hsCtx, toolwire.MethodInitialize, nil); err != nil {
		c.Close()
		return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
	}
	c.log.Info("session established", slog.String("endpoint", c.messageURL))
	return c, nil
}

func (c *SSEChannel) Name() string { return "sse" }

func (c *SSEChannel) ListTools(ctx context.Context) ([]RemoteTool, error) {
	env, err := c.roundTrip(ctx, toolwire.MethodListTools, nil)
	if err != nil {
		return nil, err
	}
	return decodeToolList(env)
}

func (c *SSEChannel) Invoke(ctx context.Context, tool string, args map[string]any) (string, error) {
	env, err := c.roundTrip(ctx, toolwire.MethodCallTool, toolwire.CallParams{Name: tool, Arguments: args})
	if err != nil {
		return "", err
	}
	return decodeCallResult(env, tool)
}

// Close tears the channel down exactly once: the push stream is closed, and
// every pending invocation fails with ErrTransportClosed.
func (c *SSEChannel) Close() error {
	c.closeOnce.Do(func() {
		c.pending.failAll(errorsx.Wrap(ErrTransportClosed, errorsx.ReasonTransportClosed))
		c.cancel()
		c.closeErr = c.pushBody.Close()
	})
	return c.closeErr
}

func (c *SSEChannel) roundTrip(ctx context.Context, method string, params any) (toolwire.Envelope, error) {
	id := uuid.NewString()
	req, err := toolwire.NewRequest(id, method, params)
	if err != nil {
		return toolwire.Envelope{}, err
	}
	wait, err := c.pending.register(id)
	if err != nil {
		return toolwire.Envelope{}, err
	}
	if err := c.post(ctx, req); err != nil {
		c.pending.evict(id)
		return toolwire.Envelope{}, err
	}
	return awaitResponse(ctx, c.pending, wait, id, c.cfg.CallTimeout)
}

func (c *SSEChannel) post(ctx context.Context, env toolwire.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messageURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportClosed)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errorsx.Errorf(errorsx.ReasonRemoteFault, "message endpoint returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// readPushStream parses the SSE wire format. The first endpoint event is
// handed to endpointCh; message events resolve pending invocations. Reader
// exit fails all outstanding calls.
func (c *SSEChannel) readPushStream(body io.Reader, endpointCh chan<- string) {
	defer close(endpointCh)
	defer c.pending.failAll(errorsx.Wrap(ErrTransportClosed, errorsx.ReasonTransportClosed))

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	event, data := "", ""
	endpointSent := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if event == "endpoint" && !endpointSent {
				endpointSent = true
				endpointCh <- data
			}
			if event == "message" && data != "" {
				var env toolwire.Envelope
				if err := json.Unmarshal([]byte(data), &env); err != nil {
					c.log.Warn("dropping malformed push event", slog.String("error", err.Error()))
				} else if env.IsResponse() {
					c.pending.resolve(env)
				}
			}
			event, data = "", ""
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data != "" {
				data += "\n"
			}
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func resolveEndpoint(base, endpoint string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
