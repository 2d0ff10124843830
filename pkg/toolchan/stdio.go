package toolchan

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/toolwire"
)

// StdioConfig configures the duplex pipe transport.
type StdioConfig struct {
	CallTimeout      time.Duration
	HandshakeTimeout time.Duration
	Logger           *slog.Logger
}

// StdioChannel implements Channel over a single bidirectional pipe carrying
// newline-delimited envelopes. Requests and responses interleave freely;
// concurrent in-flight invocations are matched by correlation id, so one slow
// call never blocks the pipe.
type StdioChannel struct {
	cfg     StdioConfig
	log     *slog.Logger
	pending *pendingTable

	w       io.WriteCloser
	writeMu sync.Mutex
	release func() error

	closeOnce sync.Once
	closeErr  error
}

// StartStdioCommand launches the tool provider as a child process and speaks
// the protocol on its stdin/stdout. Teardown kills the child exactly once.
func StartStdioCommand(ctx context.Context, cfg StdioConfig, command string, args ...string) (*StdioChannel, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
	}
	if err := cmd.Start(); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
	}
	release := func() error {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return cmd.Wait()
	}
	return NewStdioChannel(ctx, cfg, stdout, stdin, release)
}

// NewStdioChannel wires the channel over arbitrary read/write ends. release,
// if non-nil, frees the underlying resource and is invoked exactly once from
// Close. The initialize handshake runs before the channel is returned.
func NewStdioChannel(ctx context.Context, cfg StdioConfig, r io.Reader, w io.WriteCloser, release func() error) (*StdioChannel, error) {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &StdioChannel{
		cfg:     cfg,
		log:     cfg.Logger.With(slog.String("component", "toolchan.stdio")),
		pending: newPendingTable(cfg.CallTimeout),
		w:       w,
		release: release,
	}
	go c.readLoop(r)

	hsCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()
	if _, err := c.roundTrip(hsCtx, toolwire.MethodInitialize, nil); err != nil {
		c.Close()
		return nil, errorsx.Wrap(err, errorsx.ReasonToolHandshake)
	}
	return c, nil
}

func (c *StdioChannel) Name() string { return "stdio" }

func (c *StdioChannel) ListTools(ctx context.Context) ([]RemoteTool, error) {
	env, err := c.roundTrip(ctx, toolwire.MethodListTools, nil)
	if err != nil {
		return nil, err
	}
	return decodeToolList(env)
}

func (c *StdioChannel) Invoke(ctx context.Context, tool string, args map[string]any) (string, error) {
	env, err := c.roundTrip(ctx, toolwire.MethodCallTool, toolwire.CallParams{Name: tool, Arguments: args})
	if err != nil {
		return "", err
	}
	return decodeCallResult(env, tool)
}

// Close fails all pending invocations, closes the write end, and releases the
// child process. Safe under concurrent failure and explicit close.
func (c *StdioChannel) Close() error {
	c.closeOnce.Do(func() {
		c.pending.failAll(errorsx.Wrap(ErrTransportClosed, errorsx.ReasonTransportClosed))
		err := c.w.Close()
		if c.release != nil {
			if relErr := c.release(); err == nil {
				err = relErr
			}
		}
		c.closeErr = err
	})
	return c.closeErr
}

func (c *StdioChannel) roundTrip(ctx context.Context, method string, params any) (toolwire.Envelope, error) {
	id := uuid.NewString()
	req, err := toolwire.NewRequest(id, method, params)
	if err != nil {
		return toolwire.Envelope{}, err
	}
	wait, err := c.pending.register(id)
	if err != nil {
		return toolwire.Envelope{}, err
	}
	if err := c.write(req); err != nil {
		c.pending.evict(id)
		return toolwire.Envelope{}, errorsx.Wrap(err, errorsx.ReasonTransportClosed)
	}
	return awaitResponse(ctx, c.pending, wait, id, c.cfg.CallTimeout)
}

// write serializes one envelope per line. The write lock keeps frames whole;
// it is held only for the write itself, never while awaiting a response.
func (c *StdioChannel) write(env toolwire.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.w.Write(payload)
	return err
}

func (c *StdioChannel) readLoop(r io.Reader) {
	defer c.pending.failAll(errorsx.Wrap(ErrTransportClosed, errorsx.ReasonTransportClosed))
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var env toolwire.Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			c.log.Warn("dropping malformed frame", slog.String("error", err.Error()))
			continue
		}
		if env.IsResponse() {
			c.pending.resolve(env)
		}
	}
}
