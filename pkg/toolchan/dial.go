package toolchan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/strum/pkg/errorsx"
)

const (
	stdioSchemePrefix = "stdio://"
	sseSchemePrefix   = "sse://"
)

// DialConfig holds transport-independent channel settings.
type DialConfig struct {
	CallTimeout      time.Duration
	HandshakeTimeout time.Duration
	Logger           *slog.Logger
}

// Dial opens a channel from a transport spec. "sse://host:port" (or a plain
// http(s) URL) selects the push/request split transport; "stdio://cmd args"
// launches the provider as a child process on a duplex pipe.
func Dial(ctx context.Context, spec string, cfg DialConfig) (Channel, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case strings.HasPrefix(spec, stdioSchemePrefix):
		parts := strings.Fields(strings.TrimPrefix(spec, stdioSchemePrefix))
		if len(parts) == 0 {
			return nil, errorsx.New(errorsx.ReasonToolHandshake, "stdio transport: command is empty")
		}
		return StartStdioCommand(ctx, StdioConfig{
			CallTimeout:      cfg.CallTimeout,
			HandshakeTimeout: cfg.HandshakeTimeout,
			Logger:           cfg.Logger,
		}, parts[0], parts[1:]...)
	case strings.HasPrefix(spec, sseSchemePrefix):
		base := "http://" + strings.TrimPrefix(spec, sseSchemePrefix)
		return DialSSE(ctx, SSEConfig{
			BaseURL:          strings.TrimRight(base, "/"),
			CallTimeout:      cfg.CallTimeout,
			HandshakeTimeout: cfg.HandshakeTimeout,
			Logger:           cfg.Logger,
		})
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return DialSSE(ctx, SSEConfig{
			BaseURL:          strings.TrimRight(spec, "/"),
			CallTimeout:      cfg.CallTimeout,
			HandshakeTimeout: cfg.HandshakeTimeout,
			Logger:           cfg.Logger,
		})
	case spec == "":
		return nil, errorsx.New(errorsx.ReasonToolHandshake, "transport spec is empty")
	default:
		return nil, errorsx.Errorf(errorsx.ReasonToolHandshake, "unsupported transport spec: %q", spec)
	}
}
