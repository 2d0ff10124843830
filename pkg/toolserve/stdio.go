package toolserve

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"github.com/harunnryd/strum/pkg/toolwire"
)

// ServeStdio answers requests read from r with responses written to w, one
// envelope per line. Each request runs in its own goroutine so a slow tool
// call never stalls the pipe; the write lock keeps response frames whole.
// Returns when r is exhausted or the context is canceled.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	var writeMu sync.Mutex
	var wg sync.WaitGroup

	write := func(env toolwire.Envelope) {
		payload, err := json.Marshal(env)
		if err != nil {
			s.log.Error("marshal response", slog.String("error", err.Error()))
			return
		}
		payload = append(payload, '\n')
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := w.Write(payload); err != nil {
			s.log.Warn("write response", slog.String("error", err.Error()))
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var req toolwire.Envelope
		if err := json.Unmarshal(line, &req); err != nil {
			write(toolwire.NewErrorResponse("", toolwire.CodeParseError, "malformed frame"))
			continue
		}
		if req.Method == "" {
			continue
		}
		wg.Add(1)
		go func(req toolwire.Envelope) {
			defer wg.Done()
			write(s.dispatch(ctx, req))
		}(req)
	}
	wg.Wait()
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
