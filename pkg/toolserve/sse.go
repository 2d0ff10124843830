package toolserve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/harunnryd/strum/pkg/toolwire"
)

// sseSession is one connected push stream. Responses for the session are
// queued on events and flushed by the GET handler goroutine.
type sseSession struct {
	id     string
	events chan toolwire.Envelope
	done   chan struct{}
	once   sync.Once
}

func (s *sseSession) close() {
	s.once.Do(func() { close(s.done) })
}

// SSEHandler exposes the server over the push/request split transport:
// GET /sse opens the push stream and announces the session message endpoint;
// POST /messages?sessionId=... accepts one framed request per call and the
// response is pushed asynchronously on the stream.
func (s *Server) SSEHandler() http.Handler {
	sessions := struct {
		sync.RWMutex
		m map[string]*sseSession
	}{m: make(map[string]*sseSession)}

	r := chi.NewRouter()

	r.Get("/sse", func(w http.ResponseWriter, req *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		sess := &sseSession{
			id:     uuid.NewString(),
			events: make(chan toolwire.Envelope, 16),
			done:   make(chan struct{}),
		}
		sessions.Lock()
		sessions.m[sess.id] = sess
		sessions.Unlock()
		defer func() {
			sessions.Lock()
			delete(sessions.m, sess.id)
			sessions.Unlock()
			sess.close()
		}()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.id)
		flusher.Flush()
		s.log.Info("push channel opened", slog.String("session", sess.id))

		for {
			select {
			case <-req.Context().Done():
				return
			case env := <-sess.events:
				payload, err := json.Marshal(env)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: message\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	})

	r.Post("/messages", func(w http.ResponseWriter, req *http.Request) {
		sessionID := req.URL.Query().Get("sessionId")
		sessions.RLock()
		sess, ok := sessions.m[sessionID]
		sessions.RUnlock()
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}
		var env toolwire.Envelope
		if err := json.NewDecoder(req.Body).Decode(&env); err != nil {
			http.Error(w, "malformed frame", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)

		// Dispatch off the request goroutine; the response travels on the
		// push stream, not on this POST, so it must outlive the POST context.
		ctx := context.WithoutCancel(req.Context())
		go func() {
			resp := s.dispatch(ctx, env)
			select {
			case sess.events <- resp:
			case <-sess.done:
			}
		}()
	})

	return r
}
