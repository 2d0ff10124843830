package toolserve

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/harunnryd/strum/pkg/toolwire"
)

// Handler executes one tool call and returns its textual result. A returned
// error becomes a tool-level fault on the wire, not a transport failure.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Server hosts a named tool set and answers the tool protocol over any
// transport front end (stdio loop or SSE session).
type Server struct {
	name    string
	version string
	log     *slog.Logger

	mu       sync.RWMutex
	specs    []toolwire.ToolSpec
	handlers map[string]Handler
}

func New(name, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		name:     name,
		version:  version,
		log:      log.With(slog.String("component", "toolserve")),
		handlers: make(map[string]Handler),
	}
}

// Register adds a tool. Registering the same name twice replaces the handler
// but keeps the original list position.
func (s *Server) Register(spec toolwire.ToolSpec, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handlers[spec.Name]; !exists {
		s.specs = append(s.specs, spec)
	} else {
		for i := range s.specs {
			if s.specs[i].Name == spec.Name {
				s.specs[i] = spec
				break
			}
		}
	}
	s.handlers[spec.Name] = h
}

// dispatch answers a single request envelope.
func (s *Server) dispatch(ctx context.Context, req toolwire.Envelope) toolwire.Envelope {
	switch req.Method {
	case toolwire.MethodInitialize:
		resp, _ := toolwire.NewResponse(req.ID, toolwire.InitializeResult{
			ServerName:    s.name,
			ServerVersion: s.version,
		})
		return resp
	case toolwire.MethodListTools:
		s.mu.RLock()
		specs := make([]toolwire.ToolSpec, len(s.specs))
		copy(specs, s.specs)
		s.mu.RUnlock()
		resp, _ := toolwire.NewResponse(req.ID, toolwire.ListToolsResult{Tools: specs})
		return resp
	case toolwire.MethodCallTool:
		return s.callTool(ctx, req)
	default:
		return toolwire.NewErrorResponse(req.ID, toolwire.CodeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *Server) callTool(ctx context.Context, req toolwire.Envelope) toolwire.Envelope {
	var params toolwire.CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return toolwire.NewErrorResponse(req.ID, toolwire.CodeInvalidParams, "malformed call params")
	}
	s.mu.RLock()
	h, ok := s.handlers[params.Name]
	s.mu.RUnlock()
	if !ok {
		return toolwire.NewErrorResponse(req.ID, toolwire.CodeInvalidParams, "unknown tool: "+params.Name)
	}
	s.log.Debug("tool call", slog.String("tool", params.Name))
	text, err := h(ctx, params.Arguments)
	if err != nil {
		resp, _ := toolwire.NewResponse(req.ID, toolwire.ErrorResult(err.Error()))
		return resp
	}
	resp, _ := toolwire.NewResponse(req.ID, toolwire.TextResult(text))
	return resp
}
