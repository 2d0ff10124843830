package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/harunnryd/strum/pkg/assistant"
	"github.com/harunnryd/strum/pkg/catalog"
	"github.com/harunnryd/strum/pkg/llm"
)

// ChatRequest is the inbound conversation payload. The caller owns the full
// history and resends it every turn; the gateway keeps no session state.
type ChatRequest struct {
	Messages []llm.Message `json:"messages"`
}

// ProductSource feeds the gateway catalog endpoint.
type ProductSource interface {
	Products(ctx context.Context) ([]catalog.Product, error)
}

// ChatHandler streams assistant turns to HTTP clients.
type ChatHandler struct {
	orch    *assistant.Orchestrator
	catalog ProductSource
	log     *slog.Logger
}

func NewChatHandler(orch *assistant.Orchestrator, products ProductSource, log *slog.Logger) *ChatHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ChatHandler{orch: orch, catalog: products, log: log.With(slog.String("component", "chat_api"))}
}

// Chat answers POST /api/chat with newline-delimited JSON events. The stream
// stays open until the turn finishes or the client goes away; a disconnect
// cancels the turn through the request context.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, BadRequest("BAD_REQUEST", "malformed chat payload"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, InternalError("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for ev := range h.orch.Turn(r.Context(), req.Messages) {
		if err := enc.Encode(ev); err != nil {
			h.log.Debug("client gone mid-stream", slog.String("error", err.Error()))
			return
		}
		flusher.Flush()
	}
}

// Products answers GET /products from the catalog source.
func (h *ChatHandler) Products(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products(r.Context())
	if err != nil {
		h.log.Error("catalog fetch failed", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, products)
}

// NewGatewayRouter assembles the gateway router.
func NewGatewayRouter(h *ChatHandler, ws *WSHandler, log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recovery(log))
	r.Use(RequestID)
	r.Use(Logging(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Post("/api/chat", h.Chat)
	r.Get("/products", h.Products)
	if ws != nil {
		r.Get("/ws/chat", ws.Serve)
	}
	return r
}
