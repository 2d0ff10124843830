package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/ledger"
)

// FulfillmentHandler exposes the ledger over REST. Payload shapes mirror the
// tool wire format: guitarId, customerName, totalAmount, orderDate.
type FulfillmentHandler struct {
	svc *ledger.Service
	log *slog.Logger
}

func NewFulfillmentHandler(svc *ledger.Service, log *slog.Logger) *FulfillmentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FulfillmentHandler{svc: svc, log: log.With(slog.String("component", "fulfillment_api"))}
}

// PurchaseRequest is the inbound purchase payload.
type PurchaseRequest struct {
	CustomerName string             `json:"customerName"`
	Items        []ledger.OrderItem `json:"items"`
}

func (h *FulfillmentHandler) Products(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.svc.Products())
}

func (h *FulfillmentHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	details, err := h.svc.Inventory(r.Context())
	if err != nil {
		h.log.Error("inventory read failed", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, details)
}

func (h *FulfillmentHandler) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.Orders(r.Context())
	if err != nil {
		h.log.Error("orders read failed", slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, orders)
}

func (h *FulfillmentHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, BadRequest("BAD_REQUEST", "malformed purchase payload"))
		return
	}
	order, err := h.svc.Purchase(r.Context(), req.CustomerName, req.Items)
	if err != nil {
		WriteError(w, mapLedgerError(err))
		return
	}
	WriteJSON(w, http.StatusOK, order)
}

func mapLedgerError(err error) error {
	switch {
	case errorsx.HasReason(err, errorsx.ReasonLedgerEmptyRequest):
		return BadRequest("EMPTY_REQUEST", err.Error())
	case errorsx.HasReason(err, errorsx.ReasonLedgerProductNotFound):
		return NotFound("PRODUCT_NOT_FOUND", err.Error())
	case errorsx.HasReason(err, errorsx.ReasonLedgerInsufficientStock):
		return BadRequest("INSUFFICIENT_STOCK", err.Error())
	default:
		return InternalError("")
	}
}

// NewFulfillmentRouter assembles the fulfillment service router.
func NewFulfillmentRouter(h *FulfillmentHandler, log *slog.Logger) *chi.Mux {
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

	r.Get("/products", h.Products)
	r.Get("/inventory", h.Inventory)
	r.Get("/orders", h.Orders)
	r.Post("/purchase", h.Purchase)
	return r
}
