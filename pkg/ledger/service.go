package ledger

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/harunnryd/strum/pkg/catalog"
	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/metrics"
)

// Service owns ledger state and exposes only atomic operations. Purchases go
// through a single-writer mutex so concurrent requests touching overlapping
// products observe a serializable ordering; reads hit the store directly.
type Service struct {
	mu       sync.Mutex
	store    Store
	products map[int]catalog.Product
	log      *slog.Logger
	obs      metrics.Observer
	now      func() time.Time
}

type ServiceOption func(*Service)

func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

func WithObserver(obs metrics.Observer) ServiceOption {
	return func(s *Service) { s.obs = obs }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, products []catalog.Product, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		products: make(map[int]catalog.Product, len(products)),
		log:      slog.Default(),
		obs:      metrics.NoopObserver{},
		now:      time.Now,
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "ledger"))
	return s
}

// Purchase validates the whole request and only then commits every decrement
// together with the new order as one indivisible step. Validation failures
// leave the ledger untouched.
func (s *Service) Purchase(ctx context.Context, customerName string, items []OrderItem) (Order, error) {
	if customerName == "" || len(items) == 0 {
		return Order{}, errorsx.Wrap(ErrEmptyRequest, errorsx.ReasonLedgerEmptyRequest)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return Order{}, errorsx.Wrap(ErrEmptyRequest, errorsx.ReasonLedgerEmptyRequest)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Inventory(ctx)
	if err != nil {
		return Order{}, errorsx.Wrap(err, errorsx.ReasonLedgerStore)
	}
	stock := make(map[int]int, len(records))
	for _, rec := range records {
		stock[rec.ProductID] = rec.Quantity
	}

	var total float64
	for _, item := range items {
		product, ok := s.products[item.ProductID]
		if !ok {
			s.reject("product_not_found")
			return Order{}, errorsx.Wrap(&ProductNotFoundError{ProductID: item.ProductID}, errorsx.ReasonLedgerProductNotFound)
		}
		available, ok := stock[item.ProductID]
		if !ok {
			s.reject("product_not_found")
			return Order{}, errorsx.Wrap(&ProductNotFoundError{ProductID: item.ProductID}, errorsx.ReasonLedgerProductNotFound)
		}
		if available < item.Quantity {
			s.reject("insufficient_stock")
			return Order{}, errorsx.Wrap(&InsufficientStockError{ProductID: item.ProductID, Available: available}, errorsx.ReasonLedgerInsufficientStock)
		}
		// Account for earlier items in the same request hitting one product.
		stock[item.ProductID] = available - item.Quantity
		total += product.Price * float64(item.Quantity)
	}

	order, err := s.store.CommitPurchase(ctx, Order{
		CustomerName: customerName,
		Items:        items,
		TotalAmount:  total,
		OrderDate:    s.now().UTC(),
	})
	if err != nil {
		return Order{}, errorsx.Wrap(err, errorsx.ReasonLedgerStore)
	}
	s.log.Info("purchase committed",
		slog.Int64("order_id", order.ID),
		slog.String("customer", customerName),
		slog.Float64("total", total),
	)
	s.obs.RecordEvent(metrics.MetricsEvent{
		Name:  metrics.EventPurchaseCommitted,
		Time:  time.Now(),
		Value: total,
		Tags:  map[string]string{"component": "ledger"},
	})
	return order, nil
}

// Inventory returns a read-only snapshot joined with catalog details.
func (s *Service) Inventory(ctx context.Context) ([]InventoryDetail, error) {
	records, err := s.store.Inventory(ctx)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonLedgerStore)
	}
	out := make([]InventoryDetail, 0, len(records))
	for _, rec := range records {
		detail := InventoryDetail{InventoryRecord: rec}
		if p, ok := s.products[rec.ProductID]; ok {
			product := p
			detail.Guitar = &product
		}
		out = append(out, detail)
	}
	return out, nil
}

// Orders returns a snapshot sorted most-recent-first by order date, with the
// higher id winning ties.
func (s *Service) Orders(ctx context.Context) ([]Order, error) {
	orders, err := s.store.Orders(ctx)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonLedgerStore)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

// Products returns the catalog entries the ledger was seeded with.
func (s *Service) Products() []catalog.Product {
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Service) reject(reason string) {
	s.obs.RecordEvent(metrics.MetricsEvent{
		Name: metrics.EventPurchaseRejected,
		Time: time.Now(),
		Tags: map[string]string{"component": "ledger", "reason": reason},
	})
}
