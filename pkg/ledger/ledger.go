package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harunnryd/strum/pkg/catalog"
)

// InventoryRecord is the single source of truth for sellable stock of one
// product. The wire name guitarId is kept for compatibility with the
// fulfillment API consumers.
type InventoryRecord struct {
	ProductID int `json:"guitarId"`
	Quantity  int `json:"quantity"`
}

type OrderItem struct {
	ProductID int `json:"guitarId"`
	Quantity  int `json:"quantity"`
}

// Order is an append-only purchase record. An Order exists only if every
// item's inventory decrement succeeded in the same commit.
type Order struct {
	ID           int64       `json:"id"`
	CustomerName string      `json:"customerName"`
	Items        []OrderItem `json:"items"`
	TotalAmount  float64     `json:"totalAmount"`
	OrderDate    time.Time   `json:"orderDate"`
}

// InventoryDetail joins a stock record with its catalog entry.
type InventoryDetail struct {
	InventoryRecord
	Guitar *catalog.Product `json:"guitar,omitempty"`
}

// ErrEmptyRequest rejects purchases without a customer name, without items,
// or with a non-positive item quantity.
var ErrEmptyRequest = errors.New("purchase requires a customer name and at least one item with positive quantity")

// ProductNotFoundError aborts the whole purchase; no partial application.
type ProductNotFoundError struct {
	ProductID int
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("guitar with id %d not found", e.ProductID)
}

// InsufficientStockError reports the first under-stocked item found.
type InsufficientStockError struct {
	ProductID int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient inventory for guitar %d, available: %d", e.ProductID, e.Available)
}

// Store persists ledger state. CommitPurchase must apply every decrement and
// append the order indivisibly: either all of it is durable or none of it.
// The Service serializes all CommitPurchase calls; reads may run concurrently.
type Store interface {
	Inventory(ctx context.Context) ([]InventoryRecord, error)
	Orders(ctx context.Context) ([]Order, error)
	CommitPurchase(ctx context.Context, order Order) (Order, error)
	Seed(ctx context.Context, inventory []InventoryRecord, orders []Order) error
	Close() error
}
