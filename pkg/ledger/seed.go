package ledger

import (
	"context"
	"time"

	"github.com/harunnryd/strum/pkg/catalog"
)

// SeedQuantity derives the initial stock for a product. Deterministic so
// repeated boots and tests agree on starting state.
func SeedQuantity(productID int) int {
	return 5 + productID%10
}

// SeedInventory builds one record per catalog product.
func SeedInventory(products []catalog.Product) []InventoryRecord {
	out := make([]InventoryRecord, 0, len(products))
	for _, p := range products {
		out = append(out, InventoryRecord{ProductID: p.ID, Quantity: SeedQuantity(p.ID)})
	}
	return out
}

// FixtureOrders returns the historical orders the fulfillment service has
// always shipped with, so fresh installs show a populated order book.
func FixtureOrders() []Order {
	date := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	return []Order{
		{ID: 1, CustomerName: "John Doe", Items: []OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, TotalAmount: 1200, OrderDate: date("2025-01-17")},
		{ID: 2, CustomerName: "Jane Doe", Items: []OrderItem{{ProductID: 3, Quantity: 3}}, TotalAmount: 2500, OrderDate: date("2025-03-12")},
		{ID: 3, CustomerName: "Bob Smith", Items: []OrderItem{{ProductID: 1, Quantity: 1}, {ProductID: 2, Quantity: 2}}, TotalAmount: 2200, OrderDate: date("2025-02-14")},
		{ID: 4, CustomerName: "Alice Johnson", Items: []OrderItem{{ProductID: 4, Quantity: 1}}, TotalAmount: 1500, OrderDate: date("2025-01-19")},
		{ID: 5, CustomerName: "Mike Brown", Items: []OrderItem{{ProductID: 5, Quantity: 2}, {ProductID: 6, Quantity: 1}}, TotalAmount: 1800, OrderDate: date("2025-02-19")},
	}
}

// Seed initializes a store from the catalog, optionally with fixture orders.
func Seed(ctx context.Context, store Store, products []catalog.Product, withFixtures bool) error {
	var orders []Order
	if withFixtures {
		orders = FixtureOrders()
	}
	return store.Seed(ctx, SeedInventory(products), orders)
}
