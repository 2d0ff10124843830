package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteCommitAndReadBack(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx, []InventoryRecord{{ProductID: 1, Quantity: 6}, {ProductID: 2, Quantity: 7}}, nil); err != nil {
		t.Fatalf("seed: %v", err)
	}

	placed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	order, err := store.CommitPurchase(ctx, Order{
		CustomerName: "John Doe",
		Items:        []OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
		TotalAmount:  2400,
		OrderDate:    placed,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if order.ID == 0 {
		t.Fatal("order id not assigned")
	}

	inventory, err := store.Inventory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if inventory[0].Quantity != 4 || inventory[1].Quantity != 6 {
		t.Errorf("inventory after commit = %+v", inventory)
	}

	orders, err := store.Orders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("order count = %d", len(orders))
	}
	got := orders[0]
	if got.CustomerName != "John Doe" || got.TotalAmount != 2400 || !got.OrderDate.Equal(placed) {
		t.Errorf("order read back = %+v", got)
	}
	if len(got.Items) != 2 || got.Items[0].ProductID != 1 || got.Items[1].ProductID != 2 {
		t.Errorf("items read back = %+v", got.Items)
	}
}

func TestSQLiteCommitAllOrNothing(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx, []InventoryRecord{{ProductID: 1, Quantity: 5}, {ProductID: 2, Quantity: 1}}, nil); err != nil {
		t.Fatal(err)
	}

	// Second item exceeds stock; the first decrement must roll back with it.
	_, err := store.CommitPurchase(ctx, Order{
		CustomerName: "John",
		Items:        []OrderItem{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 4}},
		OrderDate:    time.Now(),
	})
	if err == nil {
		t.Fatal("expected commit failure")
	}

	inventory, _ := store.Inventory(ctx)
	if inventory[0].Quantity != 5 || inventory[1].Quantity != 1 {
		t.Errorf("partial commit leaked: %+v", inventory)
	}
	orders, _ := store.Orders(ctx)
	if len(orders) != 0 {
		t.Errorf("failed purchase recorded an order")
	}
}

func TestSQLiteSeedOnlyWhenEmpty(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx, []InventoryRecord{{ProductID: 1, Quantity: 6}}, FixtureOrders()); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CommitPurchase(ctx, Order{
		CustomerName: "John",
		Items:        []OrderItem{{ProductID: 1, Quantity: 1}},
		OrderDate:    time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	// A restart seeds again; committed state must survive.
	if err := store.Seed(ctx, []InventoryRecord{{ProductID: 1, Quantity: 6}}, FixtureOrders()); err != nil {
		t.Fatal(err)
	}
	inventory, _ := store.Inventory(ctx)
	if inventory[0].Quantity != 5 {
		t.Errorf("reseed reset inventory: %+v", inventory)
	}
	orders, _ := store.Orders(ctx)
	if len(orders) != len(FixtureOrders())+1 {
		t.Errorf("order count after reseed = %d", len(orders))
	}
}

func TestSQLiteFixtureOrderIDsContinue(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx, []InventoryRecord{{ProductID: 1, Quantity: 6}}, FixtureOrders()); err != nil {
		t.Fatal(err)
	}
	order, err := store.CommitPurchase(ctx, Order{
		CustomerName: "John",
		Items:        []OrderItem{{ProductID: 1, Quantity: 1}},
		OrderDate:    time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if order.ID != 6 {
		t.Errorf("order id = %d, want 6 (fixtures end at 5)", order.ID)
	}
}
