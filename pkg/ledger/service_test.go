package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harunnryd/strum/pkg/catalog"
	"github.com/harunnryd/strum/pkg/errorsx"
	"github.com/harunnryd/strum/pkg/metrics"
)

func newTestService(t *testing.T, withFixtures bool) (*Service, []catalog.Product) {
	t.Helper()
	products := catalog.Default()
	store := NewMemoryStore()
	if err := Seed(context.Background(), store, products, withFixtures); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewService(store, products), products
}

func TestSeedQuantityDeterministic(t *testing.T) {
	if got := SeedQuantity(1); got != 6 {
		t.Errorf("SeedQuantity(1) = %d, want 6", got)
	}
	if got := SeedQuantity(10); got != 5 {
		t.Errorf("SeedQuantity(10) = %d, want 5", got)
	}
	if SeedQuantity(3) != SeedQuantity(3) {
		t.Error("seed quantity must be stable")
	}
}

func TestPurchaseDecrementsStockAndRecordsOrder(t *testing.T) {
	svc, products := newTestService(t, false)
	ctx := context.Background()

	order, err := svc.Purchase(ctx, "John Doe", []OrderItem{{ProductID: 1, Quantity: 2}})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if order.ID != 1 {
		t.Errorf("order id = %d, want 1", order.ID)
	}
	want := products[0].Price * 2
	if order.TotalAmount != want {
		t.Errorf("total = %v, want %v", order.TotalAmount, want)
	}

	inventory, err := svc.Inventory(ctx)
	if err != nil {
		t.Fatalf("Inventory: %v", err)
	}
	for _, rec := range inventory {
		if rec.ProductID == 1 && rec.Quantity != SeedQuantity(1)-2 {
			t.Errorf("stock after purchase = %d, want %d", rec.Quantity, SeedQuantity(1)-2)
		}
	}
}

func TestPurchaseEmptyRequest(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()

	cases := []struct {
		name     string
		customer string
		items    []OrderItem
	}{
		{"no customer", "", []OrderItem{{ProductID: 1, Quantity: 1}}},
		{"no items", "John", nil},
		{"zero quantity", "John", []OrderItem{{ProductID: 1, Quantity: 0}}},
		{"negative quantity", "John", []OrderItem{{ProductID: 1, Quantity: -2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Purchase(ctx, tc.customer, tc.items)
			if !errorsx.HasReason(err, errorsx.ReasonLedgerEmptyRequest) {
				t.Errorf("err = %v, want empty request", err)
			}
		})
	}
}

func TestPurchaseUnknownProductLeavesLedgerUntouched(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx := context.Background()
	before, _ := svc.Inventory(ctx)

	_, err := svc.Purchase(ctx, "John", []OrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 99, Quantity: 1},
	})
	if !errorsx.HasReason(err, errorsx.ReasonLedgerProductNotFound) {
		t.Fatalf("err = %v, want product not found", err)
	}
	var notFound *ProductNotFoundError
	if !errors.As(err, &notFound) || notFound.ProductID != 99 {
		t.Errorf("error detail = %v", err)
	}

	after, _ := svc.Inventory(ctx)
	for i := range before {
		if before[i].Quantity != after[i].Quantity {
			t.Errorf("stock of product %d changed on a rejected purchase", before[i].ProductID)
		}
	}
	orders, _ := svc.Orders(ctx)
	if len(orders) != 0 {
		t.Errorf("rejected purchase recorded an order")
	}
}

func TestPurchaseInsufficientStockReportsAvailability(t *testing.T) {
	products := []catalog.Product{{ID: 7, Name: "Test", Price: 100}}
	store := NewMemoryStore()
	if err := store.Seed(context.Background(), []InventoryRecord{{ProductID: 7, Quantity: 5}}, nil); err != nil {
		t.Fatal(err)
	}
	svc := NewService(store, products)

	_, err := svc.Purchase(context.Background(), "John", []OrderItem{{ProductID: 7, Quantity: 6}})
	var short *InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	if short.ProductID != 7 || short.Available != 5 {
		t.Errorf("detail = %+v", short)
	}
}

func TestPurchaseMultipleItemsSameProduct(t *testing.T) {
	products := []catalog.Product{{ID: 7, Name: "Test", Price: 100}}
	store := NewMemoryStore()
	if err := store.Seed(context.Background(), []InventoryRecord{{ProductID: 7, Quantity: 5}}, nil); err != nil {
		t.Fatal(err)
	}
	svc := NewService(store, products)

	// 3 + 3 exceeds stock even though each item alone fits.
	_, err := svc.Purchase(context.Background(), "John", []OrderItem{
		{ProductID: 7, Quantity: 3},
		{ProductID: 7, Quantity: 3},
	})
	if !errorsx.HasReason(err, errorsx.ReasonLedgerInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}

	order, err := svc.Purchase(context.Background(), "John", []OrderItem{
		{ProductID: 7, Quantity: 3},
		{ProductID: 7, Quantity: 2},
	})
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if order.TotalAmount != 500 {
		t.Errorf("total = %v, want 500", order.TotalAmount)
	}
}

func TestConcurrentPurchasesNeverOversell(t *testing.T) {
	products := []catalog.Product{{ID: 1, Name: "Test", Price: 100}}
	store := NewMemoryStore()
	if err := store.Seed(context.Background(), []InventoryRecord{{ProductID: 1, Quantity: 5}}, nil); err != nil {
		t.Fatal(err)
	}
	svc := NewService(store, products)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Purchase(context.Background(), "Racer", []OrderItem{{ProductID: 1, Quantity: 3}})
		}(i)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errorsx.HasReason(err, errorsx.ReasonLedgerInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("ok=%d short=%d, want exactly one of each", ok, short)
	}

	inventory, _ := svc.Inventory(context.Background())
	if inventory[0].Quantity != 2 {
		t.Errorf("remaining stock = %d, want 2", inventory[0].Quantity)
	}
}

func TestOrderIDsMonotonic(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	first, err := svc.Purchase(ctx, "A", []OrderItem{{ProductID: 1, Quantity: 1}})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Purchase(ctx, "B", []OrderItem{{ProductID: 2, Quantity: 1}})
	if err != nil {
		t.Fatal(err)
	}
	// Fixtures occupy ids 1..5.
	if first.ID != 6 || second.ID != 7 {
		t.Errorf("ids = %d, %d, want 6, 7", first.ID, second.ID)
	}
}

func TestOrdersNewestFirst(t *testing.T) {
	svc, _ := newTestService(t, true)
	ctx := context.Background()

	if _, err := svc.Purchase(ctx, "New", []OrderItem{{ProductID: 1, Quantity: 1}}); err != nil {
		t.Fatal(err)
	}
	orders, err := svc.Orders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 6 {
		t.Fatalf("order count = %d, want 6", len(orders))
	}
	for i := 1; i < len(orders); i++ {
		prev, cur := orders[i-1], orders[i]
		if cur.OrderDate.After(prev.OrderDate) {
			t.Fatalf("orders not newest-first at index %d", i)
		}
		if cur.OrderDate.Equal(prev.OrderDate) && cur.ID > prev.ID {
			t.Fatalf("tie not broken by id at index %d", i)
		}
	}
	if orders[0].CustomerName != "New" {
		t.Errorf("latest order not first: %+v", orders[0])
	}
}

func TestInventoryJoinsCatalogDetails(t *testing.T) {
	svc, products := newTestService(t, false)
	details, err := svc.Inventory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(details) != len(products) {
		t.Fatalf("detail count = %d, want %d", len(details), len(products))
	}
	for _, d := range details {
		if d.Guitar == nil {
			t.Fatalf("product %d missing catalog join", d.ProductID)
		}
		if d.Guitar.ID != d.ProductID {
			t.Errorf("join mismatch: %d vs %d", d.Guitar.ID, d.ProductID)
		}
	}
}

func TestPurchaseRecordsMetrics(t *testing.T) {
	products := []catalog.Product{{ID: 1, Price: 100}}
	store := NewMemoryStore()
	_ = store.Seed(context.Background(), []InventoryRecord{{ProductID: 1, Quantity: 2}}, nil)
	mem := metrics.NewMemoryObserver()
	svc := NewService(store, products, WithObserver(mem))

	if _, err := svc.Purchase(context.Background(), "John", []OrderItem{{ProductID: 1, Quantity: 1}}); err != nil {
		t.Fatal(err)
	}
	_, _ = svc.Purchase(context.Background(), "John", []OrderItem{{ProductID: 1, Quantity: 5}})

	if got := len(mem.Named(metrics.EventPurchaseCommitted)); got != 1 {
		t.Errorf("committed events = %d, want 1", got)
	}
	if got := len(mem.Named(metrics.EventPurchaseRejected)); got != 1 {
		t.Errorf("rejected events = %d, want 1", got)
	}
}

func TestPurchaseUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	products := []catalog.Product{{ID: 1, Price: 10}}
	store := NewMemoryStore()
	_ = store.Seed(context.Background(), []InventoryRecord{{ProductID: 1, Quantity: 1}}, nil)
	svc := NewService(store, products, WithClock(func() time.Time { return fixed }))

	order, err := svc.Purchase(context.Background(), "A", []OrderItem{{ProductID: 1, Quantity: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !order.OrderDate.Equal(fixed) {
		t.Errorf("order date = %v, want %v", order.OrderDate, fixed)
	}
}
