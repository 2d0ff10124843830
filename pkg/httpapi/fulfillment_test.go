package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harunnryd/strum/pkg/catalog"
	"github.com/harunnryd/strum/pkg/ledger"
)

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFulfillmentServer(t *testing.T) *httptest.Server {
	t.Helper()
	products := catalog.Default()
	store := ledger.NewMemoryStore()
	if err := ledger.Seed(context.Background(), store, products, true); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := NewFulfillmentHandler(ledger.NewService(store, products), quietLogger())
	ts := httptest.NewServer(NewFulfillmentRouter(h, quietLogger()))
	t.Cleanup(ts.Close)
	return ts
}

func decodeEnvelope(t *testing.T, body io.Reader) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestFulfillmentProducts(t *testing.T) {
	ts := newFulfillmentServer(t)

	resp, err := http.Get(ts.URL + "/products")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	// Resources come back bare, without the error envelope.
	var products []catalog.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != len(catalog.Default()) {
		t.Errorf("product count = %d", len(products))
	}
}

func TestFulfillmentInventory(t *testing.T) {
	ts := newFulfillmentServer(t)

	resp, err := http.Get(ts.URL + "/inventory")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var details []ledger.InventoryDetail
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(details) == 0 || details[0].Guitar == nil {
		t.Errorf("inventory not joined with catalog: %+v", details)
	}
}

func TestFulfillmentPurchase(t *testing.T) {
	ts := newFulfillmentServer(t)

	payload, _ := json.Marshal(PurchaseRequest{
		CustomerName: "John Doe",
		Items:        []ledger.OrderItem{{ProductID: 1, Quantity: 1}},
	})
	resp, err := http.Post(ts.URL+"/purchase", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var order ledger.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if order.CustomerName != "John Doe" || order.ID == 0 {
		t.Errorf("order = %+v", order)
	}
	if order.TotalAmount != catalog.Default()[0].Price {
		t.Errorf("total = %v", order.TotalAmount)
	}
}

func TestFulfillmentPurchaseErrors(t *testing.T) {
	ts := newFulfillmentServer(t)

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed payload", "{", http.StatusBadRequest, "BAD_REQUEST"},
		{"empty request", `{"customerName":"","items":[]}`, http.StatusBadRequest, "EMPTY_REQUEST"},
		{"unknown product", `{"customerName":"John","items":[{"guitarId":99,"quantity":1}]}`, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"insufficient stock", `{"customerName":"John","items":[{"guitarId":1,"quantity":9999}]}`, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/purchase", "application/json", strings.NewReader(tc.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			env := decodeEnvelope(t, resp.Body)
			if env.Success || env.Error.Code != tc.wantCode {
				t.Errorf("envelope = %+v, want code %s", env, tc.wantCode)
			}
		})
	}
}

func TestFulfillmentOrdersAfterPurchase(t *testing.T) {
	ts := newFulfillmentServer(t)

	payload := `{"customerName":"Jane","items":[{"guitarId":2,"quantity":1}]}`
	resp, err := http.Post(ts.URL+"/purchase", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/orders")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var orders []ledger.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(orders) == 0 || orders[0].CustomerName != "Jane" {
		t.Errorf("newest order not first: %+v", orders)
	}
}
