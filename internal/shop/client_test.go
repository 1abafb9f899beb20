package shop

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gameshop/gateway/internal/model"
)

func TestCreateCheckoutSession_OK(t *testing.T) {
	var gotBody []byte
	var calls int

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/checkout/create-checkout-session" {
			t.Fatalf("path = %s", r.URL.Path)
		}

		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://pay.example/fake"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	lines := model.Cart{
		{ID: "1", Title: "Test Game", Price: 50, Discount: 10, Quantity: 2, Stock: 10, Preorder: false},
	}
	ident := model.Identity{ID: "user123", Email: "user@example.com"}

	url, err := client.CreateCheckoutSession(ctx, ident, lines)
	if err != nil {
		t.Fatalf("CreateCheckoutSession error: %v", err)
	}
	if url != "https://pay.example/fake" {
		t.Fatalf("url = %q, want https://pay.example/fake", url)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want exactly 1", calls)
	}

	var payload struct {
		UserID string           `json:"userId"`
		Email  string           `json:"email"`
		Games  []model.CartLine `json:"games"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload.UserID != "user123" || payload.Email != "user@example.com" {
		t.Fatalf("unexpected identity in payload: %+v", payload)
	}
	if len(payload.Games) != 1 || payload.Games[0] != lines[0] {
		t.Fatalf("unexpected games in payload: %+v", payload.Games)
	}
}

func TestCreateCheckoutSession_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.CreateCheckoutSession(context.Background(), model.Identity{ID: "u"}, model.Cart{{ID: "1", Quantity: 1, Stock: 1}})
	if err == nil {
		t.Fatalf("expected error for 500 response")
	}
}

func TestCreateCheckoutSession_NotConfigured(t *testing.T) {
	var client *Client

	_, err := client.CreateCheckoutSession(context.Background(), model.Identity{ID: "u"}, nil)
	if err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
}

func TestGetOrders_OK(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/user123" {
			t.Fatalf("path = %s, want /api/orders/user123", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"_id":"o1","date":"2026-01-02T15:04:05Z","total":90.5,"status":"pagato","gameTitles":"Test Game"},
			{"_id":"o2","date":"2026-01-03T10:00:00Z","total":20,"status":"refunded","gameTitles":"Other Game"}
		]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	orders, err := client.GetOrders(context.Background(), "user123")
	if err != nil {
		t.Fatalf("GetOrders error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("len = %d, want 2", len(orders))
	}
	if orders[0].Status != model.OrderStatusPaid {
		t.Fatalf("status = %q, want paid", orders[0].Status)
	}
	if orders[0].Total != 90.5 || orders[0].GameTitles != "Test Game" {
		t.Fatalf("unexpected order: %+v", orders[0])
	}
	if orders[1].Status != model.OrderStatus("refunded") || orders[1].Status.Known() {
		t.Fatalf("unknown status must keep raw value, got %+v", orders[1].Status)
	}
}

func TestGetOrders_Empty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	orders, err := client.GetOrders(context.Background(), "user123")
	if err != nil {
		t.Fatalf("GetOrders error: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("len = %d, want 0", len(orders))
	}
}

func TestGetPublicOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/orders/public/o42" {
			t.Fatalf("path = %s, want /api/orders/public/o42", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"gameTitles":"Test Game, Other Game"}`))
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	titles, err := client.GetPublicOrder(context.Background(), "o42")
	if err != nil {
		t.Fatalf("GetPublicOrder error: %v", err)
	}
	if titles != "Test Game, Other Game" {
		t.Fatalf("titles = %q", titles)
	}
}

func TestGetPublicOrder_NotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	_, err := client.GetPublicOrder(context.Background(), "missing")
	if err == nil {
		t.Fatalf("expected error for 404 response")
	}
}
