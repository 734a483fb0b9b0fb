package defimcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListTrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/trades" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("unexpected limit %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"t-1","kind":"transfer","status":"confirmed","amount_wei":"1000"}]`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	trades, err := client.ListTrades(context.Background(), 5)
	if err != nil {
		t.Fatalf("list trades: %v", err)
	}
	if len(trades) != 1 || trades[0].ID != "t-1" || trades[0].AmountWei != "1000" {
		t.Fatalf("unexpected trades: %+v", trades)
	}
}

func TestGetTradeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "trade not found", http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.GetTrade(context.Background(), "missing")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	health, err := client.Healthz(context.Background())
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("unexpected status %q", health.Status)
	}
}
