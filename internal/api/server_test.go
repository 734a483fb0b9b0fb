package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"OpenMCP-DeFi/internal/journal"

	"github.com/ethereum/go-ethereum/common"
)

func seedStore(t *testing.T) journal.Store {
	t.Helper()
	store := journal.NewMemoryStore()
	entries := []*journal.Entry{
		{ID: "t-1", Kind: journal.KindTransfer, Account: "0xabc", AmountWei: "100", Status: journal.StatusConfirmed, CreatedAt: 1_700_000_000},
		{ID: "t-2", Kind: journal.KindSwapIn, Account: "0xabc", AmountWei: "200", Status: journal.StatusFailed, ErrorCode: "INSUFFICIENT_FUNDS", CreatedAt: 1_700_000_010},
	}
	for _, entry := range entries {
		if err := store.Save(context.Background(), entry); err != nil {
			t.Fatalf("seed entry %s: %v", entry.ID, err)
		}
	}
	return store
}

func TestHandleTradesListsNewestFirst(t *testing.T) {
	server := NewServer(":0", seedStore(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades?limit=10", nil)
	rec := httptest.NewRecorder()
	server.handleTrades(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []journal.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].ID != "t-2" {
		t.Fatalf("expected newest entry first, got %s", got[0].ID)
	}
}

func TestHandleTradeDetail(t *testing.T) {
	server := NewServer(":0", seedStore(t), nil)

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/t-1", nil)
		rec := httptest.NewRecorder()
		server.handleTradeDetail(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var got journal.Entry
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if got.ID != "t-1" || got.Kind != journal.KindTransfer {
			t.Fatalf("unexpected entry: %+v", got)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/missing", nil)
		rec := httptest.NewRecorder()
		server.handleTradeDetail(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("invalid method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/trades/t-1", nil)
		rec := httptest.NewRecorder()
		server.handleTradeDetail(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func TestHandleAccounts(t *testing.T) {
	accounts := []common.Address{
		common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"),
	}
	server := NewServer(":0", nil, accounts)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	rec := httptest.NewRecorder()
	server.handleAccounts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		Accounts []string `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Accounts) != 1 || got.Accounts[0] != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Fatalf("unexpected accounts: %v", got.Accounts)
	}
}

func TestHandleTradesWithoutStore(t *testing.T) {
	server := NewServer(":0", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/trades", nil)
	rec := httptest.NewRecorder()
	server.handleTrades(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
