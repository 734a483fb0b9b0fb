package quote

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	xerrors "OpenMCP-DeFi/internal/errors"
)

func TestPriceBuildsRequestAndParsesBuyAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/swap/permit2/price" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("0x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("0x-version") != "v2" {
			t.Errorf("missing version header")
		}
		q := r.URL.Query()
		if q.Get("chainId") != "1" {
			t.Errorf("chainId = %s", q.Get("chainId"))
		}
		if q.Get("sellToken") != ETHSentinel {
			t.Errorf("sellToken = %s, want sentinel", q.Get("sellToken"))
		}
		if q.Get("sellAmount") != "1000000000000000000" {
			t.Errorf("sellAmount = %s", q.Get("sellAmount"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"buyAmount":"2500000000","sellAmount":"1000000000000000000"}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	price, err := client.Price(context.Background(), "ETH", "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		big.NewInt(1_000_000_000_000_000_000))
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.BuyAmount == nil || price.BuyAmount.Cmp(big.NewInt(2_500_000_000)) != 0 {
		t.Fatalf("buy amount = %v, want 2500000000", price.BuyAmount)
	}
	if len(price.Raw) == 0 {
		t.Fatal("expected raw response to be preserved")
	}
}

func TestPriceUpstreamErrorIsQuoteUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"reason":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Price(context.Background(), "ETH", "0x01", big.NewInt(1))
	if xerrors.CodeOf(err) != CodeQuoteUnavailable {
		t.Fatalf("code = %s, want %s", xerrors.CodeOf(err), CodeQuoteUnavailable)
	}
}

func TestPriceToleratesUnparsableBuyAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"liquidityAvailable":false}`))
	}))
	defer server.Close()

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	price, err := client.Price(context.Background(), "ETH", "0x01", big.NewInt(1))
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if price.BuyAmount != nil {
		t.Fatalf("buy amount = %v, want nil", price.BuyAmount)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestNormalizeAsset(t *testing.T) {
	if NormalizeAsset("eth") != ETHSentinel {
		t.Fatal("eth should map to the sentinel address")
	}
	if NormalizeAsset(" ETH ") != ETHSentinel {
		t.Fatal("padded ETH should map to the sentinel address")
	}
	token := "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	if NormalizeAsset(token) != token {
		t.Fatal("token addresses must pass through unchanged")
	}
}
