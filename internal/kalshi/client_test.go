package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestFetchMarketsPagination(t *testing.T) {
	pages := map[string][]map[string]any{
		"":   {{"ticker": "M1"}, {"ticker": "M2"}},
		"c1": {{"ticker": "M3"}},
	}
	cursors := map[string]string{"": "c1", "c1": b64("-1")}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trade-api/v2/markets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("status") != "open" {
			t.Errorf("status = %q, want open", r.URL.Query().Get("status"))
		}
		cursor := r.URL.Query().Get("cursor")
		json.NewEncoder(w).Encode(map[string]any{
			"markets": pages[cursor],
			"cursor":  cursors[cursor],
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	records, err := c.FetchMarkets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3 across pages", len(records))
	}
	if records[2]["ticker"] != "M3" {
		t.Errorf("last record = %v", records[2])
	}
}

func TestFetchMarketsPageCap(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Always hand back a live cursor: only the cap stops the loop.
		json.NewEncoder(w).Encode(map[string]any{
			"markets": []map[string]any{{"ticker": "M"}},
			"cursor":  "more",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	if _, err := c.FetchMarkets(context.Background()); err != nil {
		t.Fatal(err)
	}
	if calls != maxPages {
		t.Errorf("made %d calls, want page cap %d", calls, maxPages)
	}
}

func TestFetchTradesWindow(t *testing.T) {
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	now := since.Add(7 * 24 * time.Hour)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("min_ts") != "1748736000" {
			t.Errorf("min_ts = %q", q.Get("min_ts"))
		}
		if q.Get("max_ts") == "" {
			t.Error("max_ts missing")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"trades": []map[string]any{{"trade_id": "t1", "ticker": "M1"}},
			"cursor": "",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	c.now = func() time.Time { return now }

	records, err := c.FetchTrades(context.Background(), since)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0]["ticker"] != "M1" {
		t.Errorf("records = %v", records)
	}
}

func TestSignedHeaders(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		json.NewEncoder(w).Encode(map[string]any{"markets": []map[string]any{}, "cursor": ""})
	}))
	defer srv.Close()

	c := New(srv.URL, "key-id", key)
	c.now = func() time.Time { return time.UnixMilli(1748781600000) }

	if _, err := c.FetchMarkets(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got.Get("KALSHI-ACCESS-KEY") != "key-id" {
		t.Errorf("access key header = %q", got.Get("KALSHI-ACCESS-KEY"))
	}
	if got.Get("KALSHI-ACCESS-TIMESTAMP") != "1748781600000" {
		t.Errorf("timestamp header = %q", got.Get("KALSHI-ACCESS-TIMESTAMP"))
	}

	// The signature must verify over timestamp+method+path without query.
	sig, err := base64.StdEncoding.DecodeString(got.Get("KALSHI-ACCESS-SIGNATURE"))
	if err != nil {
		t.Fatal(err)
	}
	message := "1748781600000" + "GET" + "/trade-api/v2/markets"
	hash := crypto.SHA256.New()
	hash.Write([]byte(message))
	err = rsa.VerifyPSS(&key.PublicKey, crypto.SHA256, hash.Sum(nil), sig, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
}

func TestUnsignedWhenNoKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("KALSHI-ACCESS-KEY") != "" {
			t.Error("unsigned client must not send access headers")
		}
		json.NewEncoder(w).Encode(map[string]any{"markets": []map[string]any{}, "cursor": ""})
	}))
	defer srv.Close()

	c := New(srv.URL, "", nil)
	if _, err := c.FetchMarkets(context.Background()); err != nil {
		t.Fatal(err)
	}
}
