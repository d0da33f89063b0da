// Package kalshi is used to call Kalshi's trade API endpoints.
package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oddsylabs/oddsy/internal/adapter"
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/pkg/httpclient"
)

const (
	apiPrefix = "/trade-api/v2"
	pageLimit = 500
	// maxPages caps cursor pagination so a bad cursor can never loop the
	// refresh cycle forever.
	maxPages = 5
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	privateKey *rsa.PrivateKey
	now        func() time.Time
}

func New(baseURL, keyID string, privateKey *rsa.PrivateKey) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		keyID:      keyID,
		privateKey: privateKey,
		now:        time.Now,
	}
}

// Platform reports which exchange this client serves.
func (c *Client) Platform() platform.Platform {
	return platform.Kalshi
}

type marketPage struct {
	Markets []adapter.RawRecord `json:"markets"`
	Cursor  string              `json:"cursor"`
}

type tradePage struct {
	Trades []adapter.RawRecord `json:"trades"`
	Cursor string              `json:"cursor"`
}

// FetchMarkets retrieves open markets, following cursors up to the page
// cap.
func (c *Client) FetchMarkets(ctx context.Context) ([]adapter.RawRecord, error) {
	records := []adapter.RawRecord{}
	cursor := ""

	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageLimit))
		query.Set("status", "open")
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		p, err := get[marketPage](ctx, c, "/markets", query)
		if err != nil {
			return records, fmt.Errorf("couldn't get markets for cursor %q: %w", cursor, err)
		}
		records = append(records, p.Markets...)

		if p.Cursor == "" || len(p.Markets) == 0 || cursorDone(p.Cursor) {
			break
		}
		cursor = p.Cursor
	}

	return records, nil
}

// FetchTrades retrieves trades executed since the given time.
func (c *Client) FetchTrades(ctx context.Context, since time.Time) ([]adapter.RawRecord, error) {
	records := []adapter.RawRecord{}
	cursor := ""

	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageLimit))
		query.Set("min_ts", strconv.FormatInt(since.Unix(), 10))
		query.Set("max_ts", strconv.FormatInt(c.now().Unix(), 10))
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		p, err := get[tradePage](ctx, c, "/markets/trades", query)
		if err != nil {
			return records, fmt.Errorf("couldn't get trades for cursor %q: %w", cursor, err)
		}
		records = append(records, p.Trades...)

		if p.Cursor == "" || len(p.Trades) == 0 || cursorDone(p.Cursor) {
			break
		}
		cursor = p.Cursor
	}

	return records, nil
}

// cursorDone recognizes Kalshi's base64 "-1" end-of-results sentinel.
func cursorDone(cursor string) bool {
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	return err == nil && string(decoded) == "-1"
}

func get[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (T, error) {
	var zero T

	path := apiPrefix + endpoint
	headers, err := c.signedHeaders(http.MethodGet, path)
	if err != nil {
		return zero, err
	}

	full := path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	return httpclient.GetResource[T](ctx, c.httpClient, c.baseURL, full, headers, []int{200})
}

// signedHeaders builds Kalshi's access headers: an RSA-PSS SHA-256
// signature over timestamp+method+path, query string excluded.
func (c *Client) signedHeaders(method, path string) (http.Header, error) {
	if c.keyID == "" || c.privateKey == nil {
		// Public endpoints work unsigned.
		return http.Header{}, nil
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	signature, err := c.sign(timestamp, method, path)
	if err != nil {
		return nil, fmt.Errorf("couldn't sign request: %w", err)
	}

	h := http.Header{}
	h.Set("KALSHI-ACCESS-KEY", c.keyID)
	h.Set("KALSHI-ACCESS-SIGNATURE", signature)
	h.Set("KALSHI-ACCESS-TIMESTAMP", timestamp)
	return h, nil
}

func (c *Client) sign(timestamp, method, path string) (string, error) {
	path, _, _ = strings.Cut(path, "?")
	message := []byte(timestamp + method + path)

	hash := crypto.SHA256.New()
	hash.Write(message)

	sig, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash.Sum(nil), &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
