// Package clob calls Polymarket CLOB endpoints.
package clob

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/oddsylabs/oddsy/pkg/httpclient"
)

// bookChunkSize is the CLOB limit on token IDs per /books request.
const bookChunkSize = 75

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
}

type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type OrderBook struct {
	AssetID string      `json:"asset_id"`
	Market  string      `json:"market"`
	Bids    []BookLevel `json:"bids"`
	Asks    []BookLevel `json:"asks"`
}

type bookRequest struct {
	TokenID string `json:"token_id"`
}

// Books fetches order books for the given token IDs, chunking requests
// to stay under the endpoint's batch limit.
func (c *Client) Books(ctx context.Context, tokenIDs []string) ([]OrderBook, error) {
	books := []OrderBook{}

	for start := 0; start < len(tokenIDs); start += bookChunkSize {
		end := min(start+bookChunkSize, len(tokenIDs))
		body := make([]bookRequest, 0, end-start)
		for _, id := range tokenIDs[start:end] {
			body = append(body, bookRequest{TokenID: id})
		}

		batch, err := httpclient.PostResource[[]OrderBook](ctx, c.httpClient, c.baseURL, "/books", body, []int{200})
		if err != nil {
			return books, fmt.Errorf("couldn't get books for %d tokens: %w", end-start, err)
		}
		books = append(books, batch...)
	}

	return books, nil
}
