// Package gamma consumes Polymarket gamma endpoints.
package gamma

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oddsylabs/oddsy/internal/adapter"
	"github.com/oddsylabs/oddsy/pkg/httpclient"
)

const (
	pageLimit = 500
	// maxPages caps offset pagination so a refresh cycle stays bounded.
	maxPages = 5
)

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

// Markets pages through open gamma markets. Records are returned raw;
// the caller explodes the per-outcome list fields before adaptation.
func (c *Client) Markets(ctx context.Context) ([]adapter.RawRecord, error) {
	records := []adapter.RawRecord{}

	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageLimit))
		query.Set("offset", strconv.Itoa(page*pageLimit))
		query.Set("closed", "false")

		batch, err := httpclient.GetResource[[]adapter.RawRecord](ctx, c.httpClient, c.baseURL, "/markets?"+query.Encode(), nil, []int{200})
		if err != nil {
			return records, fmt.Errorf("couldn't get markets at offset %d: %w", page*pageLimit, err)
		}
		records = append(records, batch...)

		if len(batch) < pageLimit {
			break
		}
	}

	return records, nil
}
