// Package httpclient provides small generic helpers for calling JSON APIs.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GetResource performs a GET against baseURL+endpoint and decodes the JSON
// response into T. Responses with a status outside okStatuses are returned
// as errors together with the response body.
func GetResource[T any](ctx context.Context, client *http.Client, baseURL, endpoint string, headers http.Header, okStatuses []int) (T, error) {
	var zero T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+endpoint, nil)
	if err != nil {
		return zero, fmt.Errorf("couldn't build request for %s: %w", endpoint, err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	return do[T](client, req, okStatuses)
}

// PostResource performs a POST with a JSON body and decodes the JSON
// response into T.
func PostResource[T any](ctx context.Context, client *http.Client, baseURL, endpoint string, body any, okStatuses []int) (T, error) {
	var zero T

	payload, err := json.Marshal(body)
	if err != nil {
		return zero, fmt.Errorf("couldn't encode body for %s: %w", endpoint, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return zero, fmt.Errorf("couldn't build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return do[T](client, req, okStatuses)
}

func do[T any](client *http.Client, req *http.Request, okStatuses []int) (T, error) {
	var zero T

	resp, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("couldn't call %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	ok := false
	for _, s := range okStatuses {
		if resp.StatusCode == s {
			ok = true
			break
		}
	}
	if !ok {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return zero, fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, req.URL.Path, body)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("couldn't decode response from %s: %w", req.URL.Path, err)
	}
	return out, nil
}
