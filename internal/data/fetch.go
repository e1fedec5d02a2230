package data

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher downloads JSON datasets from a scenario server.
type Fetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
	// Cache is optional; nil disables caching.
	Cache *Cache[Dataset]
}

// NewFetcher returns a fetcher with a 30s HTTP timeout.
func NewFetcher(baseURL, token string) *Fetcher {
	return &Fetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchError is a non-200 answer from the scenario server.
type FetchError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *FetchError) Error() string {
	return e.Message
}

// Fetch downloads the dataset called name from {BaseURL}/scenarios/{name}.json.
func (f *Fetcher) Fetch(ctx context.Context, name string) (Dataset, error) {
	if f.BaseURL == "" {
		return nil, &FetchError{Code: "MISSING_BASE_URL", Message: "scenario server base URL is required"}
	}
	if name == "" {
		return nil, fmt.Errorf("scenario name is required")
	}

	key := CacheKey(f.BaseURL, name)
	if ds, ok := f.Cache.Get(key); ok {
		log.Printf("[Fetch] Cache hit: %s (%d tables)", name, len(ds))
		return ds, nil
	}

	u, err := url.Parse(f.BaseURL + "/scenarios/" + url.PathEscape(name) + ".json")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	log.Printf("[Fetch] Request: GET %s", u.Path)
	start := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("[Fetch] Request failed: %v (duration: %v)", err, duration)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("[Fetch] Response: %s (duration: %v, scenario=%s)", resp.Status, duration, name)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &FetchError{StatusCode: resp.StatusCode, Code: "UNAUTHORIZED", Message: "scenario server rejected the token"}
	case http.StatusNotFound:
		return nil, &FetchError{StatusCode: resp.StatusCode, Code: "NOT_FOUND", Message: fmt.Sprintf("scenario %q not found", name)}
	default:
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("scenario server returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}

	ds, err := DecodeJSON(resp.Body)
	if err != nil {
		return nil, err
	}
	if err := CheckSchema(Normalize(ds)); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	log.Printf("[Fetch] Success: %s (%d tables)", name, len(ds))
	f.Cache.Set(key, ds)
	return ds, nil
}
