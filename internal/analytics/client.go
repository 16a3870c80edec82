package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/maheshrc27/socialsync-api/internal/models"
)

// ProviderError is a non-2xx answer other than 401.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.StatusCode)
}

type apiClient struct {
	http *http.Client
}

func (c apiClient) getJSON(ctx context.Context, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, header, out)
}

func (c apiClient) postJSON(ctx context.Context, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	return c.do(req, header, out)
}

func (c apiClient) do(req *http.Request, header http.Header, out any) error {
	for k, v := range header {
		req.Header[k] = v
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return providerError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return providerError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return models.ErrProviderUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > 2048 {
			body = body[:2048]
		}
		return &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}

// providerError maps transport failures, keeping timeouts distinguishable.
func providerError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrProviderTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", models.ErrProviderTimeout, err)
	}
	return err
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

type subFetch struct {
	name string
	run  func(ctx context.Context) error
}

// runSubFetches runs independent best-effort fetches concurrently. Failures
// are logged and returned as warnings; they never fail the caller.
func runSubFetches(ctx context.Context, platform models.Platform, tasks ...subFetch) []string {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		warnings []string
	)

	for _, task := range tasks {
		wg.Add(1)
		go func(task subFetch) {
			defer wg.Done()

			if err := task.run(ctx); err != nil {
				slog.Warn("analytics sub-fetch failed", "platform", platform, "fetch", task.name, "error", err)
				mu.Lock()
				warnings = append(warnings, task.name+" unavailable")
				mu.Unlock()
			}
		}(task)
	}

	wg.Wait()
	sort.Strings(warnings)
	return warnings
}

func clampLimit(limit, min, max int) int {
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}
