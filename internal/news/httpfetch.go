package news

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	fetchTimeout   = 15 * time.Second
	fetchUserAgent = "polyforecast/1.0"
	maxFetchRetry  = 2
)

// fetcher issues GET requests with retry on transient failures. Rate
// limiting stays in the providers; the fetcher only handles transport
// concerns shared by every provider.
type fetcher struct {
	client *http.Client
}

func newFetcher() *fetcher {
	return &fetcher{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// get fetches url and returns the response body. 429 and 5xx responses
// are retried with exponential backoff; other non-200 statuses fail
// immediately with a body excerpt in the error.
func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		req.Header.Set("User-Agent", fetchUserAgent)
		req.Header.Set("Accept", "application/json, application/xml, text/xml, */*")

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("status %d: %s", resp.StatusCode, excerpt(data))
		default:
			return backoff.Permanent(fmt.Errorf("status %d: %s", resp.StatusCode, excerpt(data)))
		}
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxFetchRetry), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}

	return body, nil
}

func excerpt(body []byte) string {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
