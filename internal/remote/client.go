package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "stellarsync/0.1"

// rateLimitMarker is the substring the upstream embeds in its error message
// when a caller exceeds its quota. The marker arrives inside a normal 200
// response envelope, so it must be checked independently of the HTTP status.
const rateLimitMarker = "rate limit"

// Client is a read-only HTTP client for the upstream catalog API. It handles
// request construction, response envelope decoding, and error classification.
// It performs no retries and mutates no local state; retry policy belongs to
// the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a catalog API client. The httpClient should carry the
// per-request timeout; pass nil to use http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// deltaQuery returns the query values for an optional modified-since
// watermark. A nil watermark means a full fetch.
func deltaQuery(since *time.Time) url.Values {
	q := url.Values{}
	if since != nil {
		q.Set("date_modified", since.UTC().Format(time.RFC3339))
	}

	return q
}

// fetchList performs one GET against the given sub-path and decodes the
// response envelope's data array. Failures are classified into the three
// sentinel kinds; the endpoint name is carried in the returned APIError.
func fetchList[T any](ctx context.Context, c *Client, endpoint, path string, query url.Values) ([]T, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, Message: err.Error(), Err: ErrRejected}
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Context cancellation is the caller's doing, not an upstream fault.
		if ctx.Err() != nil {
			return nil, fmt.Errorf("remote: %s: request canceled: %w", endpoint, ctx.Err())
		}

		return nil, &APIError{Endpoint: endpoint, Message: err.Error(), Err: ErrUnavailable}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "reading response body: " + err.Error(), Err: ErrUnavailable}
	}

	if err := classifyStatus(endpoint, resp.StatusCode, body); err != nil {
		return nil, err
	}

	var env struct {
		envelope
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "malformed response body: " + err.Error(), Err: ErrRejected}
	}

	// The upstream signals overload inside a 200 envelope. Check the marker
	// before trusting the HTTP status.
	if env.Status == "error" {
		if strings.Contains(strings.ToLower(env.Message), rateLimitMarker) {
			return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: env.Message, Err: ErrRateLimited}
		}

		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: env.Message, Err: ErrRejected}
	}

	var records []T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: "malformed data array: " + err.Error(), Err: ErrRejected}
		}
	}

	c.logger.Debug("fetched records",
		slog.String("endpoint", endpoint),
		slog.Int("count", len(records)),
	)

	return records, nil
}

// classifyStatus maps a non-2xx HTTP status to a sentinel error. 429 counts
// as rate-limited, 5xx as transient, everything else as a permanent reject.
// The upstream embeds its rate-limit signal in the response envelope under
// any HTTP status, so the body marker wins over the status code: a 503
// carrying the rate-limit envelope is rate-limited, not a transient fault
// to retry against.
func classifyStatus(endpoint string, code int, body []byte) error {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Status == "error" &&
		strings.Contains(strings.ToLower(env.Message), rateLimitMarker) {
		return &APIError{Endpoint: endpoint, StatusCode: code, Message: env.Message, Err: ErrRateLimited}
	}

	msg := strings.TrimSpace(string(body))

	apiErr := &APIError{Endpoint: endpoint, StatusCode: code, Message: msg}

	switch {
	case code == http.StatusTooManyRequests:
		apiErr.Err = ErrRateLimited
	case code >= http.StatusInternalServerError:
		apiErr.Err = ErrUnavailable
	default:
		apiErr.Err = ErrRejected
	}

	return apiErr
}
