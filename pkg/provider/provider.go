// Package provider adapts heterogeneous LLM vendor APIs to one generate
// contract: conversation in, normalized text/tool-call/usage out.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tollgate-ai/tollgate/pkg/models"
)

// Adapter translates one vendor's chat-completion API into the internal
// generate contract. Adapters hold no mutable state beyond their bound
// model config, API key and base URL.
type Adapter interface {
	// Name returns the vendor name used in error prefixes and logs.
	Name() string
	// Generate issues exactly one call to the vendor and normalizes the
	// response. A nil error guarantees a non-nil result.
	Generate(ctx context.Context, history []models.Message, prompt string, tools []models.ToolDefinition) (*models.GenerateResult, error)
}

var (
	// ErrTimeout reports that the vendor call hit the per-call deadline.
	// It is distinct from a vendor rejection and never triggers a backoff.
	ErrTimeout = errors.New("provider call timed out")

	// ErrBadToolArgs reports tool-call arguments that are not valid JSON.
	// Executing a tool with garbage arguments is worse than failing loudly.
	ErrBadToolArgs = errors.New("malformed tool call arguments")

	// ErrEmptyResponse reports a 2xx vendor response with no usable choice.
	ErrEmptyResponse = errors.New("no completion returned")
)

// callTimeout bounds every vendor call.
const callTimeout = 60 * time.Second

// ProviderError wraps a vendor failure with enough shape for the dispatcher
// to compute backoff without vendor-specific knowledge. The original cause
// is preserved for diagnostics via Unwrap.
type ProviderError struct {
	Vendor     string
	StatusCode int           // 0 when the request never produced a response
	Throttled  bool          // vendor signaled rate limiting (429)
	RetryAfter time.Duration // from the Retry-After header, 0 when absent
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s API Error: %v", e.Vendor, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// postResult is one raw vendor HTTP exchange.
type postResult struct {
	status     int
	body       []byte
	retryAfter time.Duration
}

// postJSON sends one JSON request under the per-call deadline and returns
// the raw response. Transport failures and deadline hits come back wrapped
// as *ProviderError for the named vendor.
func postJSON(ctx context.Context, client *http.Client, vendor, url string, headers map[string]string, payload any) (*postResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Vendor: vendor, Err: fmt.Errorf("encode request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Vendor: vendor, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ProviderError{Vendor: vendor, Err: ErrTimeout}
		}
		return nil, &ProviderError{Vendor: vendor, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Vendor: vendor, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	return &postResult{
		status:     resp.StatusCode,
		body:       respBody,
		retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}, nil
}

// vendorError builds the ProviderError for a non-2xx vendor response,
// surfacing the vendor's own error message when the body carries one.
func vendorError(vendor string, res *postResult) *ProviderError {
	msg := gjson.GetBytes(res.body, "error.message").String()
	if msg == "" {
		msg = string(res.body)
	}
	return &ProviderError{
		Vendor:     vendor,
		StatusCode: res.status,
		Throttled:  res.status == http.StatusTooManyRequests,
		RetryAfter: res.retryAfter,
		Err:        fmt.Errorf("status %d: %s", res.status, msg),
	}
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
