// internal/upstream/client.go
//
// JSON client for the v0 Platform API.
//
// Context
// -------
// Both gateways (internal/generator and internal/deployer) talk to the same
// remote API with the same bearer key, so the transport lives here:
//
//   - Two go-retryablehttp clients.  `idem` retries GET and DELETE calls up
//     to RetryMax times; `once` never retries, because a repeated POST could
//     create a second chat or deployment.
//   - Every call carries an `X-Request-Id` (uuid) that is also logged.
//   - Non-2xx responses become *Error with the remote message preserved.
//   - Latency is observed per logical call name in Prometheus.
//
// Notes
// -----
//   - The state machine never retries; anything here is transport only.
//   - Oxford commas, two spaces after periods.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yanizio/pagesmith/internal/metrics"
)

// DefaultBaseURL is the public v0 Platform API root.
const DefaultBaseURL = "https://api.v0.dev"

// maxErrorBody caps how much of an error body is copied into messages.
const maxErrorBody = 2048

// Options configures a Client.
type Options struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	RetryMax int
	Logger   *zap.SugaredLogger
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	idem    *retryablehttp.Client
	once    *retryablehttp.Client
	log     *zap.SugaredLogger
}

// New builds a Client.  Zero Timeout means no client-side deadline beyond
// the caller's context.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	mk := func(retries int) *retryablehttp.Client {
		c := retryablehttp.NewClient()
		c.RetryMax = retries
		c.RetryWaitMin = 250 * time.Millisecond
		c.RetryWaitMax = 2 * time.Second
		c.HTTPClient.Timeout = opts.Timeout
		c.Logger = zapLeveled{log}
		// Return the last response instead of a generic "giving up" error
		// so the remote message survives.
		c.ErrorHandler = retryablehttp.PassthroughErrorHandler
		return c
	}

	return &Client{
		baseURL: base,
		apiKey:  opts.APIKey,
		idem:    mk(opts.RetryMax),
		once:    mk(0),
		log:     log,
	}
}

// Do sends one request.  in is JSON-encoded when non-nil; out is decoded
// from a 2xx body when non-nil.  call names the operation in errors, logs,
// and metrics.
func (c *Client) Do(ctx context.Context, call, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &Error{Call: call, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(buf)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Call: call, Message: "build request", Err: err}
	}
	reqID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	hc := c.once
	if method == http.MethodGet || method == http.MethodDelete {
		hc = c.idem
	}

	start := time.Now()
	resp, err := hc.Do(req)
	metrics.UpstreamRequestDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
	if err != nil {
		c.log.Warnw("upstream call failed", "call", call, "request_id", reqID, "err", err)
		return &Error{Call: call, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e := &Error{Call: call, Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
		c.log.Warnw("upstream call rejected",
			"call", call, "request_id", reqID, "status", resp.StatusCode, "msg", e.Message)
		return e
	}

	c.log.Debugw("upstream call ok",
		"call", call, "request_id", reqID, "status", resp.StatusCode,
		"elapsed", time.Since(start).Truncate(time.Millisecond))

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Call: call, Status: resp.StatusCode, Message: "decode response: " + err.Error(), Err: err}
	}
	return nil
}

// errorMessage extracts a human message from the common error envelopes:
// {"error":{"message":…}}, {"error":"…"}, and {"message":"…"}.
func errorMessage(status int, raw []byte) string {
	var env struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if len(env.Error) > 0 {
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(env.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var flat string
			if json.Unmarshal(env.Error, &flat) == nil && flat != "" {
				return flat
			}
		}
		if env.Message != "" {
			return env.Message
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" {
		return s
	}
	return fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
}
