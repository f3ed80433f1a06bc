package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// maxReplyBytes caps how much of a webhook reply is read.
const maxReplyBytes = 8 << 20

// WebhookClient posts chat text to an n8n-style webhook.
type WebhookClient struct {
	httpClient       *http.Client
	url              string
	token            string
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// NewWebhookClient allows customizing HTTP timeout and retry/backoff behavior.
// retryMax counts attempts; 1 disables retries.
func NewWebhookClient(webhookURL, token string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *WebhookClient {
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 1
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &WebhookClient{
		httpClient:       &http.Client{Timeout: httpTimeout},
		url:              webhookURL,
		token:            token,
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// URL returns the webhook endpoint.
func (c *WebhookClient) URL() string { return c.url }

type webhookPayload struct {
	Text string `json:"text"`
}

// Send posts req.Text and returns the reply text extracted from the body.
func (c *WebhookClient) Send(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.url == "" {
		return nil, errors.New("webhook URL is not configured")
	}
	payload, err := json.Marshal(webhookPayload{Text: req.Text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")
		if c.token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.token)
		}
		log.Debug().Str("url", c.url).Int("attempt", attempt).Int("bytes", len(payload)).Msg("webhook request")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isRetryableNetErr(err) && attempt < c.retryMaxAttempts {
				lastErr = err
				sleep(ctx, c.capped(withJitter(backoff)))
				backoff *= 2
				continue
			}
			if isTimeout(err) {
				return nil, fmt.Errorf("http request: %w", err)
			}
			return nil, &UnreachableError{Host: hostOf(c.url), Err: err}
		}
		out, retryAfter, err := c.readResponse(resp)
		if err == nil {
			return out, nil
		}
		lastErr = err
		var status *WebhookStatusError
		if !errors.As(err, &status) || !retryableStatus(status.StatusCode) || attempt >= c.retryMaxAttempts {
			return nil, err
		}
		if retryAfter > 0 {
			sleep(ctx, retryAfter)
			continue
		}
		sleep(ctx, c.capped(withJitter(backoff)))
		backoff *= 2
	}
	return nil, lastErr
}

// readResponse consumes resp. On a non-2xx status it returns a
// WebhookStatusError and any Retry-After delay the server asked for.
func (c *WebhookClient) readResponse(resp *http.Response) (*ChatResponse, time.Duration, error) {
	defer resp.Body.Close()
	requestID := extractRequestID(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		apiErr := decodeAPIError(resp.StatusCode, body)
		apiErr.RequestID = requestID
		log.Debug().Int("status", resp.StatusCode).Str("request_id", requestID).Bytes("body", body).Msg("webhook error response")
		var retryAfter time.Duration
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return nil, retryAfter, &WebhookStatusError{StatusCode: resp.StatusCode, Err: classifyAPIError(apiErr, resp)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	log.Debug().Int("status", resp.StatusCode).Str("request_id", requestID).Bytes("body", body).Msg("webhook response")
	return &ChatResponse{Text: ReplyText(body), Raw: body, RequestID: requestID}, 0, nil
}

func (c *WebhookClient) capped(d time.Duration) time.Duration {
	if c.retryMaxDelay > 0 && d > c.retryMaxDelay {
		return c.retryMaxDelay
	}
	return d
}

// decodeAPIError pulls message/code/hint from either {"error":{...}} or a
// flat object such as n8n's {"code":404,"message":...,"hint":...}.
func decodeAPIError(status int, body []byte) *APIError {
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: status, Raw: raw}
	src := raw
	if v, ok := raw["error"].(map[string]any); ok {
		src = v
	} else if s, ok := raw["error"].(string); ok {
		apiErr.Message = s
	}
	if msg, ok := src["message"].(string); ok {
		apiErr.Message = msg
	}
	switch code := src["code"].(type) {
	case string:
		apiErr.Code = code
	case float64:
		apiErr.Code = strconv.FormatFloat(code, 'f', -1, 64)
	}
	if hint, ok := src["hint"].(string); ok {
		apiErr.Hint = hint
	}
	if apiErr.Message == "" && raw == nil {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func retryableStatus(sc int) bool {
	return sc == http.StatusTooManyRequests || (sc >= 500 && sc <= 599)
}

func isRetryableNetErr(err error) bool {
	if isTimeout(err) {
		return true
	}
	// EOF or connection reset
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Host
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	keys := []string{"X-Request-Id", "X-N8n-Execution-Id", "OpenAI-Request-ID", "X-Amzn-Requestid"}
	for _, k := range keys {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	// jitter factor in [0.8, 1.2)
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
