package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/observability/logging"
	"newsbot/internal/resilience/circuitbreaker"
	"newsbot/internal/resilience/retry"
	"newsbot/internal/utils/text"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

// Common webhook error types used by Discord and Slack notifiers

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.RetryAfter)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.RetryAfter)
}

// ClientError represents a 4xx client error from a webhook service.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

// isRetryableError checks if the error is worth retrying: rate limits, 5xx
// and network errors. Client errors are final, and so is an open breaker.
func isRetryableError(err error) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		return false
	}
	return true
}

// webhookErrorResponse covers the retry hint both services put in 429 bodies.
type webhookErrorResponse struct {
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"` // seconds
}

// extractRetryAfter reads the retry hint from the body, then the Retry-After
// header, and defaults to five seconds.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var werr webhookErrorResponse
	if err := json.Unmarshal(body, &werr); err == nil && werr.RetryAfter > 0 {
		return time.Duration(werr.RetryAfter * float64(time.Second))
	}

	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return 5 * time.Second
}

// webhookClient is the transport shared by the Slack and Discord notifiers:
// paced, breaker-guarded and retried JSON POSTs.
type webhookClient struct {
	service    string
	httpClient *http.Client
	limiters   *RateLimiters
	breakers   *circuitbreaker.Group
	retry      retry.Config
	// maxRetryAfter caps how long a 429 hint may hold a delivery.
	maxRetryAfter time.Duration
}

func newWebhookClient(service string, timeout time.Duration, rps float64, burst int) webhookClient {
	cb := circuitbreaker.WebhookConfig()
	cb.Name = service
	return webhookClient{
		service:       service,
		httpClient:    &http.Client{Timeout: timeout},
		limiters:      NewRateLimiters(rps, burst),
		breakers:      circuitbreaker.NewGroup(cb),
		retry:         retry.WebhookConfig(),
		maxRetryAfter: 30 * time.Second,
	}
}

// send posts every payload in order to webhookURL. It stops at the first
// payload that fails after retries.
func (c *webhookClient) send(ctx context.Context, webhookURL string, payloads []any) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	logger := logging.FromContext(ctx).With(
		slog.String("service", c.service),
		slog.String("request_id", requestID))

	host := hostOf(webhookURL)
	cfg := c.retry
	cfg.ShouldRetry = isRetryableError

	for i, payload := range payloads {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal webhook payload: %w", err)
		}

		err = retry.WithBackoff(ctx, cfg, func() error {
			if err := c.limiters.Allow(ctx, webhookURL); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}
			_, err := c.breakers.Get(host).Execute(func() (interface{}, error) {
				return nil, c.post(ctx, webhookURL, body)
			})
			var rl *RateLimitError
			if errors.As(err, &rl) {
				wait := min(rl.RetryAfter, c.maxRetryAfter)
				logger.Warn("webhook rate limit hit, backing off", slog.Duration("retry_after", wait))
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
				}
			}
			return err
		})
		if err != nil {
			logger.Error("webhook delivery failed",
				slog.Int("message", i+1),
				slog.Int("messages", len(payloads)),
				slog.String("error", logging.SanitizeError(err)))
			return fmt.Errorf("%s message %d/%d: %w", c.service, i+1, len(payloads), err)
		}
	}

	logger.Info("webhook delivery successful", slog.Int("messages", len(payloads)))
	return nil
}

// post performs one webhook call and maps the response to a typed error.
func (c *webhookClient) post(ctx context.Context, webhookURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error carries the full webhook URL, token included.
		return fmt.Errorf("execute http request: %s", logging.SanitizeError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message:    c.service + " rate limit exceeded",
			RetryAfter: extractRetryAfter(resp, respBody),
		}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API client error %d: %s", c.service, resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s API server error %d: %s", c.service, resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}
	return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return strings.ToLower(u.Hostname())
}

// deliveryError tags err as a delivery failure.
func deliveryError(service string, err error) error {
	return fmt.Errorf("%w: %s: %w", entity.ErrDelivery, service, err)
}

// plainText strips markup from s and collapses whitespace. Plain text passes
// through unchanged apart from whitespace.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return text.CollapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return text.CollapseSpace(s)
	}
	return text.CollapseSpace(doc.Text())
}

// preview is the short plain-text description shown under a title.
func preview(description string, limit int) string {
	return text.Truncate(plainText(description), limit, "...")
}

// truncateRunes cuts s to limit runes, marking the cut with "...".
func truncateRunes(s string, limit int) string {
	if len([]rune(s)) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}

// chunk splits articles into groups of at most size.
func chunk(articles []entity.Article, size int) [][]entity.Article {
	if size <= 0 || len(articles) <= size {
		return [][]entity.Article{articles}
	}
	var out [][]entity.Article
	for len(articles) > size {
		out = append(out, articles[:size])
		articles = articles[size:]
	}
	return append(out, articles)
}

// OpenCircuits lists the webhook hosts whose breaker is open, sorted.
func (c *webhookClient) OpenCircuits() []string {
	open := c.breakers.OpenKeys()
	sort.Strings(open)
	return open
}
