// Package recservice is the HTTP client for the remote recommendation
// service.
package recservice

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"themerec/config"
	apperrors "themerec/errors"
	"themerec/themes"

	"go.uber.org/zap"
)

// ServiceError is a non-2xx answer from the service.
type ServiceError struct {
	Status  int
	Message string
	kind    error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("recommendation service status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("recommendation service status %d", e.Status)
}

func (e *ServiceError) Unwrap() error {
	return e.kind
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := cfg.RecommendMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	if cfg.RecommendBaseURL == "" {
		logger.Warn("RECOMMEND_BASE_URL is not set, using the local default",
			zap.String("base_url", cfg.ServiceBaseURL()))
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.ServiceBaseURL(), "/"),
		httpClient:  &http.Client{},
		timeout:     cfg.RecommendTimeout,
		maxAttempts: attempts,
		retryDelay:  cfg.RecommendRetryDelay,
		logger:      logger,
	}
}

// BaseURL is the resolved service origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Recommend sends one conversation turn for theme. history holds the prior
// turns only.
func (c *Client) Recommend(ctx context.Context, theme themes.Theme, message string, history []Turn) (*Result, error) {
	if history == nil {
		history = []Turn{}
	}
	jsonBody, err := json.Marshal(recommendRequest{
		UserMessage:         message,
		ConversationHistory: history,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal recommendation request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/%s/recommendations", c.baseURL, url.PathEscape(string(theme)))
	start := time.Now()

	bodyBytes, err := c.post(ctx, endpoint, jsonBody)
	if err != nil {
		c.logger.Warn("Recommendation request failed",
			zap.String("theme", theme.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	result, err := decodeResult(bodyBytes)
	if err != nil {
		c.logger.Warn("Malformed recommendation response",
			zap.String("theme", theme.String()),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("Recommendation received",
		zap.String("theme", theme.String()),
		zap.Int("history_turns", len(history)),
		zap.Int("items", len(result.Recommendations)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Health performs the liveness check.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrServiceUnavailable, "read health response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, bodyBytes)
	}

	var hs HealthStatus
	if err := json.Unmarshal(bodyBytes, &hs); err != nil {
		return nil, apperrors.WrapErrorf(apperrors.ErrInvalidResponse, "decode health response: %v", err)
	}
	return &hs, nil
}

// post sends jsonBody, retrying 503 answers. The configured timeout bounds
// the whole call, backoff included.
func (c *Client) post(ctx context.Context, endpoint string, jsonBody []byte) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.backoffSleep(ctx, attempt); err != nil {
				return nil, classifyTransport(ctx, err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create recommendation request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			// Do not retry transport failures or cancellation
			return nil, classifyTransport(ctx, err)
		}

		bodyBytes, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, classifyTransport(ctx, readErr)
		}

		if resp.StatusCode == http.StatusServiceUnavailable {
			// Service warming up; retry with backoff
			lastErr = statusError(resp.StatusCode, bodyBytes)
			c.logger.Warn("Recommendation service unavailable, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.maxAttempts))
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, statusError(resp.StatusCode, bodyBytes)
		}
		return bodyBytes, nil
	}
	return nil, lastErr
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// backoffSleep waits attempt*retryDelay or until ctx is done.
func (c *Client) backoffSleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * c.retryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func decodeResult(bodyBytes []byte) (*Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(bodyBytes, &fields); err != nil {
		return nil, apperrors.WrapErrorf(apperrors.ErrInvalidResponse, "decode recommendation response: %v", err)
	}
	for _, key := range []string{"message", "user_profile", "recommendations"} {
		raw, ok := fields[key]
		if !ok || string(bytes.TrimSpace(raw)) == "null" {
			return nil, apperrors.WrapErrorf(apperrors.ErrInvalidResponse, "response missing %q", key)
		}
	}

	var result Result
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, apperrors.WrapErrorf(apperrors.ErrInvalidResponse, "decode recommendation response: %v", err)
	}
	return &result, nil
}

func statusError(status int, bodyBytes []byte) *ServiceError {
	kind := apperrors.ErrServiceUnavailable
	if status >= 400 && status < 500 {
		kind = apperrors.ErrRequestRejected
	}
	return &ServiceError{
		Status:  status,
		Message: extractMessage(bodyBytes),
		kind:    kind,
	}
}

func extractMessage(bodyBytes []byte) string {
	var eb errorBody
	if err := json.Unmarshal(bodyBytes, &eb); err != nil {
		return ""
	}
	switch e := eb.Error.(type) {
	case map[string]any:
		if msg, ok := e["message"].(string); ok && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	case string:
		if strings.TrimSpace(e) != "" {
			return strings.TrimSpace(e)
		}
	}
	if detail, ok := eb.Detail.(string); ok {
		return strings.TrimSpace(detail)
	}
	return ""
}

func classifyTransport(ctx context.Context, err error) error {
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded),
		stderrors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %v", apperrors.ErrTimeout, err)
	case ctx.Err() != nil:
		return apperrors.WrapError(ctx.Err(), "recommendation request canceled")
	default:
		return fmt.Errorf("%w: %v", apperrors.ErrServiceUnavailable, err)
	}
}

// UserMessage returns the message the service supplied with a failure, or ""
// when it supplied none.
func UserMessage(err error) string {
	var se *ServiceError
	if stderrors.As(err, &se) {
		return se.Message
	}
	return ""
}
