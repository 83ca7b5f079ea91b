package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bilisum/internal/bili"
	"bilisum/internal/retry"
	"bilisum/internal/services"
)

// HTTPDoer abstracts the AI endpoint calls for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config tunes the summarization client.
type Config struct {
	// BaseURL is the Anthropic-compatible API root.
	BaseURL string
	// AuthToken is sent both as a Bearer token and as x-api-key; some
	// gateways read one, some the other.
	AuthToken string
	// Model names the completion model.
	Model string
	// MaxTokens caps the response length. Zero means 8192.
	MaxTokens int
	// MaxRetries is the total number of attempts on 429. Zero means 5.
	MaxRetries int
	// RetryBaseWait is the first backoff step. Zero means 2s.
	RetryBaseWait time.Duration
	// RequestTimeout bounds each call. Zero means 120s.
	RequestTimeout time.Duration
	// MaxTranscriptChars caps the transcript characters embedded in the
	// prompt. Zero means 30000.
	MaxTranscriptChars int
}

// Summary is one completed summarization call.
type Summary struct {
	Text string
	// Elapsed is how long the successful request took, excluding backoff
	// waits.
	Elapsed time.Duration
}

// Model is one entry from the discovery endpoint.
type Model struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by"`
}

// Client calls the messages endpoint.
type Client struct {
	cfg    Config
	http   HTTPDoer
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient replaces the endpoint client.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

// WithSleep replaces the backoff wait, letting tests assert the schedule.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient builds a summarization client.
func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBaseWait <= 0 {
		cfg.RetryBaseWait = 2 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 120 * time.Second
	}
	if cfg.MaxTranscriptChars <= 0 {
		cfg.MaxTranscriptChars = 30_000
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Summarize sends the transcript to the model and returns its notes. 429
// responses are retried with exponential backoff; every other failure
// propagates immediately.
func (c *Client) Summarize(ctx context.Context, title, transcript string) (Summary, error) {
	if transcript == "" {
		return Summary{Text: emptyTranscriptNotice}, nil
	}
	if strings.TrimSpace(c.cfg.BaseURL) == "" || strings.TrimSpace(c.cfg.AuthToken) == "" {
		return Summary{}, services.Wrap(services.ErrConfiguration, "ai", "summarize", "endpoint or token not configured", nil)
	}

	prompt := renderPrompt(title, transcript, c.cfg.MaxTranscriptChars)
	payload, err := json.Marshal(messagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: c.cfg.MaxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return Summary{}, fmt.Errorf("encode summarize request: %w", err)
	}

	policy := retry.Policy{
		MaxAttempts: c.cfg.MaxRetries,
		Delay:       retry.Exponential(c.cfg.RetryBaseWait),
		Retryable: func(err error) bool {
			return errors.Is(err, services.ErrRateLimited)
		},
		Sleep: c.sleep,
	}
	summary, err := retry.Do(ctx, policy, func(ctx context.Context) (Summary, error) {
		return c.sendMessages(ctx, payload)
	})
	if errors.Is(err, services.ErrRateLimited) {
		c.logger.Warn("rate limit budget exhausted",
			slog.String("model", c.cfg.Model),
			slog.Int("attempts", c.cfg.MaxRetries))
		return Summary{}, services.Wrap(services.ErrRateLimitExhausted, "ai", "summarize", "", err)
	}
	return summary, err
}

func (c *Client) sendMessages(ctx context.Context, payload []byte) (Summary, error) {
	endpoint := strings.TrimSuffix(strings.TrimSpace(c.cfg.BaseURL), "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Summary{}, fmt.Errorf("build summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Summary{}, fmt.Errorf("read summarize response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return Summary{}, services.Wrap(services.ErrRateLimited, "ai", "summarize", fmt.Sprintf("model %s", c.cfg.Model), nil)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Summary{}, &bili.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	var decoded messagesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Summary{}, fmt.Errorf("decode summarize response: %w", err)
	}
	if len(decoded.Content) == 0 || decoded.Content[0].Text == "" {
		return Summary{}, fmt.Errorf("summarize response has no content block")
	}
	return Summary{Text: decoded.Content[0].Text, Elapsed: c.now().Sub(start)}, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	req.Header.Set("x-api-key", c.cfg.AuthToken)
}
