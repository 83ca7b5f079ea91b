package bili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBaseURL        = "https://api.bilibili.com"
	defaultUserAgent      = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148"
	defaultReferer        = "https://www.bilibili.com"
	defaultRequestTimeout = 30 * time.Second
	// Subtitle payloads and audio streams take longer than API calls.
	defaultResourceTimeout = 120 * time.Second
)

// HTTPDoer describes the HTTP client used by the Bilibili client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ParamSigner augments request parameters with the platform signature.
// Implemented by the wbi package; kept as an interface here to avoid an
// import cycle, since the signer fetches its key material through this
// client.
type ParamSigner interface {
	Sign(ctx context.Context, params map[string]string, cred *Credential) (map[string]string, error)
}

// Config captures the runtime settings for the client.
type Config struct {
	BaseURL           string
	RequestTimeout    time.Duration
	ResourceTimeout   time.Duration
	RequestsPerSecond float64
}

// Client is the authenticated Bilibili API wrapper.
type Client struct {
	baseURL  string
	client   HTTPDoer
	resource HTTPDoer
	signer   ParamSigner
	limiter  *rate.Limiter
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithResourceClient overrides the HTTP client used for large downloads.
func WithResourceClient(client HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.resource = client
		}
	}
}

// NewClient constructs a Bilibili API client.
func NewClient(cfg Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	resourceTimeout := cfg.ResourceTimeout
	if resourceTimeout <= 0 {
		resourceTimeout = defaultResourceTimeout
	}

	c := &Client{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: requestTimeout},
		resource: &http.Client{Timeout: resourceTimeout},
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UseSigner attaches the parameter signer used by signed endpoints. Set
// once during wiring, before the client is shared between goroutines.
func (c *Client) UseSigner(s ParamSigner) {
	c.signer = s
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call performs a GET against an envelope-wrapped API endpoint and
// returns the raw data payload.
func (c *Client) call(ctx context.Context, path string, params map[string]string, cred *Credential) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for key, value := range params {
			values.Set(key, value)
		}
		endpoint += "?" + values.Encode()
	}

	body, err := c.fetch(ctx, c.client, http.MethodGet, endpoint, nil, "", cred)
	if err != nil {
		return nil, err
	}
	return unwrap(body)
}

// postForm performs a form-encoded POST against an envelope-wrapped
// endpoint.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, cred *Credential) (json.RawMessage, error) {
	body, err := c.fetch(ctx, c.client, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", cred)
	if err != nil {
		return nil, err
	}
	return unwrap(body)
}

// Download fetches a raw resource (subtitle payload, audio stream) using
// the long-timeout client.
func (c *Client) Download(ctx context.Context, rawURL string, cred *Credential) ([]byte, error) {
	return c.fetch(ctx, c.resource, http.MethodGet, rawURL, nil, "", cred)
}

// DownloadJSON fetches a raw resource and decodes it into out.
func (c *Client) DownloadJSON(ctx context.Context, rawURL string, cred *Credential, out any) error {
	body, err := c.Download(ctx, rawURL, cred)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode resource payload: %w", err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, doer HTTPDoer, method, endpoint string, body io.Reader, contentType string, cred *Credential) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request pacing: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Referer", defaultReferer)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cred != nil {
		req.Header.Set("Cookie", cred.CookieString())
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(payload)}
	}
	return payload, nil
}

func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code != 0 {
		return nil, &RemoteAPIError{Code: env.Code, Message: env.Message}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, ErrEmptyPayload
	}
	return env.Data, nil
}

// get decodes an envelope data payload into T.
func get[T any](ctx context.Context, c *Client, path string, params map[string]string, cred *Credential) (T, error) {
	var out T
	data, err := c.call(ctx, path, params, cred)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", path, err)
	}
	return out, nil
}

// absoluteURL resolves Bilibili's protocol-relative URLs.
func absoluteURL(raw string) string {
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}
