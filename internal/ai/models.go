package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"bilisum/internal/bili"
	"bilisum/internal/services"
)

// ListModels discovers the models the endpoint offers. Providers disagree
// on where the listing lives, so a few path shapes are probed in order;
// 404 and 405 simply advance to the next candidate.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	if strings.TrimSpace(c.cfg.BaseURL) == "" || strings.TrimSpace(c.cfg.AuthToken) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ai", "list models", "endpoint or token not configured", nil)
	}

	base := strings.Trim(strings.TrimSpace(c.cfg.BaseURL), "/")
	var candidates []string
	if strings.HasSuffix(base, "/v1") {
		candidates = append(candidates, base+"/models")
	}
	candidates = append(candidates, base+"/v1/models", base+"/models")

	for _, endpoint := range candidates {
		models, err := c.fetchModels(ctx, endpoint)
		if err != nil {
			var httpErr *bili.HTTPError
			if errors.As(err, &httpErr) {
				if httpErr.Status == http.StatusNotFound || httpErr.Status == http.StatusMethodNotAllowed {
					continue
				}
				return nil, err
			}
			// Transport-level failure: try the next shape.
			continue
		}
		if len(models) > 0 {
			sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
			return models, nil
		}
	}
	return nil, nil
}

func (c *Client) fetchModels(ctx context.Context, endpoint string) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build models request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("models call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read models response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &bili.HTTPError{Status: resp.StatusCode, Body: string(body)}
	}

	var decoded struct {
		Data []Model `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode models response: %w", err)
	}
	return decoded.Data, nil
}
