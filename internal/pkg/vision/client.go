// Package vision calls the optional image-analysis collaborator.
package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/photostream/photostream-api/internal/pkg/errorhandler"
	"github.com/photostream/photostream-api/internal/pkg/httpclient"
)

const (
	serviceName    = "vision"
	analyzePath    = "/vision/v3.2/analyze"
	visualFeatures = "Description,Tags,Categories,Objects,Color,Adult"
)

// Analyzer produces insights for a hosted image.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (*Insights, error)
}

// Client talks to the Azure AI Vision analyze API.
type Client struct {
	endpoint string
	key      string
	http     *http.Client
	now      func() time.Time
}

// NewClient returns nil when endpoint or key is empty, so callers can treat
// a nil *Client as "analysis not configured".
func NewClient(endpoint, key string, timeout time.Duration) *Client {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" || strings.TrimSpace(key) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		key:      key,
		http:     httpclient.New(timeout),
		now:      time.Now,
	}
}

// Analyze runs the analysis for imageURL and normalizes the result.
func (c *Client) Analyze(ctx context.Context, imageURL string) (*Insights, error) {
	if c == nil {
		return nil, fmt.Errorf("vision client not configured")
	}

	payload, err := json.Marshal(map[string]string{"url": imageURL})
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("visualFeatures", visualFeatures)
	q.Set("language", "en")
	endpoint := c.endpoint + analyzePath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("vision request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	var raw analysis
	if err := httpclient.DoJSON(ctx, c.http, serviceName, req, &raw); err != nil {
		status := 0
		var se *httpclient.StatusError
		if errors.As(err, &se) {
			status = se.Status
		}
		errorhandler.LogExternalServiceError(ctx, serviceName, c.endpoint+analyzePath, status, err, "")
		return nil, err
	}

	return buildInsights(&raw, c.now()), nil
}
