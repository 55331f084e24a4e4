// Package geoip resolves client IPs to a coarse location.
package geoip

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/photostream/photostream-api/internal/pkg/httpclient"
)

const serviceName = "geoip"

// ErrLookupFailed is returned when the provider answers but reports an error.
var ErrLookupFailed = errors.New("geo lookup failed")

// Location is the subset of the provider response used for routing.
type Location struct {
	IP            string   `json:"ip"`
	CountryCode   string   `json:"country_code"`
	ContinentCode string   `json:"continent_code"`
	City          *string  `json:"city"`
	Region        *string  `json:"region"`
	Longitude     *float64 `json:"longitude"`

	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// Locator looks up an IP address.
type Locator interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// Client queries an ipapi.co compatible endpoint: GET {base}/{ip}/json/.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(timeout),
	}
}

func (c *Client) Lookup(ctx context.Context, ip string) (*Location, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geoip request error: %w", err)
	}
	req.Header.Set("User-Agent", "photostream-api/1.0")

	var loc Location
	if err := httpclient.DoJSON(ctx, c.http, serviceName, req, &loc); err != nil {
		return nil, err
	}
	if loc.Error {
		return nil, fmt.Errorf("%w: %s", ErrLookupFailed, loc.Reason)
	}
	return &loc, nil
}
