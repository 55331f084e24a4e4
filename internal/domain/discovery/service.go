package discovery

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/photostream/photostream-api/internal/pkg/geoip"
	"github.com/photostream/photostream-api/internal/pkg/httpclient"
)

// APIVersion is reported by the root and health endpoints.
const APIVersion = "1.0.0"

// Health states.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusOffline   = "offline"

	stateConnected    = "connected"
	stateDisconnected = "disconnected"
	stateDisabled     = "disabled"
)

// Pinger checks one dependency.
type Pinger func(ctx context.Context) error

// Config wires the service.
type Config struct {
	Regions        Regions
	CurrentRegion  string
	RegionsTimeout time.Duration
	Database       Pinger
	Cache          Pinger // nil when caching is disabled
}

// Service answers discovery and health questions.
type Service struct {
	locator geoip.Locator
	cfg     Config
	http    *http.Client
}

func NewService(locator geoip.Locator, cfg Config) *Service {
	if cfg.RegionsTimeout <= 0 {
		cfg.RegionsTimeout = 10 * time.Second
	}
	return &Service{
		locator: locator,
		cfg:     cfg,
		http:    httpclient.New(cfg.RegionsTimeout),
	}
}

// Discover routes the client at ip to a regional server. Lookup failures
// fall back to the current region.
func (s *Service) Discover(ctx context.Context, ip string) *DiscoverResponse {
	if IsLocal(ip) {
		url, _ := s.cfg.Regions.URL(RegionUSWest)
		return &DiscoverResponse{Server: url, Region: RegionUSWest, ClientIP: ip, Reason: ReasonLocalhost}
	}

	loc, err := s.locator.Lookup(ctx, ip)
	if err != nil {
		log.Error().Err(err).Str("client_ip", ip).Str("region", s.cfg.CurrentRegion).Msg("Discovery lookup failed, using current region")
		return s.fallback(ip, err)
	}

	region := RegionFor(loc)
	url, ok := s.cfg.Regions.URL(region)
	if !ok {
		return s.fallback(ip, fmt.Errorf("no server configured for region %s", region))
	}

	continent, country, _ := geoFields(loc)
	log.Info().Str("client_ip", ip).Str("country", country).Str("continent", continent).Str("region", region).Msg("Discovery routed")

	return &DiscoverResponse{
		Server:   url,
		Region:   region,
		ClientIP: ip,
		DetectedLocation: &DetectedLocation{
			Country:   country,
			Continent: continent,
			City:      loc.City,
			Region:    loc.Region,
		},
	}
}

func (s *Service) fallback(ip string, cause error) *DiscoverResponse {
	url, ok := s.cfg.Regions.URL(s.cfg.CurrentRegion)
	if !ok {
		url, _ = s.cfg.Regions.URL(RegionUSWest)
	}
	return &DiscoverResponse{
		Server:   url,
		Region:   s.cfg.CurrentRegion,
		ClientIP: ip,
		Error:    cause.Error(),
		Reason:   ReasonFallback,
	}
}

// Health pings the local database and cache.
func (s *Service) Health(ctx context.Context) *HealthResponse {
	resp := &HealthResponse{
		Status:     StatusHealthy,
		Database:   stateConnected,
		Cache:      stateDisabled,
		APIVersion: APIVersion,
		Region:     s.cfg.CurrentRegion,
	}

	if s.cfg.Database == nil || s.cfg.Database(ctx) != nil {
		resp.Status = StatusUnhealthy
		resp.Database = stateDisconnected
	}
	if s.cfg.Cache != nil {
		resp.Cache = stateConnected
		if err := s.cfg.Cache(ctx); err != nil {
			resp.Cache = stateDisconnected
		}
	}
	return resp
}

// CheckRegions queries every region's health endpoint concurrently.
func (s *Service) CheckRegions(ctx context.Context) *RegionsResponse {
	results := make([]RegionStatus, len(s.cfg.Regions))

	g, gctx := errgroup.WithContext(ctx)
	for i, region := range s.cfg.Regions {
		i, region := i, region
		g.Go(func() error {
			results[i] = s.checkRegion(gctx, region)
			return nil
		})
	}
	_ = g.Wait()

	healthy := 0
	for _, r := range results {
		if r.Status == StatusHealthy {
			healthy++
		}
	}
	return &RegionsResponse{Regions: results, TotalRegions: len(results), HealthyRegions: healthy}
}

func (s *Service) checkRegion(ctx context.Context, region Region) RegionStatus {
	status := RegionStatus{Region: region.Name, URL: region.URL}

	endpoint := strings.TrimRight(region.URL, "/") + "/api/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		status.Status = StatusOffline
		status.Error = err.Error()
		return status
	}

	// regions answer with the standard envelope
	var body struct {
		Data HealthResponse `json:"data"`
	}
	start := time.Now()
	if err := httpclient.DoJSON(ctx, s.http, "region:"+region.Name, req, &body); err != nil {
		log.Error().Err(err).Str("region", region.Name).Msg("Region health check failed")
		status.Status = StatusOffline
		status.Error = err.Error()
		return status
	}
	elapsed := math.Round(float64(time.Since(start).Microseconds())/10) / 100

	health := body.Data
	status.Status = StatusUnhealthy
	if health.Status == StatusHealthy {
		status.Status = StatusHealthy
	}
	status.ResponseTimeMS = &elapsed
	status.Database = health.Database
	status.Cache = health.Cache
	return status
}

// Ping is the latency probe payload.
func (s *Service) Ping() *PingResponse {
	now := time.Now()
	return &PingResponse{
		Pong:      true,
		Region:    s.cfg.CurrentRegion,
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
	}
}
