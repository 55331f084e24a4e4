package discovery

// DetectedLocation summarises the geo lookup.
type DetectedLocation struct {
	Country   string  `json:"country"`
	Continent string  `json:"continent"`
	City      *string `json:"city"`
	Region    *string `json:"region"`
}

// DiscoverResponse for GET /api/discover
type DiscoverResponse struct {
	Server           string            `json:"server"`
	Region           string            `json:"region"`
	ClientIP         string            `json:"client_ip"`
	DetectedLocation *DetectedLocation `json:"detected_location,omitempty"`
	Error            string            `json:"error,omitempty"`
	Reason           string            `json:"reason,omitempty"`
}

// HealthResponse for GET /api/health
type HealthResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	Cache      string `json:"cache"`
	APIVersion string `json:"api_version"`
	Region     string `json:"region"`
}

// RootResponse for GET /
type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// RegionStatus is one row of GET /api/regions
type RegionStatus struct {
	Region         string   `json:"region"`
	URL            string   `json:"url"`
	Status         string   `json:"status"`
	ResponseTimeMS *float64 `json:"response_time_ms"`
	Database       string   `json:"database,omitempty"`
	Cache          string   `json:"cache,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// RegionsResponse for GET /api/regions
type RegionsResponse struct {
	Regions        []RegionStatus `json:"regions"`
	TotalRegions   int            `json:"total_regions"`
	HealthyRegions int            `json:"healthy_regions"`
}

// PingResponse for GET /api/ping
type PingResponse struct {
	Pong      bool    `json:"pong"`
	Region    string  `json:"region"`
	Timestamp float64 `json:"timestamp"`
}
