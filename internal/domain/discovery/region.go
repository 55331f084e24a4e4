// Package discovery points clients at the nearest regional deployment and
// reports service health.
package discovery

import (
	"net"
	"strings"

	"github.com/photostream/photostream-api/internal/pkg/geoip"
)

// Region names.
const (
	RegionUSWest    = "us-west"
	RegionUSEast    = "us-east"
	RegionEUCentral = "eu-central"
)

// Routing reasons reported to the client.
const (
	ReasonLocalhost = "localhost_default"
	ReasonFallback  = "fallback_to_current_region"
)

// Geo defaults used when the provider omits a field.
const (
	defaultContinent = "NA"
	defaultCountry   = "US"
	defaultLongitude = -100.0

	// rockiesLongitude splits North America into west and east.
	rockiesLongitude = -105.0
)

// Region is one regional deployment.
type Region struct {
	Name string
	URL  string
}

// Regions is the static deployment table, in display order.
type Regions []Region

// URL returns the server for name.
func (rs Regions) URL(name string) (string, bool) {
	for _, r := range rs {
		if r.Name == name {
			return r.URL, true
		}
	}
	return "", false
}

// IsLocal reports whether ip is loopback or a private network address,
// for which no geo lookup is attempted.
func IsLocal(ip string) bool {
	switch ip {
	case "127.0.0.1", "localhost", "::1":
		return true
	}
	if strings.HasPrefix(ip, "192.168.") || strings.HasPrefix(ip, "10.") {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
}

// RegionFor picks the region for a resolved location.
func RegionFor(loc *geoip.Location) string {
	continent, country, longitude := geoFields(loc)

	switch {
	case continent == "EU", continent == "AF":
		return RegionEUCentral
	case country == "US", country == "CA", country == "MX":
		if longitude < rockiesLongitude {
			return RegionUSWest
		}
		return RegionUSEast
	case continent == "SA":
		return RegionUSEast
	case continent == "AS", continent == "OC":
		return RegionUSWest
	default:
		return RegionUSEast
	}
}

func geoFields(loc *geoip.Location) (continent, country string, longitude float64) {
	continent, country, longitude = defaultContinent, defaultCountry, defaultLongitude
	if loc == nil {
		return
	}
	if loc.ContinentCode != "" {
		continent = loc.ContinentCode
	}
	if loc.CountryCode != "" {
		country = loc.CountryCode
	}
	if loc.Longitude != nil {
		longitude = *loc.Longitude
	}
	return
}
