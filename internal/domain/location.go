package domain

import (
	"fmt"
	"strings"
	"time"
)

// Location is a point in WGS84 degrees. It is a value; copy it, never mutate it.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude)
}

// IsZero reports whether l is the zero value, which upstream APIs use for "unknown".
func (l Location) IsZero() bool {
	return l.Latitude == 0 && l.Longitude == 0
}

// GeoReading is a device geolocation sample as reported by the voice platform.
type GeoReading struct {
	Location         Location
	AccuracyInMeters float64
	CapturedAt       time.Time
}

// LocationSource records where a resolved location came from.
type LocationSource string

const (
	LocationSourceGeolocation   LocationSource = "geolocation"
	LocationSourceDeviceAddress LocationSource = "device_address"
	LocationSourceDebug         LocationSource = "debug"
)

// DeviceContext identifies a device and the platform API that can answer for it.
type DeviceContext struct {
	DeviceID    string
	APIEndpoint string
	AccessToken string
}

// DeviceAddress is the postal address registered for a device.
type DeviceAddress struct {
	AddressLine1     string `json:"addressLine1"`
	AddressLine2     string `json:"addressLine2"`
	AddressLine3     string `json:"addressLine3"`
	City             string `json:"city"`
	StateOrRegion    string `json:"stateOrRegion"`
	DistrictOrCounty string `json:"districtOrCounty"`
	PostalCode       string `json:"postalCode"`
	CountryCode      string `json:"countryCode"`
}

// String renders the address on one line, skipping empty parts.
func (a DeviceAddress) String() string {
	var parts []string
	for _, p := range []string{a.AddressLine1, a.AddressLine2, a.AddressLine3, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	region := strings.TrimSpace(strings.Join(nonEmpty(a.StateOrRegion, a.PostalCode), " "))
	if region != "" {
		parts = append(parts, region)
	}
	if c := strings.TrimSpace(a.CountryCode); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, ", ")
}

// IsEmpty reports whether nothing geocodable is present.
func (a DeviceAddress) IsEmpty() bool {
	return strings.TrimSpace(a.AddressLine1) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.PostalCode) == ""
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
