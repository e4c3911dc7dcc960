package domain

import "fmt"

// StationFilter narrows a directory search. It is built once from
// configuration and shared read-only by every request.
type StationFilter struct {
	Network     string  `json:"ev_network,omitempty"`
	Pricing     string  `json:"ev_pricing,omitempty"`
	RadiusMiles float64 `json:"radius,omitempty"`
	Limit       int     `json:"limit,omitempty"`
}

// StationQuery locates a search by coordinates or, when Text is set, by free text.
type StationQuery struct {
	Location Location
	Text     string
}

// Station is a charging station as returned by the directory.
type Station struct {
	ID             int64   `json:"id"`
	Name           string  `json:"station_name"`
	StreetAddress  string  `json:"street_address"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Zip            string  `json:"zip"`
	DistanceMiles  float64 `json:"distance"`
	Network        string  `json:"ev_network"`
	Pricing        string  `json:"ev_pricing"`
	AccessDaysTime string  `json:"access_days_time"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// Address renders "street, city, state zip", the form business search accepts.
func (s Station) Address() string {
	return fmt.Sprintf("%s, %s, %s %s", s.StreetAddress, s.City, s.State, s.Zip)
}

func (s Station) Location() Location {
	return Location{Latitude: s.Latitude, Longitude: s.Longitude}
}
