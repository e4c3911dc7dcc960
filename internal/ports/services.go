package ports

import (
	"context"

	"github.com/seu-repo/ev-station-skill/internal/domain"
)

// StationFinder searches the charging station directory.
type StationFinder interface {
	FindStations(ctx context.Context, query domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error)
}

// PlaceFinder searches for businesses near a street address.
type PlaceFinder interface {
	FindNearby(ctx context.Context, address, keyword string) ([]domain.PointOfInterest, error)
}

// AddressService reads the postal address registered for the requesting device.
type AddressService interface {
	GetAddress(ctx context.Context, device domain.DeviceContext) (*domain.DeviceAddress, error)
}

// Geocoder converts free-text addresses to coordinates. ok is false when the
// address matched nothing.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (loc domain.Location, ok bool, err error)
}

// RoutePlanner estimates a driving route.
type RoutePlanner interface {
	Route(ctx context.Context, from, to domain.Location) (*domain.Route, error)
}

// EventPublisher ships turn events to downstream consumers.
type EventPublisher interface {
	PublishTurn(ctx context.Context, event domain.TurnEvent) error
	Ping() error
	Close() error
}
