package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/ev-station-skill/internal/domain"
)

// MockStationFinder is a mock implementation of StationFinder
type MockStationFinder struct {
	mu               sync.Mutex
	Calls            int
	FindStationsFunc func(ctx context.Context, query domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error)
}

func (m *MockStationFinder) FindStations(ctx context.Context, query domain.StationQuery, filter domain.StationFilter) ([]domain.Station, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.FindStationsFunc != nil {
		return m.FindStationsFunc(ctx, query, filter)
	}
	return nil, nil
}

// MockPlaceFinder is a mock implementation of PlaceFinder
type MockPlaceFinder struct {
	mu             sync.Mutex
	Calls          int
	FindNearbyFunc func(ctx context.Context, address, keyword string) ([]domain.PointOfInterest, error)
}

func (m *MockPlaceFinder) FindNearby(ctx context.Context, address, keyword string) ([]domain.PointOfInterest, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.FindNearbyFunc != nil {
		return m.FindNearbyFunc(ctx, address, keyword)
	}
	return nil, nil
}

// MockAddressService is a mock implementation of AddressService
type MockAddressService struct {
	mu             sync.Mutex
	Calls          int
	GetAddressFunc func(ctx context.Context, device domain.DeviceContext) (*domain.DeviceAddress, error)
}

func (m *MockAddressService) GetAddress(ctx context.Context, device domain.DeviceContext) (*domain.DeviceAddress, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.GetAddressFunc != nil {
		return m.GetAddressFunc(ctx, device)
	}
	return &domain.DeviceAddress{}, nil
}

// MockGeocoder is a mock implementation of Geocoder
type MockGeocoder struct {
	mu          sync.Mutex
	Calls       int
	GeocodeFunc func(ctx context.Context, address string) (domain.Location, bool, error)
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (domain.Location, bool, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.GeocodeFunc != nil {
		return m.GeocodeFunc(ctx, address)
	}
	return domain.Location{}, false, nil
}

// MockRoutePlanner is a mock implementation of RoutePlanner
type MockRoutePlanner struct {
	RouteFunc func(ctx context.Context, from, to domain.Location) (*domain.Route, error)
}

func (m *MockRoutePlanner) Route(ctx context.Context, from, to domain.Location) (*domain.Route, error) {
	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, from, to)
	}
	return nil, nil
}

// MockEventPublisher records published turn events
type MockEventPublisher struct {
	mu              sync.Mutex
	Events          []domain.TurnEvent
	PublishTurnFunc func(ctx context.Context, event domain.TurnEvent) error
}

func (m *MockEventPublisher) PublishTurn(ctx context.Context, event domain.TurnEvent) error {
	if m.PublishTurnFunc != nil {
		return m.PublishTurnFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockEventPublisher) Ping() error {
	return nil
}

func (m *MockEventPublisher) Close() error {
	return nil
}

// Published returns a copy of the recorded events
func (m *MockEventPublisher) Published() []domain.TurnEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TurnEvent, len(m.Events))
	copy(out, m.Events)
	return out
}
