package alexa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/ev-station-skill/internal/domain"
	apperrors "github.com/seu-repo/ev-station-skill/pkg/errors"
)

const deviceAddressPath = "/v1/devices/%s/settings/address"

// ServiceError is returned when a platform service answers with a non-2xx status.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("alexa service error: status %d: %s", e.StatusCode, e.Message)
}

// Forbidden reports the permission-revoked case.
func (e *ServiceError) Forbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// HTTPDoer is satisfied by *http.Client and the circuit breaker client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DeviceAddressClient reads the postal address registered for a device.
type DeviceAddressClient struct {
	http HTTPDoer
	log  *zap.Logger
}

func NewDeviceAddressClient(doer HTTPDoer, log *zap.Logger) *DeviceAddressClient {
	return &DeviceAddressClient{http: doer, log: log}
}

// GetAddress calls the device address service at device.APIEndpoint.
func (c *DeviceAddressClient) GetAddress(ctx context.Context, device domain.DeviceContext) (*domain.DeviceAddress, error) {
	if device.APIEndpoint == "" || device.DeviceID == "" {
		return nil, apperrors.NewValidationError("device has no api endpoint or device id")
	}

	endpoint := strings.TrimRight(device.APIEndpoint, "/") +
		fmt.Sprintf(deviceAddressPath, url.PathEscape(device.DeviceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+device.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewUpstreamError("device_address", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("Device address service returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &ServiceError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	var addr domain.DeviceAddress
	if err := json.NewDecoder(resp.Body).Decode(&addr); err != nil {
		return nil, apperrors.NewDecodeError("device_address", err)
	}
	return &addr, nil
}
