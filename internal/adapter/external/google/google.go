// Package google wraps the Google Maps Geocoding and Directions web services.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	apperrors "github.com/seu-repo/ev-station-skill/pkg/errors"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
	statusNotFound    = "NOT_FOUND"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// getJSON issues a keyed GET and decodes the body into out.
func getJSON(ctx context.Context, doer Doer, service, endpoint, apiKey string, params url.Values, out interface{}) error {
	if apiKey == "" {
		return apperrors.NewValidationError("google maps api key is required")
	}
	params.Set("key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", service, err)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return apperrors.NewUpstreamError(service, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return apperrors.NewUpstreamError(service, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewDecodeError(service, err)
	}
	return nil
}
