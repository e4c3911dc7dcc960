package alexa

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/seu-repo/ev-station-skill/internal/domain"
)

// RequestType tags the variant carried by a RequestEnvelope.
type RequestType string

const (
	RequestTypeLaunch       RequestType = "LaunchRequest"
	RequestTypeIntent       RequestType = "IntentRequest"
	RequestTypeSessionEnded RequestType = "SessionEndedRequest"
)

// Built-in intent names the skill answers to.
const (
	IntentHelp     = "AMAZON.HelpIntent"
	IntentCancel   = "AMAZON.CancelIntent"
	IntentStop     = "AMAZON.StopIntent"
	IntentFallback = "AMAZON.FallbackIntent"
)

const geolocationInterface = "Geolocation"

// RequestEnvelope is the JSON body the voice platform posts for every turn.
type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Context Context `json:"context"`
	Request Request `json:"request"`
}

type Session struct {
	New         bool                   `json:"new"`
	SessionID   string                 `json:"sessionId"`
	Application Application            `json:"application"`
	User        User                   `json:"user"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
}

type User struct {
	UserID      string       `json:"userId"`
	Permissions *Permissions `json:"permissions,omitempty"`
}

type Permissions struct {
	ConsentToken string `json:"consentToken"`
}

type Context struct {
	System      System       `json:"System"`
	Geolocation *Geolocation `json:"Geolocation,omitempty"`
}

type System struct {
	Application    Application `json:"application"`
	User           User        `json:"user"`
	Device         Device      `json:"device"`
	APIEndpoint    string      `json:"apiEndpoint"`
	APIAccessToken string      `json:"apiAccessToken"`
}

type Device struct {
	DeviceID            string                            `json:"deviceId"`
	SupportedInterfaces map[string]map[string]interface{} `json:"supportedInterfaces"`
}

type Geolocation struct {
	LocationServices *LocationServices `json:"locationServices,omitempty"`
	Timestamp        string            `json:"timestamp"`
	Coordinate       *Coordinate       `json:"coordinate,omitempty"`
}

type LocationServices struct {
	Access string `json:"access"`
	Status string `json:"status"`
}

type Coordinate struct {
	LatitudeInDegrees  float64 `json:"latitudeInDegrees"`
	LongitudeInDegrees float64 `json:"longitudeInDegrees"`
	AccuracyInMeters   float64 `json:"accuracyInMeters"`
}

type Request struct {
	Type      RequestType   `json:"type"`
	RequestID string        `json:"requestId"`
	Timestamp string        `json:"timestamp"`
	Locale    string        `json:"locale,omitempty"`
	Intent    *Intent       `json:"intent,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Error     *RequestError `json:"error,omitempty"`
}

type Intent struct {
	Name               string          `json:"name"`
	ConfirmationStatus string          `json:"confirmationStatus,omitempty"`
	Slots              map[string]Slot `json:"slots,omitempty"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value,omitempty"`
}

// RequestError is attached to SessionEndedRequest when the session ended on an error.
type RequestError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Validate checks the fields every handler relies on.
func (e *RequestEnvelope) Validate() error {
	switch e.Request.Type {
	case RequestTypeLaunch, RequestTypeSessionEnded:
	case RequestTypeIntent:
		if e.Request.Intent == nil || e.Request.Intent.Name == "" {
			return errors.New("intent request without intent name")
		}
	case "":
		return errors.New("missing request type")
	default:
		// Unknown request types still reach the dispatcher's unhandled path.
	}

	if _, err := e.RequestTime(); err != nil {
		return err
	}
	return nil
}

// RequestTime parses the request timestamp.
func (e *RequestEnvelope) RequestTime() (time.Time, error) {
	ts, err := parseTimestamp(e.Request.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid request timestamp %q: %w", e.Request.Timestamp, err)
	}
	return ts, nil
}

// IntentName is empty for anything but an IntentRequest.
func (e *RequestEnvelope) IntentName() string {
	if e.Request.Type != RequestTypeIntent || e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// SlotValue returns the trimmed value of the named slot, or "".
func (e *RequestEnvelope) SlotValue(name string) string {
	if e.Request.Intent == nil {
		return ""
	}
	return strings.TrimSpace(e.Request.Intent.Slots[name].Value)
}

// ConsentToken prefers the context copy, which is always current, over the session copy.
func (e *RequestEnvelope) ConsentToken() string {
	if p := e.Context.System.User.Permissions; p != nil && p.ConsentToken != "" {
		return p.ConsentToken
	}
	if p := e.Session.User.Permissions; p != nil {
		return p.ConsentToken
	}
	return ""
}

func (e *RequestEnvelope) ApplicationID() string {
	if id := e.Context.System.Application.ApplicationID; id != "" {
		return id
	}
	return e.Session.Application.ApplicationID
}

// DeviceContext carries what the platform APIs need to answer for this device.
func (e *RequestEnvelope) DeviceContext() domain.DeviceContext {
	sys := e.Context.System
	return domain.DeviceContext{
		DeviceID:    sys.Device.DeviceID,
		APIEndpoint: sys.APIEndpoint,
		AccessToken: sys.APIAccessToken,
	}
}

// SupportsGeolocation reports whether the device advertises the Geolocation interface.
func (e *RequestEnvelope) SupportsGeolocation() bool {
	_, ok := e.Context.System.Device.SupportedInterfaces[geolocationInterface]
	return ok
}

// GeoReading extracts the geolocation sample. ok is false when the block or
// its coordinate is absent; err is set when the sample timestamp is malformed.
func (e *RequestEnvelope) GeoReading() (reading domain.GeoReading, ok bool, err error) {
	geo := e.Context.Geolocation
	if geo == nil || geo.Coordinate == nil {
		return domain.GeoReading{}, false, nil
	}

	capturedAt, err := parseTimestamp(geo.Timestamp)
	if err != nil {
		return domain.GeoReading{}, true, fmt.Errorf("invalid geolocation timestamp %q: %w", geo.Timestamp, err)
	}

	return domain.GeoReading{
		Location: domain.Location{
			Latitude:  geo.Coordinate.LatitudeInDegrees,
			Longitude: geo.Coordinate.LongitudeInDegrees,
		},
		AccuracyInMeters: geo.Coordinate.AccuracyInMeters,
		CapturedAt:       capturedAt,
	}, true, nil
}

// parseTimestamp accepts RFC 3339 with or without fractional seconds.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return time.Parse(time.RFC3339, value)
}
