package voice

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/seu-repo/ev-station-skill/internal/domain"
)

const feetPerMeter = 3.28084

// Answer is everything the reply to a station search can mention.
type Answer struct {
	Station  domain.Station
	Category string

	// Place is nil when nothing matched within walking distance.
	Place      *domain.PointOfInterest
	PlaceCount int
	AvgRating  float64

	// Route is nil when routing is disabled or failed.
	Route *domain.Route
}

// ComposeAnswer renders the spoken reply for a found station.
func ComposeAnswer(a Answer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The nearest station is %s away. ", FormatDistance(a.Station.DistanceMiles))
	fmt.Fprintf(&b, "It is a %s %s station", PricingLabel(a.Station.Pricing), networkName(a.Station))
	if hours := HoursLabel(a.Station.AccessDaysTime); hours != "" {
		b.WriteString(", " + hours)
	}
	b.WriteString(". ")

	if addr := strings.TrimSpace(a.Station.StreetAddress); addr != "" {
		fmt.Fprintf(&b, "The address is %s. ", a.Station.Address())
	}

	if a.Route != nil && a.Route.DurationSeconds > 0 {
		fmt.Fprintf(&b, "It is about %s by car. ", formatMinutes(a.Route.DurationSeconds))
	}

	b.WriteString(composePlace(a))
	return strings.TrimSpace(b.String())
}

func composePlace(a Answer) string {
	category := strings.TrimSpace(a.Category)
	if category == "" {
		category = "places"
	}

	if a.Place == nil {
		return fmt.Sprintf("I couldn't find any %s within walking distance.", category)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "While you charge, you can check out %s", a.Place.Name)
	if a.Place.Rating > 0 {
		fmt.Fprintf(&b, ", rated %s stars", formatRating(a.Place.Rating))
	}
	fmt.Fprintf(&b, ", about %s from the station.", FormatFeet(a.Place.DistanceMeters))

	if a.PlaceCount > 1 && a.AvgRating > 0 {
		fmt.Fprintf(&b, " The %d %s nearby average %s stars.", a.PlaceCount, category, formatRating(a.AvgRating))
	}
	return b.String()
}

// FormatDistance phrases a distance in miles for speech.
func FormatDistance(miles float64) string {
	if miles < 1 {
		return "less than a mile"
	}
	return strconv.FormatFloat(math.Round(miles*10)/10, 'f', -1, 64) + " miles"
}

// FormatFeet phrases a short walking distance, rounded to the nearest 10 feet.
func FormatFeet(meters float64) string {
	feet := int(math.Round(meters*feetPerMeter/10) * 10)
	if feet < 10 {
		feet = 10
	}
	return fmt.Sprintf("%d feet", feet)
}

// PricingLabel is "Free" when the descriptor mentions free access, otherwise "Paid".
func PricingLabel(pricing string) string {
	if strings.Contains(strings.ToLower(pricing), "free") {
		return "Free"
	}
	return "Paid"
}

// HoursLabel is "open 24 hours" for around-the-clock stations, otherwise empty.
func HoursLabel(access string) string {
	if strings.Contains(access, "24") {
		return "open 24 hours"
	}
	return ""
}

func networkName(s domain.Station) string {
	if n := strings.TrimSpace(s.Network); n != "" {
		return n
	}
	return "charging"
}

func formatRating(r float64) string {
	return strconv.FormatFloat(math.Round(r*10)/10, 'f', -1, 64)
}

func formatMinutes(seconds int) string {
	minutes := int(math.Round(float64(seconds) / 60))
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
