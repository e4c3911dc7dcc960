package domain

// PointOfInterest is a business near a charging station.
type PointOfInterest struct {
	Name           string  `json:"name"`
	Rating         float64 `json:"rating"`
	DistanceMeters float64 `json:"distance"`
	Address        string  `json:"address"`
}

// AverageRating is zero for an empty slice.
func AverageRating(pois []PointOfInterest) float64 {
	if len(pois) == 0 {
		return 0
	}
	var sum float64
	for _, p := range pois {
		sum += p.Rating
	}
	return sum / float64(len(pois))
}

// Route is a driving route between the user and a station.
type Route struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	Summary         string `json:"summary,omitempty"`
}
