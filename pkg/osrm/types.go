package osrm

type Leg struct {
	Summary  string  `json:"summary"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

type Route struct {
	// Distance is in meters, Duration in seconds.
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Legs     []Leg   `json:"legs"`
}

type RouteResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Routes  []Route `json:"routes"`
}
