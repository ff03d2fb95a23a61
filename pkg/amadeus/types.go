package amadeus

type Endpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

type Segment struct {
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
	CarrierCode string   `json:"carrierCode"`
	Number      string   `json:"number"`
	Duration    string   `json:"duration"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Price struct {
	Currency   string `json:"currency"`
	GrandTotal string `json:"grandTotal"`
}

type Offer struct {
	ID          string      `json:"id"`
	Itineraries []Itinerary `json:"itineraries"`
	Price       Price       `json:"price"`
}

type OffersResponse struct {
	Data []Offer `json:"data"`
}
