package googleplaces

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchRequest struct {
	TextQuery      string `json:"textQuery"`
	IncludedType   string `json:"includedType,omitempty"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
	LocationBias   struct {
		Circle struct {
			Center latLng  `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationBias"`
}

type Place struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string   `json:"formattedAddress"`
	Location         latLng   `json:"location"`
	Rating           float64  `json:"rating"`
	PriceLevel       string   `json:"priceLevel"`
	WebsiteURI       string   `json:"websiteUri"`
	Types            []string `json:"types"`
	PrimaryType      string   `json:"primaryType"`
}

type SearchResponse struct {
	Places []Place `json:"places"`
}
