package foursquare

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Place struct {
	FsqID      string     `json:"fsq_id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
	Distance   int        `json:"distance"`
	Geocodes   struct {
		Main Point `json:"main"`
	} `json:"geocodes"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	// Rating is 0-10.
	Rating  float64 `json:"rating"`
	Price   int     `json:"price"`
	Website string  `json:"website"`
	Tel     string  `json:"tel"`
}

type SearchResponse struct {
	Results []Place `json:"results"`
}
