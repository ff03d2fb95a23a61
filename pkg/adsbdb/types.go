package adsbdb

import "encoding/json"

type envelope struct {
	Response json.RawMessage `json:"response"`
}

type Airline struct {
	Name    string `json:"name"`
	ICAO    string `json:"icao"`
	IATA    string `json:"iata"`
	Country string `json:"country"`
}

type Airport struct {
	Name         string  `json:"name"`
	IATACode     string  `json:"iata_code"`
	ICAOCode     string  `json:"icao_code"`
	Municipality string  `json:"municipality"`
	CountryName  string  `json:"country_name"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type FlightRoute struct {
	Callsign     string   `json:"callsign"`
	CallsignICAO string   `json:"callsign_icao"`
	CallsignIATA string   `json:"callsign_iata"`
	Airline      *Airline `json:"airline"`
	Origin       Airport  `json:"origin"`
	Destination  Airport  `json:"destination"`
}
