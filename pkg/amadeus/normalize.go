package amadeus

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/briangreenhill/tripplanner/internal/domain"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

const localTime = "2006-01-02T15:04:05"

// Offers converts a search response. Only the first itinerary of each offer
// is used since searches are one-way.
func Offers(r *OffersResponse) ([]domain.FlightOffer, error) {
	out := make([]domain.FlightOffer, 0, len(r.Data))
	for _, o := range r.Data {
		if len(o.Itineraries) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(o.Price.GrandTotal, 64)
		if err != nil {
			return nil, upstream.Invalid(Vendor, fmt.Errorf("offer %s price %q: %w", o.ID, o.Price.GrandTotal, err))
		}
		it := o.Itineraries[0]
		total, err := ParseDuration(it.Duration)
		if err != nil {
			return nil, upstream.Invalid(Vendor, err)
		}

		segs := make([]domain.FlightSegment, 0, len(it.Segments))
		for _, s := range it.Segments {
			seg, err := segment(s)
			if err != nil {
				return nil, upstream.Invalid(Vendor, fmt.Errorf("offer %s: %w", o.ID, err))
			}
			segs = append(segs, seg)
		}
		out = append(out, domain.FlightOffer{
			ID:       o.ID,
			Price:    price,
			Currency: o.Price.Currency,
			Stops:    max(len(segs)-1, 0),
			Duration: total,
			Segments: segs,
		})
	}
	return out, nil
}

func segment(s Segment) (domain.FlightSegment, error) {
	dep, err := time.Parse(localTime, s.Departure.At)
	if err != nil {
		return domain.FlightSegment{}, err
	}
	arr, err := time.Parse(localTime, s.Arrival.At)
	if err != nil {
		return domain.FlightSegment{}, err
	}
	d, err := ParseDuration(s.Duration)
	if err != nil {
		return domain.FlightSegment{}, err
	}
	return domain.FlightSegment{
		From:      s.Departure.IATACode,
		To:        s.Arrival.IATACode,
		Departure: dep,
		Arrival:   arr,
		Carrier:   s.CarrierCode,
		Number:    s.Number,
		Duration:  d,
	}, nil
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?)?$`)

// ParseDuration parses the ISO 8601 subset Amadeus emits, e.g. "PT7H30M"
// or "P1DT2H".
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	m := isoDuration.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var d time.Duration
	for i, unit := range []time.Duration{24 * time.Hour, time.Hour, time.Minute} {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		d += time.Duration(n) * unit
	}
	return d, nil
}
