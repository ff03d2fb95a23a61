package cache

import (
	"crypto/md5"
	"fmt"
	"math"
	"slices"
	"strings"
)

// CoordPrecision is the number of decimals kept in coordinate keys. Two
// decimals is roughly 1.1 km, close enough for weather, places and timezone
// lookups to share entries.
const CoordPrecision = 2

const maxKeyLen = 200

// Key joins a vendor namespace and normalised parts into a cache key. Very
// long keys are hashed.
func Key(namespace string, parts ...string) string {
	key := namespace + ":" + strings.Join(parts, "|")
	if len(key) > maxKeyLen {
		return fmt.Sprintf("%s:h_%x", namespace, md5.Sum([]byte(key)))
	}
	return key
}

// Coord renders a coordinate pair rounded to CoordPrecision decimals.
func Coord(lat, lon float64) string {
	return roundCoord(lat) + "," + roundCoord(lon)
}

func roundCoord(v float64) string {
	p := math.Pow10(CoordPrecision)
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0 // folds -0 into 0
	}
	return fmt.Sprintf("%.*f", CoordPrecision, r)
}

// SortedList de-duplicates and sorts values so that request order never
// produces distinct keys.
func SortedList(values []string) string {
	vs := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			vs = append(vs, v)
		}
	}
	slices.Sort(vs)
	return strings.Join(slices.Compact(vs), ",")
}

// Text normalises free-text queries: trimmed, lower-cased, inner whitespace
// collapsed.
func Text(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
