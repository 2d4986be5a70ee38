package trips

import (
	"fmt"
	"sort"
	"strings"

	"travelmail/internal/patterns"
)

// Quality score components.
const (
	flightNumberScore = 50
	airlineScore      = 20
	bookingScore      = 15
	confidenceScore   = 10
	passengerScore    = 5
)

// placeholders are values that stand in for unknown data.
var placeholders = map[string]bool{
	"":        true,
	"UNKNOWN": true,
	"N/A":     true,
	"NA":      true,
	"TBD":     true,
	"TBA":     true,
	"-":       true,
}

func isPlaceholder(s string) bool {
	return placeholders[strings.ToUpper(strings.TrimSpace(s))]
}

// QualityScore ranks a leg by how complete its data is. Only the relative
// order matters; it picks a winner among duplicate legs.
func QualityScore(leg FlightLeg, p TravelPeriod) float64 {
	score := 0.0
	if !isPlaceholder(leg.FlightNumber) {
		score += flightNumberScore
	}
	if !isPlaceholder(leg.Airline) {
		score += airlineScore
	}
	if strings.TrimSpace(leg.BookingReference) != "" {
		score += bookingScore
	}
	score += confidenceScore * p.Confidence
	if strings.TrimSpace(leg.PassengerName) != "" {
		score += passengerScore
	}
	return score
}

// DedupKey returns the route+date identity of a leg, e.g. "ICN-LAX-2024-08-01".
func DedupKey(leg FlightLeg) string {
	date := leg.Date
	if d, ok := patterns.NormalizeDate(date); ok {
		date = d
	}
	return fmt.Sprintf("%s-%s-%s", endpointKey(leg.Departure), endpointKey(leg.Arrival), date)
}

func endpointKey(a Airport) string {
	switch {
	case a.Code != "":
		return a.Code
	case a.City != "":
		return a.City
	default:
		return "UNKNOWN"
	}
}

// ResolveDuplicates keeps the highest-scoring period among those whose first
// leg shares a route+date key; ties keep the first seen. Periods without
// legs are kept as-is. The result is sorted by entry date with undated
// periods last. The input slice is not modified.
func ResolveDuplicates(periods []TravelPeriod) []TravelPeriod {
	var out []TravelPeriod
	index := make(map[string]int)
	scores := make(map[string]float64)

	for _, p := range periods {
		leg, ok := p.FirstFlight()
		if !ok {
			out = append(out, p.Clone())
			continue
		}
		key := DedupKey(leg)
		score := QualityScore(leg, p)
		if i, seen := index[key]; seen {
			if score > scores[key] {
				out[i] = p.Clone()
				scores[key] = score
			}
			continue
		}
		index[key] = len(out)
		scores[key] = score
		out = append(out, p.Clone())
	}

	SortByDate(out)
	return out
}

// SortByDate orders periods ascending by SortDate. Periods without a date go
// last; the sort is stable.
func SortByDate(periods []TravelPeriod) {
	sort.SliceStable(periods, func(i, j int) bool {
		di, dj := sortKey(periods[i]), sortKey(periods[j])
		if di == "" || dj == "" {
			return di != "" && dj == ""
		}
		return di < dj
	})
}

func sortKey(p TravelPeriod) string {
	d := p.SortDate()
	if n, ok := patterns.NormalizeDate(d); ok {
		return n
	}
	return d
}
