// Package merge collapses records that describe the same trip.
package merge

import (
	"math"

	"travelmail/internal/classify"
	"travelmail/internal/patterns"
)

// Bonus is added to the merged confidence when two records corroborate each other.
const Bonus = 0.05

// Policy selects how often the merge bonus may be granted.
type Policy int

const (
	// BonusOncePerTrip grants the bonus at most once per merged trip, so a
	// trip seen in many emails is not inflated towards 1.0.
	BonusOncePerTrip Policy = iota

	// BonusPerMerge grants the bonus on every merge.
	BonusPerMerge
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "", "once", "once_per_trip":
		return BonusOncePerTrip, true
	case "per_merge":
		return BonusPerMerge, true
	}
	return BonusOncePerTrip, false
}

func (p Policy) String() string {
	if p == BonusPerMerge {
		return "per_merge"
	}
	return "once_per_trip"
}

// Merger folds records using a bonus policy.
type Merger struct {
	policy Policy
}

// New returns a Merger using policy.
func New(policy Policy) *Merger {
	return &Merger{policy: policy}
}

// Equivalent reports whether a and b describe the same trip: same flight
// number, same booking reference, or same departure date and airport.
func Equivalent(a, b classify.ExtractedRecord) bool {
	if a.FlightNumber != "" && a.FlightNumber == b.FlightNumber {
		return true
	}
	if a.BookingReference != "" && a.BookingReference == b.BookingReference {
		return true
	}
	if a.DepartureAirport == "" || a.DepartureAirport != b.DepartureAirport {
		return false
	}
	da, okA := normaliseDate(a.DepartureDate)
	db, okB := normaliseDate(b.DepartureDate)
	return okA && okB && da == db
}

// Merge combines two equivalent records. The higher-confidence record is
// primary (a on ties) and keeps its fields; empty fields are filled from the
// other. Neither input is modified.
func (m *Merger) Merge(a, b classify.ExtractedRecord) classify.ExtractedRecord {
	primary, secondary := a, b
	if b.Confidence > a.Confidence {
		primary, secondary = b, a
	}

	out := primary.Clone()
	fill(&out.DepartureDate, secondary.DepartureDate)
	fill(&out.ReturnDate, secondary.ReturnDate)
	fill(&out.DepartureAirport, secondary.DepartureAirport)
	fill(&out.ArrivalAirport, secondary.ArrivalAirport)
	fill(&out.FlightNumber, secondary.FlightNumber)
	fill(&out.BookingReference, secondary.BookingReference)
	fill(&out.HotelName, secondary.HotelName)
	fill(&out.PassengerName, secondary.PassengerName)
	if out.Category == "" {
		out.Category = secondary.Category
	}
	out.ExtractedData = primary.ExtractedData.Union(secondary.ExtractedData)

	out.Confidence = math.Max(a.Confidence, b.Confidence)
	if m.policy == BonusPerMerge || !(a.MergeBonusApplied || b.MergeBonusApplied) {
		out.Confidence = math.Min(1, out.Confidence+Bonus)
	}
	out.MergeBonusApplied = true
	return out
}

// Fold merges candidate into the first equivalent record of list, or appends
// it. It returns a new slice and leaves list untouched.
func (m *Merger) Fold(list []classify.ExtractedRecord, candidate classify.ExtractedRecord) []classify.ExtractedRecord {
	out := make([]classify.ExtractedRecord, len(list), len(list)+1)
	copy(out, list)
	for i := range out {
		if Equivalent(out[i], candidate) {
			out[i] = m.Merge(out[i], candidate)
			return out
		}
	}
	return append(out, candidate.Clone())
}

// All folds every record in order.
func (m *Merger) All(records []classify.ExtractedRecord) []classify.ExtractedRecord {
	var out []classify.ExtractedRecord
	for _, r := range records {
		out = m.Fold(out, r)
	}
	return out
}

func fill(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

func normaliseDate(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	return patterns.NormalizeDate(s)
}
