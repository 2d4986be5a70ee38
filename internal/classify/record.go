// Package classify turns raw emails into scored travel records.
package classify

import (
	"math"

	"travelmail/internal/registry"
)

// MinConfidence is the lowest confidence a record may carry and still be surfaced.
const MinConfidence = 0.2

// ExtractedData holds every value seen during extraction, specialised results first.
type ExtractedData struct {
	Dates           []string `json:"dates"`
	AirportCodes    []string `json:"airport_codes"`
	FlightNumbers   []string `json:"flight_numbers"`
	BookingCodes    []string `json:"booking_codes"`
	MatchedPatterns []string `json:"matched_patterns"`
}

// Clone returns a deep copy.
func (d ExtractedData) Clone() ExtractedData {
	return ExtractedData{
		Dates:           cloneStrings(d.Dates),
		AirportCodes:    cloneStrings(d.AirportCodes),
		FlightNumbers:   cloneStrings(d.FlightNumbers),
		BookingCodes:    cloneStrings(d.BookingCodes),
		MatchedPatterns: cloneStrings(d.MatchedPatterns),
	}
}

// Union returns d followed by the values of o not already in d.
func (d ExtractedData) Union(o ExtractedData) ExtractedData {
	return ExtractedData{
		Dates:           unionStrings(d.Dates, o.Dates),
		AirportCodes:    unionStrings(d.AirportCodes, o.AirportCodes),
		FlightNumbers:   unionStrings(d.FlightNumbers, o.FlightNumbers),
		BookingCodes:    unionStrings(d.BookingCodes, o.BookingCodes),
		MatchedPatterns: unionStrings(d.MatchedPatterns, o.MatchedPatterns),
	}
}

// ExtractedRecord is the structured result of classifying one email, or of
// merging several emails that describe the same trip.
type ExtractedRecord struct {
	EmailID          string            `json:"email_id"`
	Subject          string            `json:"subject"`
	Sender           string            `json:"sender"`
	Category         registry.Category `json:"category,omitempty"`
	Confidence       float64           `json:"confidence"`
	DepartureDate    string            `json:"departure_date,omitempty"`
	ReturnDate       string            `json:"return_date,omitempty"`
	DepartureAirport string            `json:"departure_airport,omitempty"`
	ArrivalAirport   string            `json:"arrival_airport,omitempty"`
	FlightNumber     string            `json:"flight_number,omitempty"`
	BookingReference string            `json:"booking_reference,omitempty"`
	HotelName        string            `json:"hotel_name,omitempty"`
	PassengerName    string            `json:"passenger_name,omitempty"`
	ExtractedData    ExtractedData     `json:"extracted_data"`

	// MergeBonusApplied is set once a merge has granted its confidence bonus.
	MergeBonusApplied bool `json:"merge_bonus_applied,omitempty"`
}

// Clone returns a deep copy of r.
func (r ExtractedRecord) Clone() ExtractedRecord {
	r.ExtractedData = r.ExtractedData.Clone()
	return r
}

// Clamp limits a confidence value to [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func unionStrings(a, b []string) []string {
	out := cloneStrings(a)
	for _, v := range b {
		out = appendUnique(out, v)
	}
	return out
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
