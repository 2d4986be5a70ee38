// Package patterns provides extraction functions for travel email parsing.
package patterns

import (
	"strings"
)

// CodeBook answers registry membership questions for extracted codes.
type CodeBook interface {
	IsAirline(code string) bool
	IsAirport(code string) bool
}

// ExtractFlightNumbers returns flight numbers whose designator is a known airline.
// Results are normalised (leading zeros stripped) and de-duplicated.
func ExtractFlightNumbers(text string, codes CodeBook) []string {
	var out []string
	for _, m := range compilers().flights.FindAll(text) {
		if !codes.IsAirline(m.Captures["airline"]) {
			continue
		}
		out = appendUnique(out, NormaliseFlightNumber(m.Captures["airline"]+m.Captures["number"]))
	}
	return out
}

// ExtractAirportCodes returns 3-letter codes present in the airport registry,
// in order of appearance.
func ExtractAirportCodes(text string, codes CodeBook) []string {
	var out []string
	for _, m := range compilers().airports.FindAll(text) {
		if code := m.Captures["code"]; codes.IsAirport(code) {
			out = appendUnique(out, code)
		}
	}
	return out
}

// ExtractBookingRefs returns booking references introduced by a booking keyword.
func ExtractBookingRefs(text string) []string {
	var out []string
	for _, m := range compilers().bookings.FindAll(text) {
		code := m.Captures["code"]
		if BookingBlocklist[code] {
			continue
		}
		out = appendUnique(out, code)
	}
	return out
}

// ExtractPassengerName returns the first labelled passenger name, falling back
// to the first ticket-style SURNAME/GIVEN name.
func ExtractPassengerName(text string) string {
	matches := compilers().passenger.FindAll(text)
	for _, format := range []string{"labelled", "ticket"} {
		for _, m := range matches {
			if m.FormatName != format {
				continue
			}
			name := cleanName(m.Captures["name"])
			if name == "" || containsDigit(name) || routePairPattern.MatchString(name) {
				continue
			}
			return stripTitle(name)
		}
	}
	return ""
}

// ExtractHotelName returns the first labelled hotel name.
func ExtractHotelName(text string) string {
	for _, m := range compilers().hotel.FindAll(text) {
		if name := cleanName(m.Captures["name"]); name != "" {
			return name
		}
	}
	return ""
}

// NormaliseFlightNumber strips leading zeros from flight numbers for consistent matching.
// For example, "KE0017" becomes "KE17" and "KAL001" becomes "KAL1".
func NormaliseFlightNumber(flightNum string) string {
	flightNum = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(flightNum), " ", ""))
	if flightNum == "" {
		return ""
	}

	for i, r := range flightNum {
		if r >= '0' && r <= '9' {
			numPart := strings.TrimLeft(flightNum[i:], "0")
			if numPart == "" {
				numPart = "0"
			}
			return flightNum[:i] + numPart
		}
	}

	// No numeric part found, return as-is.
	return flightNum
}

// FlightDesignator returns the letter prefix of a flight number.
func FlightDesignator(flightNum string) string {
	if m := FlightNumberShapePattern.FindStringSubmatch(strings.ToUpper(flightNum)); m != nil {
		return m[1]
	}
	return ""
}

// cleanName trims separators and trailing labels picked up by the line matchers.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "  "); i > 0 {
		s = s[:i]
	}
	s = strings.Trim(s, " \t-–|,;:")
	return strings.Join(strings.Fields(s), " ")
}

var nameTitles = []string{" MR", " MS", " MRS", " MISS", " MSTR"}

func stripTitle(name string) string {
	for _, t := range nameTitles {
		if strings.HasSuffix(name, t) {
			return strings.TrimSuffix(name, t)
		}
	}
	return name
}

func containsDigit(s string) bool {
	for _, c := range s {
		if c >= '0' && c <= '9' {
			return true
		}
	}
	return false
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
