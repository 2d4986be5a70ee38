package patterns

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical layout of a normalised date.
const DateLayout = "2006-01-02"

var monthsByPrefix = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// NormalizeDate converts a date written in any supported style to YYYY-MM-DD.
// It returns ("", false) when no valid calendar date is found.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return dateFromMatch(compilers().dates.Parse(s))
}

// ExtractDates returns all dates found in text, normalised and de-duplicated,
// in order of appearance.
func ExtractDates(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range compilers().dates.FindAll(text) {
		d, ok := dateFromMatch(m)
		if !ok || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// ParseDate parses a date in any supported style.
func ParseDate(s string) (time.Time, bool) {
	d, ok := NormalizeDate(s)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, d)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func dateFromMatch(m *Match) (string, bool) {
	if m == nil {
		return "", false
	}

	year, err := strconv.Atoi(m.GetCapture("year", ""))
	if err != nil {
		return "", false
	}
	if year < 100 {
		year += 2000
	}

	var month time.Month
	if name := m.GetCapture("monthname", ""); name != "" {
		if len(name) < 3 {
			return "", false
		}
		month = monthsByPrefix[strings.ToUpper(name[:3])]
	} else {
		n, err := strconv.Atoi(m.GetCapture("month", ""))
		if err != nil {
			return "", false
		}
		month = time.Month(n)
	}
	if month < time.January || month > time.December {
		return "", false
	}

	day, err := strconv.Atoi(m.GetCapture("day", ""))
	if err != nil {
		return "", false
	}

	// Reject dates that time.Date would roll over, e.g. 31 February.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return "", false
	}
	return t.Format(DateLayout), true
}
