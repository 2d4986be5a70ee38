// Package validate checks extracted travel records for internal consistency.
package validate

import (
	"fmt"
	"strconv"
	"time"

	"travelmail/internal/classify"
	"travelmail/internal/patterns"
)

// PenaltyPerIssue is subtracted from confidence for every consistency issue.
const PenaltyPerIssue = 0.1

// Date window for plausible departures, relative to now.
const (
	maxPastDays     = 30
	maxFutureYears  = 2
	maxFlightNumber = 9999
)

// CodeBook answers registry membership for airline and airport codes.
type CodeBook interface {
	IsAirline(code string) bool
	IsAirport(code string) bool
}

// Result lists the consistency problems found in a record.
type Result struct {
	IsConsistent bool     `json:"is_consistent"`
	Issues       []string `json:"issues,omitempty"`
}

// Validator checks records against the code tables and a clock. It never
// mutates the records it is given.
type Validator struct {
	codes CodeBook
	now   func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the time source used for the date window checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// New returns a validator that resolves codes through codes.
func New(codes CodeBook, opts ...Option) *Validator {
	v := &Validator{codes: codes, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every consistency check against rec.
func (v *Validator) Validate(rec classify.ExtractedRecord) Result {
	var issues []string

	dep, depOK := parseDate(rec.DepartureDate)
	ret, retOK := parseDate(rec.ReturnDate)

	if depOK && retOK && !ret.After(dep) {
		issues = append(issues, fmt.Sprintf("return date %s is not after departure date %s", rec.ReturnDate, rec.DepartureDate))
	}

	if depOK {
		today := truncateDay(v.now())
		if dep.Before(today.AddDate(0, 0, -maxPastDays)) {
			issues = append(issues, fmt.Sprintf("departure date %s is more than %d days in the past", rec.DepartureDate, maxPastDays))
		}
		if dep.After(today.AddDate(maxFutureYears, 0, 0)) {
			issues = append(issues, fmt.Sprintf("departure date %s is more than %d years in the future", rec.DepartureDate, maxFutureYears))
		}
	}

	if rec.FlightNumber != "" && !v.validFlightNumber(rec.FlightNumber) {
		issues = append(issues, fmt.Sprintf("invalid flight number %s", rec.FlightNumber))
	}

	if rec.DepartureAirport != "" && !v.validAirport(rec.DepartureAirport) {
		issues = append(issues, fmt.Sprintf("invalid departure airport %s", rec.DepartureAirport))
	}
	if rec.ArrivalAirport != "" && !v.validAirport(rec.ArrivalAirport) {
		issues = append(issues, fmt.Sprintf("invalid arrival airport %s", rec.ArrivalAirport))
	}

	if rec.DepartureAirport != "" && rec.DepartureAirport == rec.ArrivalAirport {
		issues = append(issues, fmt.Sprintf("departure and arrival airport are both %s", rec.DepartureAirport))
	}

	if rec.BookingReference != "" && !patterns.BookingReferencePattern.MatchString(rec.BookingReference) {
		issues = append(issues, fmt.Sprintf("invalid booking reference %s", rec.BookingReference))
	}

	return Result{IsConsistent: len(issues) == 0, Issues: issues}
}

// ApplyPenalty returns a copy of rec with PenaltyPerIssue subtracted for each
// issue in res. Confidence never drops below zero.
func ApplyPenalty(rec classify.ExtractedRecord, res Result) classify.ExtractedRecord {
	out := rec.Clone()
	out.Confidence = classify.Clamp(out.Confidence - PenaltyPerIssue*float64(len(res.Issues)))
	return out
}

func (v *Validator) validFlightNumber(fn string) bool {
	m := patterns.FlightNumberShapePattern.FindStringSubmatch(fn)
	if m == nil || !v.codes.IsAirline(m[1]) {
		return false
	}
	n, err := strconv.Atoi(m[2])
	return err == nil && n >= 1 && n <= maxFlightNumber
}

func (v *Validator) validAirport(code string) bool {
	return patterns.AirportCodePattern.MatchString(code) && v.codes.IsAirport(code)
}

// parseDate accepts normalised dates and anything the date normaliser
// understands. Unparseable dates skip the date checks.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(patterns.DateLayout, s); err == nil {
		return t, true
	}
	return patterns.ParseDate(s)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
