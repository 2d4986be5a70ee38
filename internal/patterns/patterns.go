// Package patterns provides shared regex patterns and helper functions for travel email parsing.
package patterns

import (
	"regexp"
	"sync"
)

// Core patterns used by the validator and the trip builder.
var (
	// FlightNumberShapePattern splits a flight number into designator and number.
	FlightNumberShapePattern = regexp.MustCompile(`^([A-Z]{2,3})(\d+)$`)

	// AirportCodePattern matches a bare 3-letter IATA code.
	AirportCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

	// BookingReferencePattern is the accepted shape of a booking reference.
	BookingReferencePattern = regexp.MustCompile(`^[A-Z0-9]{6,8}$`)

	// routePairPattern matches "ICN/LAX" so it is not taken for a SURNAME/GIVEN name.
	routePairPattern = regexp.MustCompile(`^[A-Z]{3}/[A-Z]{3}$`)
)

// BookingBlocklist contains uppercase words that follow booking keywords in
// confirmation emails but are not booking references.
var BookingBlocklist = map[string]bool{
	"NUMBER": true, "DETAILS": true, "CONFIRM": true, "STATUS": true,
	"SUMMARY": true, "PAYMENT": true, "RECEIPT": true, "REQUEST": true,
	"CHANGED": true, "UPDATED": true, "CANCEL": true, "PENDING": true,
	"TICKET": true, "AIRLINE": true, "BOOKING": true, "HOTEL": true,
	"FLIGHT": true, "TRAVEL": true, "ITINERARY": true, "ONLINE": true,
}

// Date formats. Formats without KeepCase see upper-cased text.
var dateFormats = []Format{
	{
		Name:    "ymd",
		Pattern: `\b(?P<year>{YEAR})[-./](?P<month>{MONTHNUM})[-./](?P<day>{MONTHDAY})(?:\D|$)`,
	},
	{
		Name:    "korean",
		Pattern: `(?P<year>{YEAR})\s*년\s*(?P<month>{MONTHNUM})\s*월\s*(?P<day>{MONTHDAY})\s*일`,
	},
	{
		Name:    "month_day_year",
		Pattern: `\b(?P<monthname>{MONTHNAME})\.?\s+(?P<day>{MONTHDAY}){ORDINAL},?\s+(?P<year>{YEAR})\b`,
	},
	{
		Name:    "day_month_year",
		Pattern: `\b(?P<day>{MONTHDAY}){ORDINAL}\s+(?P<monthname>{MONTHNAME})\.?,?\s+(?P<year>{YEAR})\b`,
	},
	{
		Name:    "ddmonyy",
		Pattern: `\b(?P<day>{MONTHDAY})(?P<monthname>{MON3})(?P<year>{YEAR}|{YY})\b`,
	},
	{
		Name:    "mdy_slash",
		Pattern: `\b(?P<month>{MONTHNUM})/(?P<day>{MONTHDAY})/(?P<year>{YEAR})\b`,
	},
	{
		Name:    "dmy_dot",
		Pattern: `\b(?P<day>{MONTHDAY})\.(?P<month>{MONTHNUM})\.(?P<year>{YEAR})\b`,
	},
}

// General-pass formats.
var (
	flightFormats = []Format{
		{Name: "flight", Pattern: `\b(?P<airline>{AIRLINE})(?P<number>\d{3,4})\b`, KeepCase: true},
	}

	airportFormats = []Format{
		{Name: "iata", Pattern: `\b(?P<code>{IATA})\b`, KeepCase: true},
	}

	bookingFormats = []Format{
		{Name: "keyword", Pattern: `{BOOKING_KEYWORD}{BOOKING_LABEL}\s*[:：#]*\s*(?P<code>{PNR})\b`, KeepCase: true},
	}

	passengerFormats = []Format{
		{
			Name:     "labelled",
			Pattern:  `(?i:passenger(?:\s+name)?|traveller|traveler|guest\s+name|탑승객|승객)(?:\(s\))?{LABEL_SEP}(?P<name>{LINE}{2,60})`,
			KeepCase: true,
		},
		{
			Name:     "ticket",
			Pattern:  `\b(?P<name>[A-Z]{2,}/[A-Z]{2,}(?: [A-Z]{2,})?)(?: +(?:MR|MS|MRS|MISS|MSTR))?\b`,
			KeepCase: true,
		},
	}

	hotelFormats = []Format{
		{
			Name:     "labelled",
			Pattern:  `(?i:hotel|property|accommodation|숙소|호텔)(?i:\s+name)?{LABEL_SEP}(?P<name>{LINE}{2,80})`,
			KeepCase: true,
		},
		{
			Name:     "stay_at",
			Pattern:  `(?i:your\s+stay\s+at|staying\s+at|reservation\s+at)\s+(?P<name>[A-Z][^\n\r,.!]{1,60})`,
			KeepCase: true,
		},
	}
)

// compilerSet holds the package-level compilers, built once on first use.
type compilerSet struct {
	dates     *Compiler
	flights   *Compiler
	airports  *Compiler
	bookings  *Compiler
	passenger *Compiler
	hotel     *Compiler
}

var (
	compilerOnce sync.Once
	compiled     compilerSet
)

func compilers() *compilerSet {
	compilerOnce.Do(func() {
		compiled = compilerSet{
			dates:     NewCompiler(dateFormats, nil).MustCompile(),
			flights:   NewCompiler(flightFormats, nil).MustCompile(),
			airports:  NewCompiler(airportFormats, nil).MustCompile(),
			bookings:  NewCompiler(bookingFormats, nil).MustCompile(),
			passenger: NewCompiler(passengerFormats, nil).MustCompile(),
			hotel:     NewCompiler(hotelFormats, nil).MustCompile(),
		}
	})
	return &compiled
}
