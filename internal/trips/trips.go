// Package trips assembles travel periods from accepted records and resolves
// duplicate flight legs between them.
package trips

import (
	"time"

	"github.com/google/uuid"

	"travelmail/internal/classify"
	"travelmail/internal/patterns"
)

// PurposeTravel is the default purpose of an assembled period.
const PurposeTravel = "travel"

// Airport is one end of a flight leg.
type Airport struct {
	Code        string `json:"code,omitempty"`
	City        string `json:"city,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`
}

// FlightLeg is a single flight within a travel period.
type FlightLeg struct {
	FlightNumber     string  `json:"flight_number,omitempty"`
	Airline          string  `json:"airline,omitempty"`
	Departure        Airport `json:"departure"`
	Arrival          Airport `json:"arrival"`
	Date             string  `json:"date,omitempty"` // YYYY-MM-DD
	BookingReference string  `json:"booking_reference,omitempty"`
	PassengerName    string  `json:"passenger_name,omitempty"`
}

// TravelPeriod is a stay in one country spanning one or more flight legs.
// Dates are YYYY-MM-DD; an empty ExitDate means the stay is open.
type TravelPeriod struct {
	ID          string      `json:"id"`
	CountryCode string      `json:"country_code"`
	CountryName string      `json:"country_name"`
	EntryDate   string      `json:"entry_date,omitempty"`
	ExitDate    string      `json:"exit_date,omitempty"`
	Flights     []FlightLeg `json:"flights,omitempty"`
	Purpose     string      `json:"purpose,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Confidence  float64     `json:"confidence"`
	ExtractedAt time.Time   `json:"extracted_at"`
}

// Clone returns a copy of p that shares no slices with it.
func (p TravelPeriod) Clone() TravelPeriod {
	p.Flights = append([]FlightLeg(nil), p.Flights...)
	return p
}

// FirstFlight returns the period's first leg.
func (p TravelPeriod) FirstFlight() (FlightLeg, bool) {
	if len(p.Flights) == 0 {
		return FlightLeg{}, false
	}
	return p.Flights[0], true
}

// SortDate returns EntryDate, falling back to the first flight's date.
func (p TravelPeriod) SortDate() string {
	if p.EntryDate != "" {
		return p.EntryDate
	}
	if f, ok := p.FirstFlight(); ok {
		return f.Date
	}
	return ""
}

// Directory resolves airport and airline codes.
type Directory interface {
	Airport(code string) (patterns.Airport, bool)
	AirlineName(code string) (string, bool)
}

// Builder turns accepted records into travel periods.
type Builder struct {
	dir    Directory
	now    func() time.Time
	newID  func() string
	derive bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the ExtractedAt time source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDFunc sets the period id generator.
func WithIDFunc(f func() string) Option {
	return func(b *Builder) { b.newID = f }
}

// WithDerivedIDs makes a period's id a name-based uuid of its record's
// email id, so rebuilding from the same records yields the same ids.
func WithDerivedIDs() Option {
	return func(b *Builder) { b.derive = true }
}

// NewBuilder returns a builder resolving codes through dir.
func NewBuilder(dir Directory, opts ...Option) *Builder {
	b := &Builder{dir: dir, now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromRecords builds one period per record whose arrival airport is known.
// The country of the period is the arrival airport's country. Records that
// cannot be attributed to a country are skipped.
func (b *Builder) FromRecords(records []classify.ExtractedRecord) []TravelPeriod {
	var out []TravelPeriod
	for _, rec := range records {
		p, ok := b.FromRecord(rec)
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// FromRecord builds a period from one record.
func (b *Builder) FromRecord(rec classify.ExtractedRecord) (TravelPeriod, bool) {
	if rec.ArrivalAirport == "" {
		return TravelPeriod{}, false
	}
	arr, ok := b.dir.Airport(rec.ArrivalAirport)
	if !ok || arr.CountryCode == "" {
		return TravelPeriod{}, false
	}

	leg := FlightLeg{
		FlightNumber:     rec.FlightNumber,
		Arrival:          toAirport(arr),
		Date:             rec.DepartureDate,
		BookingReference: rec.BookingReference,
		PassengerName:    rec.PassengerName,
	}
	if dep, ok := b.dir.Airport(rec.DepartureAirport); ok {
		leg.Departure = toAirport(dep)
	} else {
		leg.Departure = Airport{Code: rec.DepartureAirport}
	}
	if name, ok := b.dir.AirlineName(patterns.FlightDesignator(rec.FlightNumber)); ok {
		leg.Airline = name
	}

	id := b.newID()
	if b.derive && rec.EmailID != "" {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("travelmail/period/"+rec.EmailID)).String()
	}

	return TravelPeriod{
		ID:          id,
		CountryCode: arr.CountryCode,
		CountryName: arr.CountryName,
		EntryDate:   rec.DepartureDate,
		ExitDate:    rec.ReturnDate,
		Flights:     []FlightLeg{leg},
		Purpose:     PurposeTravel,
		Notes:       rec.Subject,
		Confidence:  rec.Confidence,
		ExtractedAt: b.now().UTC(),
	}, true
}

func toAirport(a patterns.Airport) Airport {
	return Airport{
		Code:        a.Code,
		City:        a.City,
		CountryCode: a.CountryCode,
		CountryName: a.CountryName,
	}
}
