// Package roundtrip pairs reciprocal one-way travel periods into round-trip
// merge suggestions.
package roundtrip

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"travelmail/internal/patterns"
	"travelmail/internal/trips"
)

// DefaultWindow is the largest gap between outbound and return entry dates.
const DefaultWindow = 30 * 24 * time.Hour

// Suggestion proposes merging two periods into one itinerary. It is a
// proposal only; nothing changes until Apply accepts it.
type Suggestion struct {
	ID             string             `json:"id"`
	Outbound       trips.TravelPeriod `json:"outbound"`
	Return         trips.TravelPeriod `json:"return"`
	Merged         trips.TravelPeriod `json:"merged"`
	SuggestionText string             `json:"suggestion_text"`
}

// Detector finds round trips. It remembers every pair it has suggested so
// repeated runs do not suggest the same pair twice. It is safe for
// concurrent use.
type Detector struct {
	window time.Duration
	newID  func() string
	derive bool

	mu        sync.Mutex
	processed map[string]bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithWindow sets the maximum gap between the two entry dates.
func WithWindow(d time.Duration) Option {
	return func(det *Detector) {
		if d > 0 {
			det.window = d
		}
	}
}

// WithIDFunc sets the generator for merged period ids.
func WithIDFunc(f func() string) Option {
	return func(det *Detector) { det.newID = f }
}

// WithDerivedIDs makes a merged period's id a name-based uuid of the pair
// key, so the same pair always merges into the same id.
func WithDerivedIDs() Option {
	return func(det *Detector) { det.derive = true }
}

// NewDetector returns a detector with an empty processed-pair set.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		window:    DefaultWindow,
		newID:     uuid.NewString,
		processed: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PairKey returns the order-independent key of two period ids.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Detect returns a suggestion for every reciprocal pair within the window
// that has not been suggested before. The periods are not modified.
func (d *Detector) Detect(periods []trips.TravelPeriod) []Suggestion {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []Suggestion
	for i := 0; i < len(periods); i++ {
		for j := i + 1; j < len(periods); j++ {
			a, b := periods[i], periods[j]
			key := PairKey(a.ID, b.ID)
			if d.processed[key] || !Reciprocal(a, b) {
				continue
			}

			da, okA := entryTime(a)
			db, okB := entryTime(b)
			if !okA || !okB {
				continue
			}
			gap := time.Duration(math.Abs(float64(db.Sub(da))))
			if gap > d.window {
				continue
			}

			outbound, ret := a, b
			if db.Before(da) || (db.Equal(da) && b.ID < a.ID) {
				outbound, ret = b, a
			}

			d.processed[key] = true
			out = append(out, d.suggest(key, outbound, ret, gap))
		}
	}
	return out
}

// Processed reports whether the pair has already been suggested.
func (d *Detector) Processed(a, b string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.processed[PairKey(a, b)]
}

// Reset forgets every processed pair.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed = make(map[string]bool)
}

// Reciprocal reports whether a's first flight is the reverse of b's first
// flight by country. Flights with an unknown country never match.
func Reciprocal(a, b trips.TravelPeriod) bool {
	fa, okA := a.FirstFlight()
	fb, okB := b.FirstFlight()
	if !okA || !okB {
		return false
	}
	codes := []string{fa.Departure.CountryCode, fa.Arrival.CountryCode, fb.Departure.CountryCode, fb.Arrival.CountryCode}
	for _, c := range codes {
		if c == "" {
			return false
		}
	}
	return fa.Departure.CountryCode == fb.Arrival.CountryCode &&
		fa.Arrival.CountryCode == fb.Departure.CountryCode
}

func (d *Detector) suggest(key string, outbound, ret trips.TravelPeriod, gap time.Duration) Suggestion {
	flights := make([]trips.FlightLeg, 0, len(outbound.Flights)+len(ret.Flights))
	flights = append(flights, outbound.Flights...)
	flights = append(flights, ret.Flights...)

	extractedAt := outbound.ExtractedAt
	if ret.ExtractedAt.After(extractedAt) {
		extractedAt = ret.ExtractedAt
	}

	id := d.newID()
	if d.derive {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte("travelmail/roundtrip/"+key)).String()
	}

	merged := trips.TravelPeriod{
		ID:          id,
		CountryCode: outbound.CountryCode,
		CountryName: outbound.CountryName,
		EntryDate:   outbound.EntryDate,
		ExitDate:    ret.EntryDate,
		Flights:     flights,
		Purpose:     outbound.Purpose,
		Notes:       fmt.Sprintf("Round trip %s (%d flights)", route(outbound, ret), len(flights)),
		Confidence:  math.Max(outbound.Confidence, ret.Confidence),
		ExtractedAt: extractedAt,
	}

	days := int(gap.Hours() / 24)
	return Suggestion{
		ID:       "roundtrip-" + key,
		Outbound: outbound.Clone(),
		Return:   ret.Clone(),
		Merged:   merged,
		SuggestionText: fmt.Sprintf("%s on %s and the return on %s look like one round trip of %d days. Merge them?",
			route(outbound, ret), outbound.EntryDate, ret.EntryDate, days),
	}
}

// route renders "ICN → LAX → ICN" from the outbound and return legs.
func route(outbound, ret trips.TravelPeriod) string {
	out, _ := outbound.FirstFlight()
	last := ret.Flights[len(ret.Flights)-1]
	return fmt.Sprintf("%s → %s → %s", place(out.Departure), place(out.Arrival), place(last.Arrival))
}

func place(a trips.Airport) string {
	switch {
	case a.Code != "":
		return a.Code
	case a.City != "":
		return a.City
	default:
		return a.CountryCode
	}
}

func entryTime(p trips.TravelPeriod) (time.Time, bool) {
	return patterns.ParseDate(p.SortDate())
}

// Apply returns the period list after a decision on s. Accepting replaces
// both originals with the merged period at the position of whichever
// original came first; rejecting, or a suggestion whose originals are no
// longer present, returns an unchanged copy.
func Apply(periods []trips.TravelPeriod, s Suggestion, accept bool) []trips.TravelPeriod {
	out := make([]trips.TravelPeriod, 0, len(periods))
	if !accept {
		return append(out, periods...)
	}

	oi, ri := -1, -1
	for i, p := range periods {
		switch p.ID {
		case s.Outbound.ID:
			oi = i
		case s.Return.ID:
			ri = i
		}
	}
	if oi < 0 || ri < 0 {
		return append(out, periods...)
	}

	first := oi
	if ri < first {
		first = ri
	}
	for i, p := range periods {
		switch i {
		case first:
			out = append(out, s.Merged.Clone())
		case oi, ri:
		default:
			out = append(out, p)
		}
	}
	return out
}

// Decisions maps suggestion ids to accept (true) or reject (false).
type Decisions map[string]bool

// ApplyAll applies every suggestion that has a decision, in suggestion order.
func ApplyAll(periods []trips.TravelPeriod, suggestions []Suggestion, decisions Decisions) []trips.TravelPeriod {
	out := append([]trips.TravelPeriod(nil), periods...)
	for _, s := range suggestions {
		if accept, ok := decisions[s.ID]; ok {
			out = Apply(out, s, accept)
		}
	}
	return out
}
