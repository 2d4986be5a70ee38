package trips

import (
	"fmt"
	"testing"
	"time"

	"travelmail/internal/classify"
	"travelmail/internal/registry"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
}

func TestFromRecords(t *testing.T) {
	now := time.Date(2024, 7, 20, 9, 0, 0, 0, time.UTC)
	b := NewBuilder(registry.Default(), WithClock(func() time.Time { return now }), WithIDFunc(sequentialIDs()))

	records := []classify.ExtractedRecord{
		{
			EmailID:          "a",
			Subject:          "Your e-ticket KE123",
			FlightNumber:     "KE123",
			DepartureAirport: "ICN",
			ArrivalAirport:   "LAX",
			DepartureDate:    "2024-08-01",
			ReturnDate:       "2024-08-10",
			BookingReference: "ABC123",
			PassengerName:    "HONG/GILDONG",
			Confidence:       0.9,
		},
		{EmailID: "hotel-only", HotelName: "Seoul Marriott", Confidence: 0.6},
		{EmailID: "unknown-airport", ArrivalAirport: "XYZ", Confidence: 0.6},
	}

	periods := b.FromRecords(records)
	if len(periods) != 1 {
		t.Fatalf("periods = %d, want 1", len(periods))
	}

	p := periods[0]
	if p.ID != "p1" || p.CountryCode != "US" || p.EntryDate != "2024-08-01" || p.ExitDate != "2024-08-10" {
		t.Errorf("period = %+v", p)
	}
	if p.Purpose != PurposeTravel || p.Notes != "Your e-ticket KE123" || p.Confidence != 0.9 {
		t.Errorf("period metadata = %+v", p)
	}
	if !p.ExtractedAt.Equal(now) {
		t.Errorf("ExtractedAt = %v, want %v", p.ExtractedAt, now)
	}

	leg := p.Flights[0]
	if leg.Airline != "Korean Air" {
		t.Errorf("Airline = %q, want Korean Air", leg.Airline)
	}
	if leg.Departure.CountryCode != "KR" || leg.Arrival.Code != "LAX" {
		t.Errorf("leg endpoints = %+v -> %+v", leg.Departure, leg.Arrival)
	}
	if leg.Date != "2024-08-01" || leg.BookingReference != "ABC123" || leg.PassengerName != "HONG/GILDONG" {
		t.Errorf("leg = %+v", leg)
	}
}

func TestQualityScore(t *testing.T) {
	tests := []struct {
		name string
		leg  FlightLeg
		conf float64
		want float64
	}{
		{
			name: "complete",
			leg:  FlightLeg{FlightNumber: "KE123", Airline: "Korean Air", BookingReference: "ABC123", PassengerName: "HONG/GILDONG"},
			conf: 1,
			want: 100,
		},
		{
			name: "flight and booking",
			leg:  FlightLeg{FlightNumber: "KE123", BookingReference: "ABC123"},
			conf: 0.5,
			want: 70,
		},
		{
			name: "placeholders count as missing",
			leg:  FlightLeg{FlightNumber: "TBD", Airline: "unknown"},
			conf: 0.5,
			want: 5,
		},
		{
			name: "empty",
			leg:  FlightLeg{},
			conf: 0,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualityScore(tt.leg, TravelPeriod{Confidence: tt.conf})
			if got != tt.want {
				t.Errorf("QualityScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupKey(t *testing.T) {
	tests := []struct {
		leg  FlightLeg
		want string
	}{
		{FlightLeg{Departure: Airport{Code: "ICN"}, Arrival: Airport{Code: "LAX"}, Date: "2024-08-01"}, "ICN-LAX-2024-08-01"},
		{FlightLeg{Departure: Airport{City: "Seoul"}, Arrival: Airport{Code: "LAX"}, Date: "Aug 1, 2024"}, "Seoul-LAX-2024-08-01"},
		{FlightLeg{Arrival: Airport{Code: "LAX"}, Date: "2024-08-01"}, "UNKNOWN-LAX-2024-08-01"},
	}

	for _, tt := range tests {
		if got := DedupKey(tt.leg); got != tt.want {
			t.Errorf("DedupKey(%+v) = %q, want %q", tt.leg, got, tt.want)
		}
	}
}

func TestResolveDuplicatesKeepsHigherQuality(t *testing.T) {
	route := func(id string, leg FlightLeg, conf float64) TravelPeriod {
		leg.Departure = Airport{Code: "ICN"}
		leg.Arrival = Airport{Code: "LAX"}
		leg.Date = "2024-08-01"
		return TravelPeriod{ID: id, EntryDate: "2024-08-01", Flights: []FlightLeg{leg}, Confidence: conf}
	}

	sparse := route("sparse", FlightLeg{}, 0.9)
	rich := route("rich", FlightLeg{FlightNumber: "KE123", BookingReference: "ABC123"}, 0.5)

	if s := QualityScore(rich.Flights[0], rich); s < 85 {
		t.Fatalf("rich score = %v, want >= 85", s)
	}
	if s := QualityScore(sparse.Flights[0], sparse); s > 10 {
		t.Fatalf("sparse score = %v, want <= 10", s)
	}

	for _, order := range [][]TravelPeriod{{sparse, rich}, {rich, sparse}} {
		got := ResolveDuplicates(order)
		if len(got) != 1 || got[0].ID != "rich" {
			t.Errorf("ResolveDuplicates(%s, %s) = %v, want only rich", order[0].ID, order[1].ID, ids(got))
		}
	}
}

func TestResolveDuplicatesTieKeepsFirst(t *testing.T) {
	leg := FlightLeg{FlightNumber: "KE123", Departure: Airport{Code: "ICN"}, Arrival: Airport{Code: "LAX"}, Date: "2024-08-01"}
	a := TravelPeriod{ID: "a", Flights: []FlightLeg{leg}, Confidence: 0.5}
	b := TravelPeriod{ID: "b", Flights: []FlightLeg{leg}, Confidence: 0.5}

	got := ResolveDuplicates([]TravelPeriod{a, b})
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("got %v, want [a]", ids(got))
	}
}

func TestResolveDuplicatesSortsAndPassesThrough(t *testing.T) {
	mk := func(id, entry, flightDate, dep string) TravelPeriod {
		p := TravelPeriod{ID: id, EntryDate: entry}
		if dep != "" {
			p.Flights = []FlightLeg{{Departure: Airport{Code: dep}, Arrival: Airport{Code: "NRT"}, Date: flightDate}}
		}
		return p
	}

	in := []TravelPeriod{
		mk("undated", "", "", ""),
		mk("late", "2024-09-01", "2024-09-01", "ICN"),
		mk("no-flights", "2024-08-15", "", ""),
		mk("flight-date-only", "", "2024-08-05", "GMP"),
		mk("early", "2024-08-01", "2024-08-01", "PUS"),
	}

	got := ResolveDuplicates(in)
	want := []string{"early", "flight-date-only", "no-flights", "late", "undated"}
	if fmt.Sprint(ids(got)) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", ids(got), want)
	}
	if in[0].ID != "undated" {
		t.Error("input slice reordered")
	}
}

func ids(ps []TravelPeriod) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestDerivedIDsAreStable(t *testing.T) {
	rec := classify.ExtractedRecord{EmailID: "a", ArrivalAirport: "LAX", DepartureDate: "2024-08-01"}

	first, ok := NewBuilder(registry.Default(), WithDerivedIDs()).FromRecord(rec)
	if !ok {
		t.Fatal("FromRecord rejected a known arrival")
	}
	second, _ := NewBuilder(registry.Default(), WithDerivedIDs()).FromRecord(rec)
	if first.ID != second.ID {
		t.Errorf("derived ids differ: %q vs %q", first.ID, second.ID)
	}

	rec.EmailID = "b"
	other, _ := NewBuilder(registry.Default(), WithDerivedIDs()).FromRecord(rec)
	if other.ID == first.ID {
		t.Errorf("different emails share id %q", first.ID)
	}
}
