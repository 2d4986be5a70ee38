package classify

import (
	"math"
	"reflect"
	"testing"

	"travelmail/internal/email"
	"travelmail/internal/registry"
)

func koreanAirEmail() email.RawEmail {
	return email.RawEmail{
		ID:      "msg-ke123",
		Subject: "Your e-ticket itinerary: KE123 ICN-LAX",
		Sender:  "Korean Air <noreply@koreanair.example>",
		BodyText: "Booking reference: ABC123\n" +
			"Flight KE123 departs Seoul Incheon (ICN) on 2024-08-01 and arrives Los Angeles (LAX).\n" +
			"Return flight KE124 on 2024-08-10.\n" +
			"Passenger: HONG/GILDONG MR\n",
	}
}

func TestClassifyKoreanAir(t *testing.T) {
	e := NewEngine(registry.Default())

	rec, ok := e.Classify(koreanAirEmail())
	if !ok {
		t.Fatal("expected record")
	}

	if rec.Category != registry.CategoryAirline {
		t.Errorf("Category = %q, want airline", rec.Category)
	}
	if rec.Confidence < 0.6 || rec.Confidence > 1 {
		t.Errorf("Confidence = %v, want within [0.6, 1]", rec.Confidence)
	}

	tests := []struct {
		field string
		got   string
		want  string
	}{
		{"FlightNumber", rec.FlightNumber, "KE123"},
		{"DepartureAirport", rec.DepartureAirport, "ICN"},
		{"ArrivalAirport", rec.ArrivalAirport, "LAX"},
		{"DepartureDate", rec.DepartureDate, "2024-08-01"},
		{"ReturnDate", rec.ReturnDate, "2024-08-10"},
		{"BookingReference", rec.BookingReference, "ABC123"},
		{"PassengerName", rec.PassengerName, "HONG/GILDONG"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %q, want %q", tt.field, tt.got, tt.want)
		}
	}

	if want := []string{"KE123", "KE124"}; !reflect.DeepEqual(rec.ExtractedData.FlightNumbers, want) {
		t.Errorf("FlightNumbers = %v, want %v", rec.ExtractedData.FlightNumbers, want)
	}

	wantTags := []string{"sender:koreanAirline", "subject:koreanAirline", "body:koreanAirline"}
	for _, tag := range wantTags {
		found := false
		for _, got := range rec.ExtractedData.MatchedPatterns {
			if got == tag {
				found = true
			}
		}
		if !found {
			t.Errorf("MatchedPatterns %v missing %s", rec.ExtractedData.MatchedPatterns, tag)
		}
	}
}

func TestClassifyHotel(t *testing.T) {
	e := NewEngine(registry.Default())

	rec, ok := e.Classify(email.RawEmail{
		ID:      "msg-hotel",
		Subject: "Your stay at Seoul Marriott",
		Sender:  "reservations@marriott.com",
		BodyText: "Confirmation number: 83920174\n" +
			"Check-in: 2024-08-01\n" +
			"Check-out: 2024-08-05\n" +
			"Guest name: Lee Minho\n",
	})
	if !ok {
		t.Fatal("expected record")
	}

	if rec.Category != registry.CategoryHotel {
		t.Errorf("Category = %q, want hotel", rec.Category)
	}
	if rec.DepartureDate != "2024-08-01" || rec.ReturnDate != "2024-08-05" {
		t.Errorf("dates = %q..%q, want 2024-08-01..2024-08-05", rec.DepartureDate, rec.ReturnDate)
	}
	if rec.BookingReference != "83920174" {
		t.Errorf("BookingReference = %q, want 83920174", rec.BookingReference)
	}
	if rec.HotelName != "Seoul Marriott" {
		t.Errorf("HotelName = %q, want Seoul Marriott", rec.HotelName)
	}
	if rec.PassengerName != "Lee Minho" {
		t.Errorf("PassengerName = %q, want Lee Minho", rec.PassengerName)
	}
	if rec.FlightNumber != "" {
		t.Errorf("FlightNumber = %q, want empty", rec.FlightNumber)
	}
}

func TestClassifyDiscardsUnrelatedMail(t *testing.T) {
	e := NewEngine(registry.Default())

	rec, ok := e.Classify(email.RawEmail{
		ID:       "msg-news",
		Subject:  "Weekly deals",
		Sender:   "news@shop.example",
		BodyText: "Big sale on shoes this weekend only.",
	})
	if ok || rec != nil {
		t.Errorf("Classify = %+v, %v; want discarded", rec, ok)
	}
}

func TestClassifyConfidenceBounds(t *testing.T) {
	e := NewEngine(registry.Default())

	emails := []email.RawEmail{
		koreanAirEmail(),
		{ID: "empty"},
		{ID: "only-subject", Subject: "Flight itinerary"},
		{ID: "only-flight", BodyText: "KE123"},
		{
			ID:       "kitchen-sink",
			Subject:  "Fwd: Booking confirmed - KE123 OZ202 hotel reservation rental",
			Sender:   "travel@booking.com",
			BodyText: "booking booking booking ICN LAX NRT 2024-01-01 2024-02-02 PNR: XYZ789 check-in gate seat",
		},
	}

	for _, em := range emails {
		_, trace := e.ClassifyWithTrace(em)
		if trace.Final < 0 || trace.Final > 1 || math.IsNaN(trace.Final) {
			t.Errorf("%s: confidence %v out of bounds", em.ID, trace.Final)
		}
		if trace.Discarded != (trace.Final < MinConfidence) {
			t.Errorf("%s: discarded=%v with confidence %v", em.ID, trace.Discarded, trace.Final)
		}
		rec, ok := e.Classify(em)
		if ok && rec.Confidence < MinConfidence {
			t.Errorf("%s: surfaced record below threshold: %v", em.ID, rec.Confidence)
		}
	}
}

func TestClassifyFiltersUnknownAirlines(t *testing.T) {
	e := NewEngine(registry.Default())

	rec, ok := e.Classify(email.RawEmail{
		ID:       "msg-unknown",
		Subject:  "Flight itinerary XX1234",
		Sender:   "noreply@airline.example",
		BodyText: "Flight XX1234 boarding at gate 5 on 2024-08-01",
	})
	if !ok {
		t.Fatal("expected record")
	}
	if rec.FlightNumber != "" || len(rec.ExtractedData.FlightNumbers) != 0 {
		t.Errorf("unknown designator kept: %q %v", rec.FlightNumber, rec.ExtractedData.FlightNumbers)
	}
}

func TestClassifyTieKeepsRegistryOrder(t *testing.T) {
	reg := registry.MustNew([]registry.PatternDefinition{
		{Name: "first", Category: registry.CategoryRental, SenderMatchers: []string{`example`}, Weight: 1},
		{Name: "second", Category: registry.CategoryHotel, SenderMatchers: []string{`example`}, Weight: 1},
	})
	e := NewEngine(reg)

	_, trace := e.ClassifyWithTrace(email.RawEmail{ID: "tie", Sender: "a@example.com"})
	if trace.Winner != "first" || trace.Category != registry.CategoryRental {
		t.Errorf("winner = %s (%s), want first (rental)", trace.Winner, trace.Category)
	}
	if math.Abs(trace.Base-0.4) > 1e-9 {
		t.Errorf("base = %v, want 0.4", trace.Base)
	}
	// Two sender tags add one tag bonus.
	if math.Abs(trace.Final-0.45) > 1e-9 {
		t.Errorf("final = %v, want 0.45", trace.Final)
	}
}

func TestClassifyWeightScalesScore(t *testing.T) {
	reg := registry.MustNew([]registry.PatternDefinition{
		{Name: "light", Category: registry.CategoryRental, SenderMatchers: []string{`example`}, SubjectMatchers: []string{`car`}, Weight: 0.5},
		{Name: "heavy", Category: registry.CategoryHotel, SenderMatchers: []string{`example`}, Weight: 1},
	})
	e := NewEngine(reg)

	// light: 0.7*0.5 = 0.35, heavy: 0.4*1 = 0.4.
	_, trace := e.ClassifyWithTrace(email.RawEmail{ID: "w", Sender: "a@example.com", Subject: "car"})
	if trace.Winner != "heavy" {
		t.Errorf("winner = %s, want heavy", trace.Winner)
	}
	if len(trace.Patterns) != 2 || math.Abs(trace.Patterns[0].Weighted-0.35) > 1e-9 {
		t.Errorf("pattern traces = %+v", trace.Patterns)
	}
}

func TestClassifyWithTrace(t *testing.T) {
	reg := registry.Default()
	e := NewEngine(reg)

	rec, trace := e.ClassifyWithTrace(koreanAirEmail())
	if rec == nil {
		t.Fatal("expected record")
	}
	if trace.Winner != "koreanAirline" {
		t.Errorf("winner = %s, want koreanAirline", trace.Winner)
	}
	if n, _, _ := reg.Counts(); len(trace.Patterns) != n {
		t.Errorf("pattern traces = %d, want %d", len(trace.Patterns), n)
	}
	if trace.Final != rec.Confidence {
		t.Errorf("trace final %v != record confidence %v", trace.Final, rec.Confidence)
	}

	reasons := make(map[string]bool)
	for _, b := range trace.Bonuses {
		reasons[b.Reason] = true
	}
	for _, want := range []string{"flight_number", "airport_pair", "date", "booking_reference", "matched_signals"} {
		if !reasons[want] {
			t.Errorf("bonus %s missing from %+v", want, trace.Bonuses)
		}
	}

	var specialised bool
	for _, ex := range trace.Extractors {
		if ex.Pass == "specialized" && ex.Field == "flight_numbers" && len(ex.Values) > 0 {
			specialised = true
		}
	}
	if !specialised {
		t.Error("no specialised flight extractor in trace")
	}
}

func TestApplyBonusesFillsAirportsIndependently(t *testing.T) {
	rec := &ExtractedRecord{
		DepartureAirport: "GMP",
		ExtractedData:    ExtractedData{AirportCodes: []string{"ICN", "LAX"}},
	}
	var trace registry.Trace
	applyBonuses(rec, &trace)

	if rec.DepartureAirport != "GMP" {
		t.Errorf("departure = %s, want GMP kept", rec.DepartureAirport)
	}
	if rec.ArrivalAirport != "LAX" {
		t.Errorf("arrival = %s, want LAX", rec.ArrivalAirport)
	}
}
