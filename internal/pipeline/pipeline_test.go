package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelmail/internal/classify"
	"travelmail/internal/email"
	"travelmail/internal/merge"
	"travelmail/internal/registry"
	"travelmail/internal/roundtrip"
)

func clock() time.Time { return time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC) }

func batch() []email.RawEmail {
	return []email.RawEmail{
		{
			ID:      "news",
			Subject: "Weekly deals",
			Sender:  "news@shop.example",
			BodyText: "Big sale on shoes this weekend only.",
		},
		{
			ID:      "ticket",
			Subject: "Your e-ticket itinerary: KE123 ICN-LAX",
			Sender:  "Korean Air <noreply@koreanair.example>",
			BodyText: "Booking reference: ABC123\n" +
				"Flight KE123 departs Seoul Incheon (ICN) on 2024-08-01 and arrives Los Angeles (LAX).\n",
		},
		{
			ID:       "seat",
			Subject:  "Seat assignment for KE123",
			Sender:   "Korean Air <noreply@koreanair.example>",
			BodyText: "Your seat for KE123 is 32A. Passenger: HONG/GILDONG MR\n",
		},
		{
			ID:       "hotel",
			Subject:  "Your stay at Seoul Marriott",
			Sender:   "reservations@marriott.com",
			BodyText: "Confirmation number: 83920174\nCheck-in: 2024-08-20\nCheck-out: 2024-08-22\n",
		},
	}
}

func TestRunMergesAndSorts(t *testing.T) {
	p := New(registry.Default(), WithClock(clock), WithWorkers(2), WithSource("test"))

	res, err := p.Run(context.Background(), batch())
	require.NoError(t, err)

	require.Len(t, res.Outcomes, 4)
	for i, em := range batch() {
		assert.Equal(t, em.ID, res.Outcomes[i].EmailID, "outcomes keep input order")
	}
	assert.False(t, res.Outcomes[0].Kept)
	assert.True(t, res.Outcomes[1].Kept)

	require.Len(t, res.Records, 2, "ticket and seat emails describe one trip")
	assert.Equal(t, 1, res.Merged)

	for i := 1; i < len(res.Records); i++ {
		assert.GreaterOrEqual(t, res.Records[i-1].Confidence, res.Records[i].Confidence)
	}
	for _, r := range res.Records {
		assert.GreaterOrEqual(t, r.Confidence, classify.MinConfidence)
		assert.LessOrEqual(t, r.Confidence, 1.0)
	}

	var flight *classify.ExtractedRecord
	for i := range res.Records {
		if res.Records[i].FlightNumber == "KE123" {
			flight = &res.Records[i]
		}
	}
	require.NotNil(t, flight)
	assert.Equal(t, "ABC123", flight.BookingReference)
	assert.Equal(t, "HONG/GILDONG", flight.PassengerName, "filled from the seat email")
	assert.True(t, flight.MergeBonusApplied)
}

func TestRunContextReweighting(t *testing.T) {
	em := email.RawEmail{
		ID:       "fwd",
		Subject:  "Fwd: Seat assignment for KE123",
		Sender:   "friend@example.com",
		BodyText: "Your seat for KE123 is 32A.",
	}

	with := New(registry.Default(), WithClock(clock))
	without := New(registry.Default(), WithClock(clock), WithContextReweighting(false))

	a, err := with.Run(context.Background(), []email.RawEmail{em})
	require.NoError(t, err)
	b, err := without.Run(context.Background(), []email.RawEmail{em})
	require.NoError(t, err)

	require.Len(t, b.Records, 1)
	require.Len(t, a.Records, 1)
	assert.InDelta(t, b.Records[0].Confidence-0.1, a.Records[0].Confidence, 1e-9, "forwarded penalty")
}

func TestRunPenalisesInconsistentRecords(t *testing.T) {
	em := email.RawEmail{
		ID:       "stale",
		Subject:  "Your e-ticket KE123",
		Sender:   "noreply@koreanair.example",
		BodyText: "Flight KE123 on 2023-01-05",
	}

	res, err := New(registry.Default(), WithClock(clock)).Run(context.Background(), []email.RawEmail{em})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)
	assert.Len(t, res.Outcomes[0].Issues, 1)
	assert.Contains(t, res.Outcomes[0].Issues[0], "in the past")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(registry.Default()).Run(ctx, batch())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunMergePolicy(t *testing.T) {
	emails := []email.RawEmail{
		{ID: "1", Subject: "KE123 update", Sender: "noreply@koreanair.example", BodyText: "Flight KE123"},
		{ID: "2", Subject: "KE123 update", Sender: "noreply@koreanair.example", BodyText: "Flight KE123"},
		{ID: "3", Subject: "KE123 update", Sender: "noreply@koreanair.example", BodyText: "Flight KE123"},
	}

	once, err := New(registry.Default(), WithClock(clock), WithContextReweighting(false)).Run(context.Background(), emails)
	require.NoError(t, err)
	perMerge, err := New(registry.Default(), WithClock(clock), WithContextReweighting(false), WithMergePolicy(merge.BonusPerMerge)).Run(context.Background(), emails)
	require.NoError(t, err)

	require.Len(t, once.Records, 1)
	require.Len(t, perMerge.Records, 1)
	assert.GreaterOrEqual(t, perMerge.Records[0].Confidence, once.Records[0].Confidence)
}

func TestItinerary(t *testing.T) {
	p := New(registry.Default(), WithClock(clock))
	accepted := []classify.ExtractedRecord{
		{EmailID: "out", FlightNumber: "KE123", DepartureAirport: "ICN", ArrivalAirport: "LAX", DepartureDate: "2024-08-01", Confidence: 0.9},
		{EmailID: "dup", DepartureAirport: "ICN", ArrivalAirport: "LAX", DepartureDate: "2024-08-01", Confidence: 0.4},
		{EmailID: "back", FlightNumber: "KE124", DepartureAirport: "LAX", ArrivalAirport: "ICN", DepartureDate: "2024-08-10", Confidence: 0.8},
	}

	det := roundtrip.NewDetector()
	it := p.Itinerary(accepted, det)

	require.Len(t, it.Periods, 2, "duplicate route+date resolved")
	assert.Equal(t, "KE123", it.Periods[0].Flights[0].FlightNumber)
	require.Len(t, it.Suggestions, 1)
	assert.Equal(t, "2024-08-01", it.Suggestions[0].Merged.EntryDate)
	assert.Equal(t, "2024-08-10", it.Suggestions[0].Merged.ExitDate)

	// Same detector, same periods: no repeat suggestion.
	again := det.Detect(it.Periods)
	assert.Empty(t, again)
}

func TestTrace(t *testing.T) {
	traces := New(registry.Default()).Trace(batch())
	require.Len(t, traces, 4)
	assert.True(t, traces[0].Discarded)
	assert.Equal(t, "koreanAirline", traces[1].Winner)
}
