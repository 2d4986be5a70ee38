package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelmail/internal/classify"
)

func TestEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a, b classify.ExtractedRecord
		want bool
	}{
		{
			name: "same flight",
			a:    classify.ExtractedRecord{FlightNumber: "KE123"},
			b:    classify.ExtractedRecord{FlightNumber: "KE123", BookingReference: "OTHER1"},
			want: true,
		},
		{
			name: "same booking",
			a:    classify.ExtractedRecord{BookingReference: "ABC123"},
			b:    classify.ExtractedRecord{BookingReference: "ABC123"},
			want: true,
		},
		{
			name: "same date and airport in different formats",
			a:    classify.ExtractedRecord{DepartureDate: "2024-08-01", DepartureAirport: "ICN"},
			b:    classify.ExtractedRecord{DepartureDate: "August 1, 2024", DepartureAirport: "ICN"},
			want: true,
		},
		{
			name: "same date different airport",
			a:    classify.ExtractedRecord{DepartureDate: "2024-08-01", DepartureAirport: "ICN"},
			b:    classify.ExtractedRecord{DepartureDate: "2024-08-01", DepartureAirport: "GMP"},
			want: false,
		},
		{
			name: "empty fields never match",
			a:    classify.ExtractedRecord{},
			b:    classify.ExtractedRecord{},
			want: false,
		},
		{
			name: "airport without dates",
			a:    classify.ExtractedRecord{DepartureAirport: "ICN"},
			b:    classify.ExtractedRecord{DepartureAirport: "ICN"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equivalent(tt.a, tt.b))
			assert.Equal(t, tt.want, Equivalent(tt.b, tt.a), "equivalence must be symmetric")
		})
	}
}

func TestMergeByBookingReference(t *testing.T) {
	a := classify.ExtractedRecord{
		EmailID:          "a",
		BookingReference: "ABC123",
		Confidence:       0.5,
		HotelName:        "Seoul Marriott",
		ExtractedData:    classify.ExtractedData{BookingCodes: []string{"ABC123"}, Dates: []string{"2024-08-01"}},
	}
	b := classify.ExtractedRecord{
		EmailID:          "b",
		BookingReference: "ABC123",
		Confidence:       0.7,
		FlightNumber:     "KE123",
		ExtractedData:    classify.ExtractedData{BookingCodes: []string{"ABC123"}, FlightNumbers: []string{"KE123"}},
	}

	merged := New(BonusOncePerTrip).All([]classify.ExtractedRecord{a, b})
	require.Len(t, merged, 1)

	got := merged[0]
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)
	assert.Equal(t, "b", got.EmailID, "higher confidence record is primary")
	assert.Equal(t, "KE123", got.FlightNumber)
	assert.Equal(t, "Seoul Marriott", got.HotelName, "empty field filled from secondary")
	assert.Equal(t, []string{"ABC123"}, got.ExtractedData.BookingCodes)
	assert.Equal(t, []string{"KE123"}, got.ExtractedData.FlightNumbers)
	assert.Equal(t, []string{"2024-08-01"}, got.ExtractedData.Dates)

	// Inputs are untouched.
	assert.Equal(t, 0.5, a.Confidence)
	assert.Empty(t, a.FlightNumber)
}

func TestMergeTieKeepsFirst(t *testing.T) {
	a := classify.ExtractedRecord{EmailID: "a", FlightNumber: "KE123", PassengerName: "HONG/GILDONG", Confidence: 0.6}
	b := classify.ExtractedRecord{EmailID: "b", FlightNumber: "KE123", PassengerName: "KIM/MINSU", Confidence: 0.6}

	got := New(BonusOncePerTrip).Merge(a, b)
	assert.Equal(t, "a", got.EmailID)
	assert.Equal(t, "HONG/GILDONG", got.PassengerName)
}

func TestMergeBonusPolicies(t *testing.T) {
	records := []classify.ExtractedRecord{
		{EmailID: "1", FlightNumber: "KE123", Confidence: 0.5},
		{EmailID: "2", FlightNumber: "KE123", Confidence: 0.6},
		{EmailID: "3", FlightNumber: "KE123", Confidence: 0.55},
		{EmailID: "4", FlightNumber: "KE123", Confidence: 0.5},
	}

	t.Run("once per trip", func(t *testing.T) {
		got := New(BonusOncePerTrip).All(records)
		require.Len(t, got, 1)
		assert.InDelta(t, 0.65, got[0].Confidence, 1e-9)
		assert.True(t, got[0].MergeBonusApplied)
	})

	t.Run("per merge", func(t *testing.T) {
		got := New(BonusPerMerge).All(records)
		require.Len(t, got, 1)
		// 0.6+0.05, then +0.05 twice more.
		assert.InDelta(t, 0.75, got[0].Confidence, 1e-9)
	})

	t.Run("higher confidence later still wins", func(t *testing.T) {
		got := New(BonusOncePerTrip).All(append(records, classify.ExtractedRecord{EmailID: "5", FlightNumber: "KE123", Confidence: 0.9}))
		require.Len(t, got, 1)
		assert.InDelta(t, 0.9, got[0].Confidence, 1e-9)
		assert.Equal(t, "5", got[0].EmailID)
	})

	t.Run("capped at one", func(t *testing.T) {
		got := New(BonusPerMerge).Merge(
			classify.ExtractedRecord{FlightNumber: "KE1", Confidence: 0.98},
			classify.ExtractedRecord{FlightNumber: "KE1", Confidence: 0.97},
		)
		assert.Equal(t, 1.0, got.Confidence)
	})
}

func TestFoldAppendsDistinctTrips(t *testing.T) {
	m := New(BonusOncePerTrip)
	list := []classify.ExtractedRecord{{EmailID: "a", FlightNumber: "KE123", Confidence: 0.5}}

	out := m.Fold(list, classify.ExtractedRecord{EmailID: "b", FlightNumber: "OZ202", Confidence: 0.4})
	require.Len(t, out, 2)
	assert.Len(t, list, 1, "Fold must not grow its input")

	out2 := m.Fold(out, classify.ExtractedRecord{EmailID: "c", FlightNumber: "OZ202", Confidence: 0.3})
	require.Len(t, out2, 2)
	assert.InDelta(t, 0.45, out2[1].Confidence, 1e-9)
	assert.InDelta(t, 0.4, out[1].Confidence, 1e-9, "earlier result is not modified")
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
		ok   bool
	}{
		{"", BonusOncePerTrip, true},
		{"once_per_trip", BonusOncePerTrip, true},
		{"per_merge", BonusPerMerge, true},
		{"sometimes", BonusOncePerTrip, false},
	}
	for _, tt := range tests {
		got, ok := ParsePolicy(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "per_merge", BonusPerMerge.String())
}
