package validate

import (
	"math"
	"strings"
	"testing"
	"time"

	"travelmail/internal/classify"
	"travelmail/internal/registry"
)

func fixedClock() time.Time {
	return time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
}

func newValidator() *Validator {
	return New(registry.Default(), WithClock(fixedClock))
}

func TestValidateConsistentRecord(t *testing.T) {
	rec := classify.ExtractedRecord{
		FlightNumber:     "KE123",
		DepartureAirport: "ICN",
		ArrivalAirport:   "LAX",
		DepartureDate:    "2024-08-01",
		ReturnDate:       "2024-08-10",
		BookingReference: "ABC123",
	}

	res := newValidator().Validate(rec)
	if !res.IsConsistent || len(res.Issues) != 0 {
		t.Errorf("Validate = %+v, want consistent", res)
	}
}

func TestValidateIssues(t *testing.T) {
	tests := []struct {
		name    string
		rec     classify.ExtractedRecord
		wantSub []string
	}{
		{
			name:    "return before departure",
			rec:     classify.ExtractedRecord{DepartureDate: "2024-08-10", ReturnDate: "2024-08-01"},
			wantSub: []string{"not after departure"},
		},
		{
			name:    "return equals departure",
			rec:     classify.ExtractedRecord{DepartureDate: "2024-08-10", ReturnDate: "2024-08-10"},
			wantSub: []string{"not after departure"},
		},
		{
			name:    "departure long past",
			rec:     classify.ExtractedRecord{DepartureDate: "2024-06-01"},
			wantSub: []string{"in the past"},
		},
		{
			name:    "departure far future",
			rec:     classify.ExtractedRecord{DepartureDate: "2026-08-01"},
			wantSub: []string{"in the future"},
		},
		{
			name:    "unknown airline prefix",
			rec:     classify.ExtractedRecord{FlightNumber: "XX123"},
			wantSub: []string{"invalid flight number"},
		},
		{
			name:    "flight number zero",
			rec:     classify.ExtractedRecord{FlightNumber: "KE0"},
			wantSub: []string{"invalid flight number"},
		},
		{
			name:    "flight number malformed",
			rec:     classify.ExtractedRecord{FlightNumber: "123KE"},
			wantSub: []string{"invalid flight number"},
		},
		{
			name:    "unknown airports",
			rec:     classify.ExtractedRecord{DepartureAirport: "XYZ", ArrivalAirport: "lax"},
			wantSub: []string{"invalid departure airport", "invalid arrival airport"},
		},
		{
			name:    "same airport",
			rec:     classify.ExtractedRecord{DepartureAirport: "ICN", ArrivalAirport: "ICN"},
			wantSub: []string{"both ICN"},
		},
		{
			name:    "bad booking reference",
			rec:     classify.ExtractedRecord{BookingReference: "ab-12"},
			wantSub: []string{"invalid booking reference"},
		},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.rec)
			if res.IsConsistent {
				t.Fatal("expected inconsistent")
			}
			if len(res.Issues) != len(tt.wantSub) {
				t.Fatalf("issues = %v, want %d", res.Issues, len(tt.wantSub))
			}
			for i, sub := range tt.wantSub {
				if !strings.Contains(res.Issues[i], sub) {
					t.Errorf("issue %d = %q, want substring %q", i, res.Issues[i], sub)
				}
			}
		})
	}
}

func TestValidateSkipsUnparsableDates(t *testing.T) {
	res := newValidator().Validate(classify.ExtractedRecord{DepartureDate: "sometime soon", ReturnDate: "later"})
	if !res.IsConsistent {
		t.Errorf("Validate = %+v, want consistent", res)
	}
}

func TestApplyPenaltyUnknownFlight(t *testing.T) {
	rec := classify.ExtractedRecord{FlightNumber: "XX99999", Confidence: 0.8}

	res := newValidator().Validate(rec)
	if len(res.Issues) != 1 {
		t.Fatalf("issues = %v, want exactly one", res.Issues)
	}

	got := ApplyPenalty(rec, res)
	if math.Abs(rec.Confidence-got.Confidence-0.1) > 1e-9 {
		t.Errorf("penalty = %v, want 0.1", rec.Confidence-got.Confidence)
	}
	if rec.Confidence != 0.8 {
		t.Errorf("input mutated: %v", rec.Confidence)
	}
}

func TestApplyPenaltyFloorsAtZero(t *testing.T) {
	rec := classify.ExtractedRecord{Confidence: 0.15}
	got := ApplyPenalty(rec, Result{Issues: []string{"a", "b", "c"}})
	if got.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", got.Confidence)
	}
}

func TestValidatorUsesInjectedClock(t *testing.T) {
	rec := classify.ExtractedRecord{DepartureDate: "2030-01-01"}

	early := New(registry.Default(), WithClock(fixedClock))
	late := New(registry.Default(), WithClock(func() time.Time {
		return time.Date(2029, 12, 1, 0, 0, 0, 0, time.UTC)
	}))

	if early.Validate(rec).IsConsistent {
		t.Error("2030 should be too far ahead of July 2024")
	}
	if !late.Validate(rec).IsConsistent {
		t.Error("2030 should be fine for December 2029")
	}
}
