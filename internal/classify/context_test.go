package classify

import (
	"math"
	"testing"

	"travelmail/internal/email"
)

type trustedSet map[string]bool

func (s trustedSet) IsTrustedDomain(d string) bool { return s[d] }

func TestReweigh(t *testing.T) {
	trusted := trustedSet{"koreanair.com": true}

	tests := []struct {
		name string
		conf float64
		ctx  email.Context
		want float64
	}{
		{"no context", 0.5, email.Context{}, 0.5},
		{"trusted domain", 0.5, email.Context{SenderDomain: "koreanair.com"}, 0.65},
		{"untrusted domain", 0.5, email.Context{SenderDomain: "example.com"}, 0.5},
		{"attachments", 0.5, email.Context{HasAttachments: true}, 0.6},
		{"forwarded", 0.5, email.Context{IsForwardedEmail: true}, 0.4},
		{"multiple bookings", 0.5, email.Context{HasMultipleBookings: true}, 0.45},
		{
			name: "all flags",
			conf: 0.5,
			ctx:  email.Context{SenderDomain: "koreanair.com", HasAttachments: true, IsForwardedEmail: true, HasMultipleBookings: true},
			want: 0.6,
		},
		{"clamped high", 0.95, email.Context{SenderDomain: "koreanair.com", HasAttachments: true}, 1},
		{"clamped low", 0.05, email.Context{IsForwardedEmail: true}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ExtractedRecord{EmailID: "e", Confidence: tt.conf}
			got := Reweigh(in, tt.ctx, trusted)
			if math.Abs(got.Confidence-tt.want) > 1e-9 {
				t.Errorf("Reweigh confidence = %v, want %v", got.Confidence, tt.want)
			}
			if in.Confidence != tt.conf {
				t.Errorf("input mutated: %v", in.Confidence)
			}
		})
	}
}

func TestReweighNilTrusted(t *testing.T) {
	got := Reweigh(ExtractedRecord{Confidence: 0.5}, email.Context{SenderDomain: "koreanair.com"}, nil)
	if got.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", got.Confidence)
	}
}

func TestReweighFromDerivedContext(t *testing.T) {
	em := email.RawEmail{
		Subject:     "FW: your booking",
		Sender:      "Korean Air <noreply@koreanair.com>",
		BodyText:    "booking one, booking two, booking three",
		Attachments: []email.Attachment{{Filename: "eticket.pdf"}},
	}

	got := Reweigh(ExtractedRecord{Confidence: 0.5}, email.DeriveContext(em), trustedSet{"koreanair.com": true})
	// +0.15 trusted +0.10 attachment -0.10 forwarded -0.05 multiple bookings.
	if math.Abs(got.Confidence-0.6) > 1e-9 {
		t.Errorf("confidence = %v, want 0.6", got.Confidence)
	}
}

func TestMergeHelpers(t *testing.T) {
	a := ExtractedData{FlightNumbers: []string{"KE123"}, Dates: []string{"2024-08-01"}}
	b := ExtractedData{FlightNumbers: []string{"KE123", "KE124"}, BookingCodes: []string{"ABC123"}}

	u := a.Union(b)
	if len(u.FlightNumbers) != 2 || u.FlightNumbers[1] != "KE124" {
		t.Errorf("Union flights = %v", u.FlightNumbers)
	}
	if len(u.BookingCodes) != 1 || len(u.Dates) != 1 {
		t.Errorf("Union = %+v", u)
	}

	u.FlightNumbers[0] = "XX"
	if a.FlightNumbers[0] != "KE123" {
		t.Error("Union aliased its input")
	}
}
