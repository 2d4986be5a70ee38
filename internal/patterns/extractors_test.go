package patterns

import (
	"reflect"
	"testing"
)

// defaultCodes answers membership from the built-in tables.
type defaultCodes struct{}

func (defaultCodes) IsAirline(code string) bool { _, ok := DefaultAirlines[code]; return ok }
func (defaultCodes) IsAirport(code string) bool { _, ok := DefaultAirports[code]; return ok }

func TestExtractFlightNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single known flight",
			text: "Your flight KE123 from ICN to LAX is confirmed",
			want: []string{"KE123"},
		},
		{
			name: "leading zeros normalised and duplicates collapsed",
			text: "KE0017 departs 10:00. Reminder: KE017 boarding at gate 12",
			want: []string{"KE17"},
		},
		{
			name: "three letter ICAO designator",
			text: "Operated as KAL1234 / UAL0042",
			want: []string{"KAL1234", "UAL42"},
		},
		{
			name: "unknown designator dropped",
			text: "Order ABC1234 and XX9999 shipped",
			want: nil,
		},
		{
			name: "lower case is not a flight",
			text: "ke123",
			want: nil,
		},
		{
			name: "two digit numbers are not matched",
			text: "KE12",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFlightNumbers(tt.text, defaultCodes{})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractFlightNumbers(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractAirportCodes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"route in order", "ICN → LAX via NRT", []string{"ICN", "LAX", "NRT"}},
		{"registry filter", "THE END. ICN to XYZ", []string{"ICN"}},
		{"duplicates collapsed", "ICN-LAX-ICN", []string{"ICN", "LAX"}},
		{"case sensitive", "icn lax", nil},
		{"embedded letters ignored", "ICNLAX", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAirportCodes(tt.text, defaultCodes{})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractAirportCodes(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractBookingRefs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"booking reference", "Booking reference: ABC123", []string{"ABC123"}},
		{"confirmation number with hash", "Confirmation #: K7Q2M9", []string{"K7Q2M9"}},
		{"pnr", "PNR 5XYZ9Q", []string{"5XYZ9Q"}},
		{"korean", "예약번호: XYZ789", []string{"XYZ789"}},
		{"blocklisted word", "BOOKING DETAILS follow", nil},
		{"no keyword", "Code ABC123", nil},
		{"too short", "Booking ref: AB12", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractBookingRefs(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractBookingRefs(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractPassengerName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled", "Passenger Name: Hong Gildong\nSeat: 32A", "Hong Gildong"},
		{"labelled ticket style with title", "Passenger: KIM/MINSU MR  Seat 12C", "KIM/MINSU"},
		{"ticket style only", "KE123 ICN/LAX\nLEE/JIHO MS", "LEE/JIHO"},
		{"korean label", "탑승객: 홍길동", "홍길동"},
		{"route is not a name", "ICN/LAX", ""},
		{"none", "Thank you for flying with us", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPassengerName(tt.text); got != tt.want {
				t.Errorf("ExtractPassengerName(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractHotelName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"labelled", "Hotel: Grand Hyatt Seoul\nCheck-in: 2024-08-01", "Grand Hyatt Seoul"},
		{"hotel name label", "Hotel name: Park Hyatt Tokyo", "Park Hyatt Tokyo"},
		{"stay at", "Thanks for booking your stay at Hotel Shilla, Seoul.", "Hotel Shilla"},
		{"korean", "숙소: 롯데호텔 서울", "롯데호텔 서울"},
		{"none", "Your flight is confirmed", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractHotelName(tt.text); got != tt.want {
				t.Errorf("ExtractHotelName(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestNormaliseFlightNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"KE0017", "KE17"},
		{"ke 123", "KE123"},
		{"KAL001", "KAL1"},
		{"KE000", "KE0"},
		{"KE", "KE"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormaliseFlightNumber(tt.input); got != tt.want {
			t.Errorf("NormaliseFlightNumber(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFlightDesignator(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"KE123", "KE"},
		{"KAL17", "KAL"},
		{"XX99999", "XX"},
		{"123", ""},
	}

	for _, tt := range tests {
		if got := FlightDesignator(tt.input); got != tt.want {
			t.Errorf("FlightDesignator(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
