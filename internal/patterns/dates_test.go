package patterns

import (
	"reflect"
	"testing"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"2024-08-01", "2024-08-01", true},
		{"2024-08-01T10:30:00Z", "2024-08-01", true},
		{"2024.8.1", "2024-08-01", true},
		{"2024/08/10", "2024-08-10", true},
		{"Aug 1, 2024", "2024-08-01", true},
		{"August 10th 2024", "2024-08-10", true},
		{"1 Aug 2024", "2024-08-01", true},
		{"Thu, 15 August 2024", "2024-08-15", true},
		{"01AUG24", "2024-08-01", true},
		{"15Sep2024", "2024-09-15", true},
		{"2024년 8월 1일", "2024-08-01", true},
		{"08/01/2024", "2024-08-01", true},
		{"01.08.2024", "2024-08-01", true},
		{"2024-02-30", "", false},
		{"2023-02-29", "", false},
		{"2024-02-29", "2024-02-29", true},
		{"Tuesday", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeDate(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeDate(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestExtractDates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "order of appearance and dedup",
			text: "Depart 2024-08-01, return 2024-08-10. Departure again on 2024-08-01.",
			want: []string{"2024-08-01", "2024-08-10"},
		},
		{
			name: "mixed styles",
			text: "Check-in: Aug 1, 2024\nCheck-out: 05AUG24",
			want: []string{"2024-08-01", "2024-08-05"},
		},
		{
			name: "invalid calendar dates skipped",
			text: "2024-02-30 then 2024-03-01",
			want: []string{"2024-03-01"},
		},
		{
			name: "none",
			text: "No dates here",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractDates(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractDates(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, ok := ParseDate("Aug 10, 2024")
	if !ok {
		t.Fatal("ParseDate failed")
	}
	if got := d.Format(DateLayout); got != "2024-08-10" {
		t.Errorf("ParseDate = %s, want 2024-08-10", got)
	}
	if _, ok := ParseDate("soon"); ok {
		t.Error("ParseDate(soon) should fail")
	}
}
