package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"travelmail/internal/classify"
	"travelmail/internal/pipeline"
)

var (
	titleColor = color.New(color.FgWhite, color.Bold)
	labelColor = color.New(color.FgCyan)
	highColor  = color.New(color.FgGreen)
	midColor   = color.New(color.FgYellow)
	lowColor   = color.New(color.FgRed)
)

// confidenceColor picks green, yellow or red for a confidence value.
func confidenceColor(c float64) *color.Color {
	switch {
	case c >= 0.7:
		return highColor
	case c >= 0.4:
		return midColor
	default:
		return lowColor
	}
}

// writeText renders records for a terminal. color disables itself when w is
// not a TTY or NO_COLOR is set.
func writeText(w io.Writer, res pipeline.Result) {
	issues := make(map[string][]string)
	for _, o := range res.Outcomes {
		issues[o.EmailID] = o.Issues
	}

	if len(res.Records) == 0 {
		fmt.Fprintln(w, "No travel records found.")
		return
	}

	for i, rec := range res.Records {
		if i > 0 {
			fmt.Fprintln(w)
		}
		titleColor.Fprintf(w, "%s", rec.Subject)
		fmt.Fprint(w, "  ")
		confidenceColor(rec.Confidence).Fprintf(w, "%.2f", rec.Confidence)
		fmt.Fprintf(w, " [%s]\n", rec.Category)

		for _, f := range textFields(rec) {
			labelColor.Fprintf(w, "  %-18s", f[0])
			fmt.Fprintln(w, f[1])
		}
		for _, msg := range issues[rec.EmailID] {
			lowColor.Fprintf(w, "  ! %s\n", msg)
		}
	}
	fmt.Fprintf(w, "\n%d records, %d merged\n", len(res.Records), res.Merged)
}

func textFields(rec classify.ExtractedRecord) [][2]string {
	var out [][2]string
	add := func(label, v string) {
		if v != "" {
			out = append(out, [2]string{label, v})
		}
	}
	add("email", rec.EmailID)
	add("from", rec.Sender)
	add("flight", rec.FlightNumber)
	if rec.DepartureAirport != "" || rec.ArrivalAirport != "" {
		add("route", strings.TrimSpace(rec.DepartureAirport+" -> "+rec.ArrivalAirport))
	}
	add("departure", rec.DepartureDate)
	add("return", rec.ReturnDate)
	add("booking", rec.BookingReference)
	add("hotel", rec.HotelName)
	add("passenger", rec.PassengerName)
	if len(rec.ExtractedData.MatchedPatterns) > 0 {
		add("matched", strings.Join(rec.ExtractedData.MatchedPatterns, ", "))
	}
	return out
}
