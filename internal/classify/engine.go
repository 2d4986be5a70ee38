package classify

import (
	"regexp"

	"travelmail/internal/email"
	"travelmail/internal/patterns"
	"travelmail/internal/registry"
)

// Signal weights of the pattern score.
const (
	senderWeight  = 0.4
	subjectWeight = 0.3
	bodyWeight    = 0.3
)

// Confidence bonuses applied after extraction.
const (
	flightBonus  = 0.2
	airportBonus = 0.15
	dateBonus    = 0.1
	bookingBonus = 0.1
	tagBonus     = 0.05
)

// Engine scores emails against a registry. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	reg *registry.Registry
}

// NewEngine returns an engine bound to reg.
func NewEngine(reg *registry.Registry) *Engine {
	return &Engine{reg: reg}
}

// Registry returns the registry the engine was built with.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Classify scores and extracts one email. It returns ok == false when the
// final confidence is below MinConfidence.
func (e *Engine) Classify(em email.RawEmail) (*ExtractedRecord, bool) {
	rec, trace := e.classify(em, false)
	if trace.Discarded {
		return nil, false
	}
	return rec, true
}

// ClassifyWithTrace is like Classify but always returns the scoring trace,
// including for discarded emails.
func (e *Engine) ClassifyWithTrace(em email.RawEmail) (*ExtractedRecord, registry.Trace) {
	rec, trace := e.classify(em, true)
	if trace.Discarded {
		return nil, trace
	}
	return rec, trace
}

func (e *Engine) classify(em email.RawEmail, tracing bool) (*ExtractedRecord, registry.Trace) {
	trace := registry.Trace{EmailID: em.ID}
	fullText := em.FullText()

	rec := &ExtractedRecord{
		EmailID: em.ID,
		Subject: em.Subject,
		Sender:  em.Sender,
	}

	// Score every pattern; the first strictly higher score wins.
	var best *registry.Pattern
	bestScore := 0.0
	pats := e.reg.Patterns()
	for i := range pats {
		p := &pats[i]
		pt := registry.PatternTrace{
			Name:     p.Name,
			Category: p.Category,
			Weight:   p.Weight,
			Sender:   p.MatchSender(em.Sender),
			Subject:  p.MatchSubject(em.Subject),
			Body:     p.MatchBody(fullText),
		}
		if pt.Sender {
			pt.Score += senderWeight
			rec.ExtractedData.MatchedPatterns = appendUnique(rec.ExtractedData.MatchedPatterns, "sender:"+p.Name)
		}
		if pt.Subject {
			pt.Score += subjectWeight
			rec.ExtractedData.MatchedPatterns = appendUnique(rec.ExtractedData.MatchedPatterns, "subject:"+p.Name)
		}
		if pt.Body {
			pt.Score += bodyWeight
			rec.ExtractedData.MatchedPatterns = appendUnique(rec.ExtractedData.MatchedPatterns, "body:"+p.Name)
		}
		pt.Weighted = pt.Score * p.Weight
		if tracing {
			trace.Patterns = append(trace.Patterns, pt)
		}
		if pt.Weighted > bestScore {
			bestScore = pt.Weighted
			best = p
		}
	}

	if best != nil {
		rec.Category = best.Category
		rec.Confidence = bestScore
		trace.Winner = best.Name
		trace.Category = best.Category
	}
	trace.Base = rec.Confidence

	text := em.SearchText()
	if best != nil {
		e.specialisedPass(rec, text, e.reg.CategoryExtractors(best.Category), &trace, tracing)
	}
	e.generalPass(rec, text, &trace, tracing)
	applyBonuses(rec, &trace)

	trace.Final = rec.Confidence
	trace.Discarded = rec.Confidence < MinConfidence
	return rec, trace
}

// specialisedPass runs the winning category's extractor table.
func (e *Engine) specialisedPass(rec *ExtractedRecord, text string, ex registry.Extractors, trace *registry.Trace, tracing bool) {
	data := &rec.ExtractedData

	for _, re := range ex.FlightNumbers {
		vals := filter(captures(re, text), func(v string) (string, bool) {
			v = patterns.NormaliseFlightNumber(v)
			return v, e.reg.IsAirline(patterns.FlightDesignator(v))
		})
		data.FlightNumbers = appendAll(data.FlightNumbers, vals)
		traceExtractor(trace, tracing, "specialized", "flight_numbers", re, vals)
	}

	for _, re := range ex.AirportCodes {
		vals := filter(captures(re, text), func(v string) (string, bool) {
			return v, e.reg.IsAirport(v)
		})
		data.AirportCodes = appendAll(data.AirportCodes, vals)
		traceExtractor(trace, tracing, "specialized", "airport_codes", re, vals)
	}

	for _, re := range ex.Dates {
		vals := filter(captures(re, text), patterns.NormalizeDate)
		data.Dates = appendAll(data.Dates, vals)
		traceExtractor(trace, tracing, "specialized", "dates", re, vals)
	}

	for _, re := range ex.BookingReferences {
		vals := filter(captures(re, text), func(v string) (string, bool) {
			return v, !patterns.BookingBlocklist[v]
		})
		data.BookingCodes = appendAll(data.BookingCodes, vals)
		traceExtractor(trace, tracing, "specialized", "booking_codes", re, vals)
	}
}

// generalPass runs the broad extractors shared by every category.
func (e *Engine) generalPass(rec *ExtractedRecord, text string, trace *registry.Trace, tracing bool) {
	data := &rec.ExtractedData

	dates := patterns.ExtractDates(text)
	data.Dates = appendAll(data.Dates, dates)
	traceExtractor(trace, tracing, "general", "dates", nil, dates)

	flights := patterns.ExtractFlightNumbers(text, e.reg)
	data.FlightNumbers = appendAll(data.FlightNumbers, flights)
	traceExtractor(trace, tracing, "general", "flight_numbers", nil, flights)

	airports := patterns.ExtractAirportCodes(text, e.reg)
	data.AirportCodes = appendAll(data.AirportCodes, airports)
	traceExtractor(trace, tracing, "general", "airport_codes", nil, airports)

	bookings := patterns.ExtractBookingRefs(text)
	data.BookingCodes = appendAll(data.BookingCodes, bookings)
	traceExtractor(trace, tracing, "general", "booking_codes", nil, bookings)

	if rec.PassengerName == "" {
		rec.PassengerName = patterns.ExtractPassengerName(text)
		traceExtractor(trace, tracing, "general", "passenger_name", nil, nonEmpty(rec.PassengerName))
	}
	if rec.HotelName == "" {
		rec.HotelName = patterns.ExtractHotelName(text)
		traceExtractor(trace, tracing, "general", "hotel_name", nil, nonEmpty(rec.HotelName))
	}
}

// applyBonuses raises confidence for each kind of evidence found and fills
// the singular fields from the extracted lists.
func applyBonuses(rec *ExtractedRecord, trace *registry.Trace) {
	data := rec.ExtractedData
	add := func(reason string, delta float64) {
		rec.Confidence += delta
		trace.Bonuses = append(trace.Bonuses, registry.Bonus{Reason: reason, Delta: delta})
	}

	if len(data.FlightNumbers) > 0 {
		add("flight_number", flightBonus)
		if rec.FlightNumber == "" {
			rec.FlightNumber = data.FlightNumbers[0]
		}
	}
	if len(data.AirportCodes) >= 2 {
		add("airport_pair", airportBonus)
		if rec.DepartureAirport == "" {
			rec.DepartureAirport = data.AirportCodes[0]
		}
		if rec.ArrivalAirport == "" {
			rec.ArrivalAirport = data.AirportCodes[1]
		}
	}
	if len(data.Dates) > 0 {
		add("date", dateBonus)
		if rec.DepartureDate == "" {
			rec.DepartureDate = data.Dates[0]
		}
		if rec.ReturnDate == "" && len(data.Dates) > 1 {
			rec.ReturnDate = data.Dates[1]
		}
	}
	if len(data.BookingCodes) > 0 {
		add("booking_reference", bookingBonus)
		if rec.BookingReference == "" {
			rec.BookingReference = data.BookingCodes[0]
		}
	}
	if n := len(data.MatchedPatterns); n > 1 {
		add("matched_signals", tagBonus*float64(n-1))
	}

	rec.Confidence = Clamp(rec.Confidence)
}

// captures returns every non-empty submatch of re in text, or whole matches
// when re has no groups.
func captures(re *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if len(m) == 1 {
			out = appendUnique(out, m[0])
			continue
		}
		for _, g := range m[1:] {
			out = appendUnique(out, g)
		}
	}
	return out
}

func filter(vals []string, keep func(string) (string, bool)) []string {
	var out []string
	for _, v := range vals {
		if nv, ok := keep(v); ok {
			out = appendUnique(out, nv)
		}
	}
	return out
}

func appendAll(list, vals []string) []string {
	for _, v := range vals {
		list = appendUnique(list, v)
	}
	return list
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

func traceExtractor(trace *registry.Trace, tracing bool, pass, field string, re *regexp.Regexp, vals []string) {
	if !tracing {
		return
	}
	ex := registry.Extractor{Pass: pass, Field: field, Values: vals}
	if re != nil {
		ex.Pattern = re.String()
	}
	trace.Extractors = append(trace.Extractors, ex)
}
