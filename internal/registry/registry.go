// Package registry provides the immutable catalogue of travel email patterns
// and the airline, airport and trusted-sender lookup tables used by the
// classifier and validator.
package registry

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"travelmail/internal/patterns"
)

// Category is the closed set of sender categories the classifier can assign.
type Category string

const (
	CategoryAirline         Category = "airline"
	CategoryHotel           Category = "hotel"
	CategoryBookingPlatform Category = "booking_platform"
	CategoryRental          Category = "rental"
	CategoryTravelAgency    Category = "travel_agency"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryAirline,
	CategoryHotel,
	CategoryBookingPlatform,
	CategoryRental,
	CategoryTravelAgency,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// FieldMatchers lists per-field regex sources. Patterns may use {PLACEHOLDER}
// references from patterns.BasePatterns. A matcher with capture groups yields
// each non-empty group; otherwise the whole match is the value.
type FieldMatchers struct {
	FlightNumbers     []string
	BookingReferences []string
	AirportCodes      []string
	Dates             []string
}

// PatternDefinition is the declarative form of one sender pattern.
type PatternDefinition struct {
	Name            string
	Category        Category
	SenderMatchers  []string
	SubjectMatchers []string
	BodyMatchers    []string
	Weight          float64
	Extractors      FieldMatchers
}

// Extractors is the compiled form of FieldMatchers.
type Extractors struct {
	FlightNumbers     []*regexp.Regexp
	BookingReferences []*regexp.Regexp
	AirportCodes      []*regexp.Regexp
	Dates             []*regexp.Regexp
}

// Empty reports whether no field matcher is present.
func (e Extractors) Empty() bool {
	return len(e.FlightNumbers)+len(e.BookingReferences)+len(e.AirportCodes)+len(e.Dates) == 0
}

func (e Extractors) concat(o Extractors) Extractors {
	return Extractors{
		FlightNumbers:     append(append([]*regexp.Regexp(nil), e.FlightNumbers...), o.FlightNumbers...),
		BookingReferences: append(append([]*regexp.Regexp(nil), e.BookingReferences...), o.BookingReferences...),
		AirportCodes:      append(append([]*regexp.Regexp(nil), e.AirportCodes...), o.AirportCodes...),
		Dates:             append(append([]*regexp.Regexp(nil), e.Dates...), o.Dates...),
	}
}

// Pattern is a compiled PatternDefinition.
type Pattern struct {
	Name       string
	Category   Category
	Weight     float64
	sender     []*regexp.Regexp
	subject    []*regexp.Regexp
	body       []*regexp.Regexp
	extractors Extractors
}

// MatchSender reports whether any sender matcher matches.
func (p Pattern) MatchSender(s string) bool { return matchAny(p.sender, s) }

// MatchSubject reports whether any subject matcher matches.
func (p Pattern) MatchSubject(s string) bool { return matchAny(p.subject, s) }

// MatchBody reports whether any body matcher matches.
func (p Pattern) MatchBody(s string) bool { return matchAny(p.body, s) }

// Extractors returns the pattern's own field matchers.
func (p Pattern) Extractors() Extractors { return p.extractors }

func matchAny(res []*regexp.Regexp, s string) bool {
	if s == "" {
		return false
	}
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Registry is an immutable set of compiled patterns plus code tables.
// It is safe for concurrent use because nothing mutates it after New.
type Registry struct {
	patterns   []Pattern
	byCategory map[Category]Extractors
	airlines   map[string]string
	airports   map[string]patterns.Airport
	trusted    []string
}

// Option configures a Registry under construction.
type Option func(*Registry)

// WithAirlines replaces the airline designator table.
func WithAirlines(airlines map[string]string) Option {
	return func(r *Registry) {
		r.airlines = make(map[string]string, len(airlines))
		for k, v := range airlines {
			r.airlines[strings.ToUpper(k)] = v
		}
	}
}

// WithAirports replaces the airport table.
func WithAirports(airports map[string]patterns.Airport) Option {
	return func(r *Registry) {
		r.airports = make(map[string]patterns.Airport, len(airports))
		for k, v := range airports {
			r.airports[strings.ToUpper(k)] = v
		}
	}
}

// WithTrustedDomains replaces the trusted sender domain allow-list.
func WithTrustedDomains(domains []string) Option {
	return func(r *Registry) {
		r.trusted = r.trusted[:0]
		for _, d := range domains {
			if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
				r.trusted = append(r.trusted, d)
			}
		}
		sort.Strings(r.trusted)
	}
}

// New compiles the definitions into a Registry. Definition order is
// significant: it breaks ties between equally scored patterns.
func New(defs []PatternDefinition, opts ...Option) (*Registry, error) {
	r := &Registry{
		byCategory: make(map[Category]Extractors),
	}
	WithAirlines(patterns.DefaultAirlines)(r)
	WithAirports(patterns.DefaultAirports)(r)
	WithTrustedDomains(DefaultTrustedDomains)(r)
	for _, opt := range opts {
		opt(r)
	}

	seen := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("pattern definition without name")
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("pattern %s: duplicate name", def.Name)
		}
		seen[def.Name] = true

		p, err := compileDefinition(def)
		if err != nil {
			return nil, fmt.Errorf("pattern %s: %w", def.Name, err)
		}
		r.patterns = append(r.patterns, p)
		r.byCategory[p.Category] = r.byCategory[p.Category].concat(p.extractors)
	}

	return r, nil
}

// MustNew is like New but panics if a definition does not compile.
func MustNew(defs []PatternDefinition, opts ...Option) *Registry {
	r, err := New(defs, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns a new Registry built from the built-in definitions and tables.
func Default(opts ...Option) *Registry {
	return MustNew(BuiltinDefinitions(), opts...)
}

func compileDefinition(def PatternDefinition) (Pattern, error) {
	if !def.Category.Valid() {
		return Pattern{}, fmt.Errorf("unknown category %q", def.Category)
	}
	if def.Weight <= 0 {
		return Pattern{}, fmt.Errorf("weight must be positive, got %v", def.Weight)
	}

	p := Pattern{Name: def.Name, Category: def.Category, Weight: def.Weight}
	var err error
	if p.sender, err = compileAll("sender", def.SenderMatchers); err != nil {
		return Pattern{}, err
	}
	if p.subject, err = compileAll("subject", def.SubjectMatchers); err != nil {
		return Pattern{}, err
	}
	if p.body, err = compileAll("body", def.BodyMatchers); err != nil {
		return Pattern{}, err
	}
	if p.extractors.FlightNumbers, err = compileAll("flight extractor", def.Extractors.FlightNumbers); err != nil {
		return Pattern{}, err
	}
	if p.extractors.BookingReferences, err = compileAll("booking extractor", def.Extractors.BookingReferences); err != nil {
		return Pattern{}, err
	}
	if p.extractors.AirportCodes, err = compileAll("airport extractor", def.Extractors.AirportCodes); err != nil {
		return Pattern{}, err
	}
	if p.extractors.Dates, err = compileAll("date extractor", def.Extractors.Dates); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func compileAll(kind string, sources []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(sources))
	for _, src := range sources {
		re, err := regexp.Compile(patterns.Expand(src))
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", kind, src, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Patterns returns the compiled patterns in registry order.
func (r *Registry) Patterns() []Pattern {
	return append([]Pattern(nil), r.patterns...)
}

// CategoryExtractors returns the combined field matchers of every pattern in category c.
func (r *Registry) CategoryExtractors(c Category) Extractors {
	return r.byCategory[c]
}

// IsAirline reports whether code is a known airline designator. Lookups
// ignore case.
func (r *Registry) IsAirline(code string) bool {
	_, ok := r.airlines[strings.ToUpper(code)]
	return ok
}

// AirlineName returns the carrier name for a designator.
func (r *Registry) AirlineName(code string) (string, bool) {
	name, ok := r.airlines[strings.ToUpper(code)]
	return name, ok
}

// IsAirport reports whether code is a known IATA airport code. Lookups
// ignore case.
func (r *Registry) IsAirport(code string) bool {
	_, ok := r.airports[strings.ToUpper(code)]
	return ok
}

// Airport returns the airport for an IATA code.
func (r *Registry) Airport(code string) (patterns.Airport, bool) {
	a, ok := r.airports[strings.ToUpper(code)]
	return a, ok
}

// IsTrustedDomain reports whether domain, or a parent domain of it, is on
// the trusted sender list.
func (r *Registry) IsTrustedDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}
	for _, t := range r.trusted {
		if domain == t || strings.HasSuffix(domain, "."+t) {
			return true
		}
	}
	return false
}

// TrustedDomains returns the trusted sender domains, sorted.
func (r *Registry) TrustedDomains() []string {
	return append([]string(nil), r.trusted...)
}

// Counts returns the number of patterns, airlines and airports.
func (r *Registry) Counts() (patternCount, airlineCount, airportCount int) {
	return len(r.patterns), len(r.airlines), len(r.airports)
}
