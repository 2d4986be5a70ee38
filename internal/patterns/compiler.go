// Package patterns provides shared regex patterns and helper functions for travel email parsing.
// This file contains the grok-style pattern compiler.

package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// placeholderRe finds {NAME} references. Regex quantifiers such as {3,4}
// never match because they start with a digit.
var placeholderRe = regexp.MustCompile(`\{([A-Z_][A-Z0-9_]*)\}`)

// Format represents a named pattern with named capture groups.
type Format struct {
	Name     string         // Format name for identification
	Pattern  string         // Pattern with {PLACEHOLDER} syntax
	KeepCase bool           // Match the original text instead of its upper-cased copy
	Compiled *regexp.Regexp // Compiled regex (populated by Compile)
}

// Compiler manages pattern compilation and matching for a set of formats.
type Compiler struct {
	basePatterns map[string]string
	formats      []Format
}

// NewCompiler creates a new pattern compiler with the given formats.
// Local patterns are overlaid on the global BasePatterns.
func NewCompiler(formats []Format, localPatterns map[string]string) *Compiler {
	c := &Compiler{
		basePatterns: make(map[string]string, len(BasePatterns)+len(localPatterns)),
		formats:      make([]Format, len(formats)),
	}
	for k, v := range BasePatterns {
		c.basePatterns[k] = v
	}
	for k, v := range localPatterns {
		c.basePatterns[k] = v
	}
	copy(c.formats, formats)
	return c
}

// Compile expands all {PLACEHOLDER} references and compiles regexes.
func (c *Compiler) Compile() error {
	for i := range c.formats {
		re, err := regexp.Compile(c.expand(c.formats[i].Pattern))
		if err != nil {
			return fmt.Errorf("format %s: %w", c.formats[i].Name, err)
		}
		c.formats[i].Compiled = re
	}
	return nil
}

// MustCompile is like Compile but panics on error. It is meant for
// package-level format tables that are fixed at build time.
func (c *Compiler) MustCompile() *Compiler {
	if err := c.Compile(); err != nil {
		panic(err)
	}
	return c
}

// expand replaces {PLACEHOLDER} with the registered regex. Unknown names are left as-is.
func (c *Compiler) expand(pattern string) string {
	return placeholderRe.ReplaceAllStringFunc(pattern, func(ph string) string {
		if re, ok := c.basePatterns[ph[1:len(ph)-1]]; ok {
			return re
		}
		return ph
	})
}

// Expand replaces {PLACEHOLDER} references in pattern using BasePatterns only.
func Expand(pattern string) string {
	return NewCompiler(nil, nil).expand(pattern)
}

// Match represents a successful pattern match with extracted fields.
type Match struct {
	FormatName string            // Name of the matched format
	Captures   map[string]string // Named capture group values
	Start, End int               // Byte offsets of the match in the searched text
}

// subject returns the text a format is matched against.
func (f Format) subject(text, upper string) string {
	if f.KeepCase {
		return text
	}
	return upper
}

func captures(re *regexp.Regexp, subject string, loc []int) map[string]string {
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" || loc[2*i] < 0 {
			continue
		}
		out[name] = subject[loc[2*i]:loc[2*i+1]]
	}
	return out
}

// Parse returns the first format (in declaration order) that matches text, or nil.
func (c *Compiler) Parse(text string) *Match {
	upper := strings.ToUpper(text)
	for _, f := range c.formats {
		if f.Compiled == nil {
			continue
		}
		s := f.subject(text, upper)
		loc := f.Compiled.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		return &Match{
			FormatName: f.Name,
			Captures:   captures(f.Compiled, s, loc),
			Start:      loc[0],
			End:        loc[1],
		}
	}
	return nil
}

// FindAll returns every match of every format, ordered by position in text.
// When two matches overlap the earlier one wins, so a single date written in
// one style is never reported twice by a looser style.
func (c *Compiler) FindAll(text string) []*Match {
	upper := strings.ToUpper(text)
	var all []*Match

	for _, f := range c.formats {
		if f.Compiled == nil {
			continue
		}
		s := f.subject(text, upper)
		for _, loc := range f.Compiled.FindAllStringSubmatchIndex(s, -1) {
			all = append(all, &Match{
				FormatName: f.Name,
				Captures:   captures(f.Compiled, s, loc),
				Start:      loc[0],
				End:        loc[1],
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End > all[j].End
	})

	out := all[:0]
	end := -1
	for _, m := range all {
		if m.Start < end {
			continue
		}
		out = append(out, m)
		end = m.End
	}
	return out
}

// GetCapture is a helper to safely get a capture value with a default.
func (m *Match) GetCapture(name string, defaultVal string) string {
	if m == nil {
		return defaultVal
	}
	if val, ok := m.Captures[name]; ok && val != "" {
		return val
	}
	return defaultVal
}

// FormatTrace contains debug information about a format match attempt.
type FormatTrace struct {
	Name     string            // Format name
	Matched  bool              // Whether the pattern matched
	Pattern  string            // The expanded regex pattern
	Captures map[string]string // Captured groups (if matched)
}

// ParseWithTrace reports every format's outcome against text.
func (c *Compiler) ParseWithTrace(text string) []FormatTrace {
	upper := strings.ToUpper(text)
	traces := make([]FormatTrace, 0, len(c.formats))

	for _, f := range c.formats {
		ft := FormatTrace{Name: f.Name, Pattern: c.expand(f.Pattern)}
		if f.Compiled != nil {
			s := f.subject(text, upper)
			if loc := f.Compiled.FindStringSubmatchIndex(s); loc != nil {
				ft.Matched = true
				ft.Captures = captures(f.Compiled, s, loc)
			}
		}
		traces = append(traces, ft)
	}
	return traces
}
