// Package registry provides tracing types for classification debugging.
package registry

// PatternTrace records how one pattern scored against an email.
type PatternTrace struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Weight   float64  `json:"weight"`
	Sender   bool     `json:"sender"`   // Whether a sender matcher matched.
	Subject  bool     `json:"subject"`  // Whether a subject matcher matched.
	Body     bool     `json:"body"`     // Whether a body matcher matched the full text.
	Score    float64  `json:"score"`    // Unweighted signal score.
	Weighted float64  `json:"weighted"` // Score multiplied by weight.
}

// Extractor contains debug information about a field extractor run.
type Extractor struct {
	Pass    string   `json:"pass"`    // "specialized" or "general".
	Field   string   `json:"field"`   // e.g. "flight_numbers", "dates".
	Pattern string   `json:"pattern"` // The regex pattern used, if any.
	Values  []string `json:"values,omitempty"`
}

// Bonus records one confidence adjustment.
type Bonus struct {
	Reason string  `json:"reason"`
	Delta  float64 `json:"delta"`
}

// Trace contains the complete debug information for one classification.
type Trace struct {
	EmailID    string         `json:"email_id"`
	Patterns   []PatternTrace `json:"patterns"`
	Winner     string         `json:"winner,omitempty"`
	Category   Category       `json:"category,omitempty"`
	Base       float64        `json:"base_confidence"`
	Extractors []Extractor    `json:"extractors,omitempty"`
	Bonuses    []Bonus        `json:"bonuses,omitempty"`
	Final      float64        `json:"final_confidence"`
	Discarded  bool           `json:"discarded"`
}
