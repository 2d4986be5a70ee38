// Package patterns provides shared regex patterns and helper functions for travel email parsing.
// This file contains grok-style base patterns for use with the Compiler.

package patterns

// BasePatterns defines reusable regex components for grok-style pattern composition.
// These are referenced in format patterns using {PATTERN_NAME} syntax.
var BasePatterns = map[string]string{
	// Airport and airline codes.
	"IATA":    `[A-Z]{3}`,
	"AIRLINE": `[A-Z]{2,3}`,

	// Flight identifiers as printed in confirmations, e.g. KE123, OZ0202, KAL017.
	"FLIGHT": `[A-Z]{2,3}\d{3,4}`,

	// Booking references / record locators.
	"PNR": `[A-Z0-9]{6,8}`,

	// Keywords that introduce a booking reference. Matched case-insensitively.
	"BOOKING_KEYWORD": `(?i:confirmation|booking|reservation|reference|record\s+locator|예약|PNR)`,

	// Optional descriptor between keyword and code ("number", "no.", "code").
	"BOOKING_LABEL": `(?i:\s*(?:number|no\.?|code|id|번호))?`,

	// Date components.
	"YEAR":      `(?:19|20)\d{2}`,
	"YY":        `\d{2}`,
	"MONTHNUM":  `(?:0?[1-9]|1[0-2])`,
	"MONTHDAY":  `(?:0?[1-9]|[12]\d|3[01])`,
	"MON3":      `(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)`,
	"MONTHNAME": `(?:JAN(?:UARY)?|FEB(?:RUARY)?|MAR(?:CH)?|APR(?:IL)?|MAY|JUNE?|JULY?|AUG(?:UST)?|SEP(?:T(?:EMBER)?)?|OCT(?:OBER)?|NOV(?:EMBER)?|DEC(?:EMBER)?)`,
	"ORDINAL":   `(?:ST|ND|RD|TH)?`,

	// Labelled free-text fields.
	"LABEL_SEP": `\s*[:：]\s*`,
	"LINE":      `[^\n\r]`,
}
