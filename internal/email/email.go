// Package email provides the raw email types consumed by the extraction pipeline.
package email

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexTime handles timestamps that arrive as RFC 3339 strings, RFC 1123Z
// mail headers, or unix seconds.
type FlexTime struct {
	time.Time
}

var flexTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (f *FlexTime) UnmarshalJSON(data []byte) error {
	// Try as number first.
	var secs int64
	if err := json.Unmarshal(data, &secs); err == nil {
		f.Time = time.Unix(secs, 0).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		f.Time = time.Time{}
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		f.Time = time.Time{}
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		f.Time = time.Unix(n, 0).UTC()
		return nil
	}
	for _, layout := range flexTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}

	// Unparseable timestamps are left zero.
	f.Time = time.Time{}
	return nil
}

func (f FlexTime) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(f.Format(time.RFC3339))
}

// Attachment describes a file attached to an email. Only metadata is kept.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// RawEmail is one message handed over by the retrieval side.
// The pipeline treats it as read-only.
type RawEmail struct {
	ID          string       `json:"id"`
	Subject     string       `json:"subject"`
	Sender      string       `json:"sender"`
	Recipient   string       `json:"recipient,omitempty"`
	Timestamp   FlexTime     `json:"timestamp"`
	BodyText    string       `json:"body_text"`
	Snippet     string       `json:"snippet,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// FullText returns subject, body and snippet joined with runs of whitespace
// collapsed to a single space.
func (e RawEmail) FullText() string {
	joined := e.Subject + " " + e.BodyText + " " + e.Snippet
	return strings.Join(strings.Fields(joined), " ")
}

// SearchText returns subject, body and snippet joined by newlines with the
// original line structure kept. Labelled-field extractors rely on line breaks.
func (e RawEmail) SearchText() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{e.Subject, e.BodyText, e.Snippet} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}

// Envelope represents the bus message format where the email is nested
// inside a "message" field with transport metadata at the top level.
type Envelope struct {
	Source      *Source      `json:"source,omitempty"`
	Message     *RawEmail    `json:"message,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Source identifies the mailbox connector that produced an envelope.
type Source struct {
	Name    string `json:"name,omitempty"`
	Mailbox string `json:"mailbox,omitempty"`
}

// ToEmail converts an Envelope to a RawEmail.
func (e *Envelope) ToEmail() *RawEmail {
	if e.Message == nil {
		return nil
	}
	msg := *e.Message
	if len(msg.Attachments) == 0 && len(e.Attachments) > 0 {
		msg.Attachments = append([]Attachment(nil), e.Attachments...)
	}
	return &msg
}

// Decode accepts either an Envelope or a flat RawEmail and returns the email.
// The second return value reports which shape was found ("envelope" or "flat").
func Decode(data []byte) (*RawEmail, string, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, "", err
	}

	if _, ok := probe["message"]; ok {
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, "", err
		}
		if msg := env.ToEmail(); msg != nil {
			return msg, "envelope", nil
		}
		return nil, "envelope", nil
	}

	var msg RawEmail
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, "", err
	}
	return &msg, "flat", nil
}
