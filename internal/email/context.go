package email

import (
	"net/mail"
	"strings"
)

// Context carries metadata about an email that pattern matching cannot see.
type Context struct {
	SenderDomain        string `json:"sender_domain"`
	HasMultipleBookings bool   `json:"has_multiple_bookings"`
	IsForwardedEmail    bool   `json:"is_forwarded_email"`
	HasAttachments      bool   `json:"has_attachments"`
}

// multipleBookingThreshold is the number of "booking" mentions above which a
// body is assumed to describe more than one reservation.
const multipleBookingThreshold = 2

var forwardPrefixes = []string{"fwd:", "fw:"}

// DeriveContext computes the context flags for an email.
func DeriveContext(e RawEmail) Context {
	subject := strings.ToLower(strings.TrimSpace(e.Subject))

	forwarded := false
	for _, p := range forwardPrefixes {
		if strings.HasPrefix(subject, p) {
			forwarded = true
			break
		}
	}

	return Context{
		SenderDomain:        SenderDomain(e.Sender),
		HasMultipleBookings: strings.Count(strings.ToLower(e.BodyText), "booking") > multipleBookingThreshold,
		IsForwardedEmail:    forwarded,
		HasAttachments:      len(e.Attachments) > 0,
	}
}

// SenderDomain returns the lower-cased domain of a sender address.
// It accepts both bare addresses and "Name <addr>" forms.
func SenderDomain(sender string) string {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return ""
	}

	addr := sender
	if parsed, err := mail.ParseAddress(sender); err == nil {
		addr = parsed.Address
	} else if i := strings.LastIndex(sender, "<"); i >= 0 {
		addr = strings.TrimSuffix(sender[i+1:], ">")
	}

	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(addr[at+1:]))
}
