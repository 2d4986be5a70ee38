package classify

import "travelmail/internal/email"

// Context adjustments.
const (
	trustedDomainBonus     = 0.15
	attachmentBonus        = 0.10
	forwardedPenalty       = 0.10
	multipleBookingPenalty = 0.05
)

// TrustedDomains reports whether a sender domain is first-party.
type TrustedDomains interface {
	IsTrustedDomain(domain string) bool
}

// Reweigh returns a copy of rec with its confidence adjusted for email
// metadata. trusted may be nil, in which case no domain is trusted.
func Reweigh(rec ExtractedRecord, ctx email.Context, trusted TrustedDomains) ExtractedRecord {
	out := rec.Clone()
	conf := out.Confidence

	if trusted != nil && ctx.SenderDomain != "" && trusted.IsTrustedDomain(ctx.SenderDomain) {
		conf += trustedDomainBonus
	}
	if ctx.HasAttachments {
		conf += attachmentBonus
	}
	if ctx.IsForwardedEmail {
		conf -= forwardedPenalty
	}
	if ctx.HasMultipleBookings {
		conf -= multipleBookingPenalty
	}

	out.Confidence = Clamp(conf)
	return out
}
