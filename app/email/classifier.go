package email

import "strings"

var newsletterKeywords = []string{
	"newsletter",
	"digest",
	"weekly",
	"update",
	"roundup",
	"insights",
	"report",
	"briefing",
	"unsubscribe",
	"subscription",
	"subscribe",
	"preferences",
}

var newsletterDomains = []string{
	"substack.com",
	"beehiiv.com",
	"buttondown.email",
	"mailchimp.com",
	"convertkit.com",
	"revue.com",
	"ghost.org",
}

// IsNewsletter reports whether the subject or body carries a newsletter keyword
// or the sender belongs to a known newsletter platform.
func IsNewsletter(subject, body, senderEmail string) bool {
	subject = strings.ToLower(subject)
	body = strings.ToLower(body)

	for _, keyword := range newsletterKeywords {
		if strings.Contains(subject, keyword) || strings.Contains(body, keyword) {
			return true
		}
	}

	_, domain, ok := strings.Cut(strings.ToLower(strings.TrimSpace(senderEmail)), "@")
	if !ok {
		return false
	}
	for _, platform := range newsletterDomains {
		if domain == platform || strings.HasSuffix(domain, "."+platform) {
			return true
		}
	}

	return false
}
