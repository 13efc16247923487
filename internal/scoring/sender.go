package scoring

import (
	"net/mail"
	"strings"
)

// SenderKey normalizes a From value into the address used to key sender
// profiles: "Name <User+news@Example.COM>" becomes "user@example.com".
// Unparseable input is lowercased and trimmed.
func SenderKey(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}

	email := strings.ToLower(from)
	if addr, err := mail.ParseAddress(from); err == nil && addr != nil {
		email = strings.ToLower(strings.TrimSpace(addr.Address))
	}

	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at+1:]
	if plus := strings.IndexByte(local, '+'); plus > 0 {
		local = local[:plus]
	}
	return local + "@" + domain
}
