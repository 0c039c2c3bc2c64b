package app

import "strings"

// optOutKeywords is the fixed opt-out vocabulary. A reply opts the sender out
// only when the whole trimmed, upper-cased message equals one of these; a
// sentence merely containing a keyword does not.
var optOutKeywords = map[string]struct{}{
	"STOP":        {},
	"STOPALL":     {},
	"UNSUBSCRIBE": {},
	"CANCEL":      {},
	"END":         {},
	"QUIT":        {},
}

// IsOptOutKeyword reports whether the message body is an opt-out request.
func IsOptOutKeyword(body string) bool {
	_, ok := optOutKeywords[strings.ToUpper(strings.TrimSpace(body))]
	return ok
}
