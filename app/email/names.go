package email

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var localPartSeparators = regexp.MustCompile(`[._-]`)

// NameFromEmail derives a display name from a bare address. Generic mailbox
// names (newsletter@, hello@, team@) fall back to the first domain label.
func NameFromEmail(address string) string {
	local, domain, _ := strings.Cut(address, "@")
	if domain == "" {
		return address
	}

	switch local {
	case "newsletter", "hello", "team":
		label, _, _ := strings.Cut(domain, ".")
		return capitalizeWords(label)
	}

	return capitalizeWords(localPartSeparators.ReplaceAllString(local, " "))
}

// capitalizeWords upper-cases the first rune of each whitespace-separated word
// and lower-cases the rest. Punctuation inside a word does not start a new one.
func capitalizeWords(s string) string {
	// Casers keep state and must not be shared between goroutines.
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)

	words := strings.Fields(s)
	for i, word := range words {
		_, size := utf8.DecodeRuneInString(word)
		words[i] = upper.String(word[:size]) + lower.String(word[size:])
	}
	return strings.Join(words, " ")
}
