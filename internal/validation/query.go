package validation

import (
	"strings"
	"unicode/utf8"
)

// MaxQueryLength caps search input; MediaWiki rejects srsearch above 300 bytes.
const MaxQueryLength = 256

// SanitizeQuery trims a search query, flattens whitespace and limits its length.
func SanitizeQuery(input string) string {
	input = strings.Join(strings.Fields(input), " ")

	if len(input) > MaxQueryLength {
		input = input[:MaxQueryLength]
		for len(input) > 0 && !utf8.ValidString(input) {
			input = input[:len(input)-1]
		}
	}

	return strings.TrimSpace(input)
}
