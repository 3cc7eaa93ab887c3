package conversation

import "strings"

// Tokenize lower-cases text and splits it on every rune outside [0-9a-z-].
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return false
		}
		return true
	})
}
