// Package escape substitutes reversible placeholder tokens for the characters
// that would let a note body break out of the page or script context it is
// embedded in. It is not an HTML sanitizer; round-trip fidelity is the only
// contract.
package escape

import "strings"

// The escape character '|' is replaced first so that text which already
// contains a placeholder token survives a round trip. strings.Replacer works
// in a single pass, so emitted tokens are never reinterpreted by a later rule.
var (
	escaper = strings.NewReplacer(
		"|", "|p|",
		"`", "|bt|",
		"<", "|lt|",
		">", "|gt|",
	)
	unescaper = strings.NewReplacer(
		"|p|", "|",
		"|bt|", "`",
		"|lt|", "<",
		"|gt|", ">",
	)
)

// Escape replaces backtick, '<', '>' and the escape character itself with
// placeholder tokens.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Unescape restores text produced by Escape. Unescape(Escape(t)) == t for
// every t.
func Unescape(text string) string {
	return unescaper.Replace(text)
}
