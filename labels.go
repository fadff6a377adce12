package fsds

import (
	"strings"
	"unicode"
)

// NormalizeLabel cleans up a presentation label as filers submit them.
// pre.txt labels regularly carry HTML entities, non-breaking spaces and
// other invisible characters that would break display-value comparisons.
//
// Normalizations performed:
// - common HTML entities (&nbsp;, &amp;, &rsquo;, ...) -> Unicode equivalents
// - Unicode whitespace variants -> regular spaces
// - zero-width characters -> removed
// - consecutive whitespace collapsed to a single space, ends trimmed
func NormalizeLabel(label string) string {
	text := normalizeHTMLEntities(label)
	text = normalizeWhitespace(text)
	text = removeInvisibleChars(text)
	return strings.TrimSpace(text)
}

// normalizeHTMLEntities converts the HTML entities that show up in SEC labels
func normalizeHTMLEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}
	replacements := map[string]string{
		"&nbsp;":  " ",      // Non-breaking space
		"&mdash;": "—", // Em dash
		"&ndash;": "–", // En dash
		"&ldquo;": "“", // Left double quote
		"&rdquo;": "”", // Right double quote
		"&lsquo;": "‘", // Left single quote
		"&rsquo;": "’", // Right single quote
		"&amp;":   "&",      // Ampersand
		"&lt;":    "<",      // Less than
		"&gt;":    ">",      // Greater than
		"&quot;":  "\"",     // Quote
		"&apos;":  "'",      // Apostrophe
		"&sect;":  "§", // Section sign
	}
	for entity, replacement := range replacements {
		text = strings.ReplaceAll(text, entity, replacement)
	}
	return text
}

// normalizeWhitespace converts Unicode whitespace variants to regular
// spaces and collapses runs
func normalizeWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastWasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) || r == ' ' {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}

	return b.String()
}

// removeInvisibleChars strips zero-width and directional characters
func removeInvisibleChars(text string) string {
	invisible := []string{
		"\u200B", // Zero-width space
		"\u200C", // Zero-width non-joiner
		"\u200D", // Zero-width joiner
		"\uFEFF", // Byte order mark
		"\u200E", // Left-to-right mark
		"\u200F", // Right-to-left mark
	}
	for _, ch := range invisible {
		text = strings.ReplaceAll(text, ch, "")
	}
	return text
}
