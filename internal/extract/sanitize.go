package extract

import "strings"

// Sanitize escapes raw newline, carriage return and tab characters that appear inside
// JSON string literals. Text outside strings is left untouched, so Sanitize is idempotent.
func Sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	inString := false
	escape := false

	for _, ch := range s {
		if !inString {
			if ch == '"' {
				inString = true
			}
			sb.WriteRune(ch)
			continue
		}

		if escape {
			escape = false
			sb.WriteRune(ch)
			continue
		}

		switch ch {
		case '\\':
			escape = true
			sb.WriteRune(ch)
		case '"':
			inString = false
			sb.WriteRune(ch)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(ch)
		}
	}

	return sb.String()
}
