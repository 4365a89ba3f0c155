package extract

import (
	"regexp"
	"sort"
	"strings"
)

// matchObject walks forward from the '{' at start and returns the index one past
// its matching '}'. Braces inside string literals are ignored.
func matchObject(text string, start int) (int, bool) {
	if start < 0 || start >= len(text) || text[start] != '{' {
		return 0, false
	}

	depth := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		ch := text[i]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}

	return 0, false
}

type span struct {
	start, end int
}

// CandidateSpans returns every brace-balanced object that encloses an occurrence of
// the marker key, ordered by start offset with outer objects first. Duplicates are removed.
func CandidateSpans(text, marker string) []string {
	if marker == "" {
		return nil
	}

	markerRe := regexp.MustCompile(`"` + regexp.QuoteMeta(marker) + `"\s*:`)
	seen := make(map[span]bool)
	var spans []span

	for _, loc := range markerRe.FindAllStringIndex(text, -1) {
		for _, s := range enclosingObjects(text, loc[0]) {
			if !seen[s] {
				seen[s] = true
				spans = append(spans, s)
			}
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	out := make([]string, 0, len(spans))
	dedup := make(map[string]bool)
	for _, s := range spans {
		c := text[s.start:s.end]
		if dedup[c] {
			continue
		}
		dedup[c] = true
		out = append(out, c)
	}
	return out
}

// enclosingObjects walks backward from pos over every preceding '{' and returns the
// spans whose matching '}' lies beyond pos, nearest first. Braces that open and close
// before pos are skipped.
func enclosingObjects(text string, pos int) []span {
	var out []span
	for i := pos - 1; i >= 0; i-- {
		if text[i] != '{' {
			continue
		}
		if end, ok := matchObject(text, i); ok && end > pos {
			out = append(out, span{start: i, end: end})
		}
	}
	return out
}

// outerSpan returns the text from the first '{' to the last '}'
func outerSpan(text string) (string, bool) {
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first < 0 || last <= first {
		return "", false
	}
	return text[first : last+1], true
}
