package pipeline

import (
	"strings"
	"unicode"
)

// extractSectionContent returns the lines attributed to one section: capture
// starts after the line containing the section's name and stops at the first
// line containing any other detected section name. Matching is whole-word and
// case-insensitive against the raw OCR names, which is why detection must not
// correct them.
func extractSectionContent(ocrText, sectionName string, allSections []string) string {
	lines := strings.Split(ocrText, "\n")
	var content []string
	capturing := false

	for _, line := range lines {
		if containsWholeWord(line, sectionName) {
			capturing = true
			// The header line itself is not content.
			continue
		}
		if !capturing {
			continue
		}

		stop := false
		for _, other := range allSections {
			if other == sectionName {
				continue
			}
			if containsWholeWord(line, other) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
		content = append(content, line)
	}

	return strings.Join(content, "\n")
}

// containsWholeWord reports whether word occurs in line, case-insensitively,
// bounded by non-letter/non-digit runes on both sides. Unicode-aware so
// accented section names match correctly.
func containsWholeWord(line, word string) bool {
	if word == "" {
		return false
	}
	lineUpper := strings.ToUpper(line)
	wordUpper := strings.ToUpper(word)

	for offset := 0; ; {
		idx := strings.Index(lineUpper[offset:], wordUpper)
		if idx == -1 {
			return false
		}
		start := offset + idx
		end := start + len(wordUpper)

		if boundaryBefore(lineUpper, start) && boundaryAfter(lineUpper, end) {
			return true
		}
		offset = start + 1
		if offset >= len(lineUpper) {
			return false
		}
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	runes := []rune(s[:i])
	return !isWordRune(runes[len(runes)-1])
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	for _, r := range s[i:] {
		return !isWordRune(r)
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
