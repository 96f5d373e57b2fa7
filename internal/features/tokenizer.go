package features

import (
	"strings"
	"unicode/utf8"
)

const (
	leadingPunct  = "\"'([{<“‘`"
	trailingPunct = ",;:!?\")]}>”’'"
)

var (
	dashes       = []string{"—", "–", "--"}
	contractions = []string{"n't", "'s", "'re", "'ve", "'ll", "'d", "'m"}
)

// Tokenize splits text into word tokens. Punctuation and dashes become
// tokens of their own and English contractions are split. A trailing period
// stays on initials and on words that already contain a period ("U.S.").
func Tokenize(text string) []string {
	var out []string
	for _, chunk := range strings.Fields(text) {
		for _, piece := range splitDashes(chunk) {
			out = appendWord(out, piece)
		}
	}
	return out
}

// splitDashes isolates em dashes, en dashes and double hyphens.
func splitDashes(chunk string) []string {
	var out []string
	for chunk != "" {
		idx, dash := -1, ""
		for _, d := range dashes {
			if i := strings.Index(chunk, d); i >= 0 && (idx < 0 || i < idx) {
				idx, dash = i, d
			}
		}
		if idx < 0 {
			out = append(out, chunk)
			break
		}
		if idx > 0 {
			out = append(out, chunk[:idx])
		}
		out = append(out, dash)
		chunk = chunk[idx+len(dash):]
	}
	return out
}

func appendWord(out []string, w string) []string {
	if w == "" {
		return out
	}
	for _, d := range dashes {
		if w == d {
			return append(out, w)
		}
	}

	var lead []string
	for w != "" {
		r, size := utf8.DecodeRuneInString(w)
		if !strings.ContainsRune(leadingPunct, r) {
			break
		}
		lead = append(lead, w[:size])
		w = w[size:]
	}

	var trail []string
	for w != "" {
		r, size := utf8.DecodeLastRuneInString(w)
		if strings.ContainsRune(trailingPunct, r) {
			trail = append(trail, w[len(w)-size:])
			w = w[:len(w)-size]
			continue
		}
		if r == '.' && splitPeriod(w) {
			trail = append(trail, ".")
			w = w[:len(w)-1]
			continue
		}
		break
	}

	out = append(out, lead...)
	if w != "" {
		out = append(out, splitContraction(w)...)
	}
	for i := len(trail) - 1; i >= 0; i-- {
		out = append(out, trail[i])
	}
	return out
}

// splitPeriod reports whether the final period of w is punctuation rather
// than part of an abbreviation.
func splitPeriod(w string) bool {
	stem := w[:len(w)-1]
	if stem == "" || strings.Contains(stem, ".") {
		return false
	}
	return utf8.RuneCountInString(stem) > 1
}

func splitContraction(w string) []string {
	lower := strings.ToLower(w)
	for _, c := range contractions {
		if strings.HasSuffix(lower, c) && len(w) > len(c) {
			return []string{w[:len(w)-len(c)], w[len(w)-len(c):]}
		}
	}
	return []string{w}
}
