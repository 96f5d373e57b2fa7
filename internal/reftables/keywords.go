package reftables

import (
	"io"
	"sort"
	"strings"
	"unicode"

	"github.com/cloudflare/ahocorasick"
)

// KeywordDictionary finds known place names in article text.
type KeywordDictionary struct {
	words   []string
	matcher *ahocorasick.Matcher
}

// ParseKeywordDictionary reads the first column of a wiki entity TSV. Names
// containing digits are skipped; every name is registered as written and
// upper-cased.
func ParseKeywordDictionary(r io.Reader) (*KeywordDictionary, error) {
	var words []string
	seen := make(map[string]bool)
	add := func(w string) {
		if w != "" && !seen[w] {
			seen[w] = true
			words = append(words, w)
		}
	}

	err := eachRecord(r, false, func(fields []string) {
		name := fields[0]
		if strings.ContainsFunc(name, unicode.IsDigit) {
			return
		}
		add(name)
		add(strings.ToUpper(name))
	})
	if err != nil {
		return nil, err
	}
	return NewKeywordDictionary(words), nil
}

// NewKeywordDictionary builds the matcher over words.
func NewKeywordDictionary(words []string) *KeywordDictionary {
	d := &KeywordDictionary{words: words}
	if len(words) > 0 {
		d.matcher = ahocorasick.NewStringMatcher(words)
	}
	return d
}

// Len returns the number of registered keywords.
func (d *KeywordDictionary) Len() int {
	return len(d.words)
}

type span struct {
	start, end int
	word       string
}

// Find returns the distinct keywords occurring in text as whole words,
// case-sensitively, in order of first occurrence. Overlapping hits resolve
// to the leftmost, then longest, keyword.
func (d *KeywordDictionary) Find(text string) []string {
	if d.matcher == nil || text == "" {
		return nil
	}

	hits := d.matcher.MatchThreadSafe([]byte(text))
	if len(hits) == 0 {
		return nil
	}

	var spans []span
	for _, idx := range hits {
		w := d.words[idx]
		for from := 0; ; {
			i := strings.Index(text[from:], w)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(w)
			if isBoundary(text, start-1) && isBoundary(text, end) {
				spans = append(spans, span{start: start, end: end, word: w})
			}
			from = start + 1
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var out []string
	seen := make(map[string]bool)
	lastEnd := 0
	for _, s := range spans {
		if s.start < lastEnd {
			continue
		}
		lastEnd = s.end
		if !seen[s.word] {
			seen[s.word] = true
			out = append(out, s.word)
		}
	}
	return out
}

// isBoundary reports whether the byte at i is outside text or is not an
// ASCII word character.
func isBoundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	c := text[i]
	return !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}
