// Package placeline finds dateline-style place mentions ("COLUMBUS, Ohio —")
// at the start of news articles.
package placeline

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Simple-pattern exceptions.
const (
	// FalsePositiveOh is the interjection "OH" caught by the simple pattern.
	FalsePositiveOh = "Oh"

	// Washington alone in a dateline means the capital.
	Washington   = "Washington"
	WashingtonDC = "Washington/District of Columbia"

	NewYork        = "New York"
	NewYorkNewYork = "New York/New York"
)

const precedingTokens = 5

var (
	// completePattern captures the place run right before a state code.
	completePattern = regexp.MustCompile(`([A-Za-z. \-]+)[,\s]*$`)
	// simplePattern captures an upper-case run followed by "(" or "-".
	simplePattern = regexp.MustCompile(`([A-Z. \-]{3,})[,\s]*[(\-]`)
)

// StateCodes resolves dateline state codes.
type StateCodes interface {
	NameOf(code string) (string, bool)
	HasName(name string) bool
}

// PlaceNames knows which states have a place of a given name.
type PlaceNames interface {
	UnambiguousState(name string) (string, bool)
	HasNameAndState(name, state string) bool
}

// Detector finds placelines. It is safe for concurrent use.
type Detector struct {
	codes  StateCodes
	places PlaceNames
}

// NewDetector creates a Detector backed by the given tables.
func NewDetector(codes StateCodes, places PlaceNames) *Detector {
	return &Detector{codes: codes, places: places}
}

// Detect returns "Place/State" (or a bare state name) for doc, or "" when
// no placeline is found. A complete-pattern match always wins.
func (d *Detector) Detect(doc string) string {
	if p := d.Complete(doc); p != "" {
		return p
	}
	return d.Simple(doc)
}

// Complete looks for a state code token preceded by a place registered in
// that state.
func (d *Detector) Complete(doc string) string {
	toks := strings.Split(doc, " ")
	for i, tok := range toks {
		code := strings.TrimSuffix(strings.TrimSpace(tok), ",")
		if code == "" {
			continue
		}
		state, ok := d.codes.NameOf(code)
		if !ok {
			continue
		}

		preceding := strings.Join(toks[max(0, i-precedingTokens):i], " ")
		if preceding == "" {
			continue
		}
		m := completePattern.FindStringSubmatch(preceding)
		if m == nil {
			continue
		}

		for _, suffix := range suffixes(m[1]) {
			if d.places.HasNameAndState(suffix, state) {
				return suffix + "/" + state
			}
		}
	}
	return ""
}

// Simple looks at the first upper-case run followed by "(" or "-".
func (d *Detector) Simple(doc string) string {
	m := simplePattern.FindStringSubmatch(doc)
	if m == nil {
		return ""
	}

	for _, suffix := range suffixes(m[1]) {
		switch suffix {
		case FalsePositiveOh:
			return ""
		case Washington:
			return WashingtonDC
		case NewYork:
			return NewYorkNewYork
		}
		if d.codes.HasName(suffix) {
			return suffix
		}
		if state, ok := d.places.UnambiguousState(suffix); ok {
			return suffix + "/" + state
		}
	}
	return ""
}

// suffixes title-cases candidate and returns its token suffixes, longest
// first.
func suffixes(candidate string) []string {
	// Casers keep state, so each call gets its own.
	caser := cases.Title(language.English)
	toks := strings.Split(strings.TrimSpace(strings.ToLower(candidate)), " ")
	for i, tok := range toks {
		toks[i] = caser.String(tok)
	}

	out := make([]string, 0, len(toks))
	for i := range toks {
		out = append(out, strings.Join(toks[i:], " "))
	}
	return out
}
