package retrieval

import (
	"regexp"
	"strings"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

const (
	// mojibakeDash is an em dash decoded as Windows-1252.
	mojibakeDash = "â€”"

	leadingWords    = 50
	minStateFreq    = 3
	maxFirstStateAt = 200
)

var (
	// datelinePattern matches "place, state (publisher)" in the lead.
	datelinePattern = regexp.MustCompile(`([a-z ]*),? ([a-z ]+)\.? *\((.*)\)`)
	whitespace      = regexp.MustCompile(`\s`)
)

// StateResolver maps surface forms to full state names.
type StateResolver interface {
	StateNames
	Resolve(surface string) []string
}

// TextExtractor finds states in the body text.
type TextExtractor struct {
	states StateResolver
	names  [][]string
}

func NewTextExtractor(states StateResolver) *TextExtractor {
	e := &TextExtractor{states: states}
	for _, name := range states.FullNames() {
		e.names = append(e.names, strings.Fields(name))
	}
	return e
}

type textMatch struct {
	state string
	place string
	count int
}

// Extract returns states named in a lead dateline with a publisher
// parenthetical, and states mentioned at least three times with the first
// mention early in the body.
func (e *TextExtractor) Extract(body string) domain.AdminSignal {
	text := strings.ToLower(strings.ReplaceAll(body, mojibakeDash, "-"))
	words := whitespace.Split(text, -1)

	var matches []textMatch

	lead := strings.Join(words[:min(leadingWords, len(words))], " ")
	for _, m := range datelinePattern.FindAllStringSubmatch(lead, -1) {
		for _, state := range e.states.Resolve(strings.TrimSpace(m[2])) {
			matches = append(matches, textMatch{state: state, place: domain.PlaceBeginning, count: 1})
		}
	}

	for _, name := range e.names {
		freq, first := countWords(words, name)
		if freq >= minStateFreq && first < maxFirstStateAt {
			matches = append(matches, textMatch{state: strings.Join(name, " "), place: domain.PlaceBody, count: freq})
		}
	}

	out := domain.AdminSignal{}
	for _, m := range matches {
		props := out[m.state]
		props.Place = append(props.Place, m.place)
		props.Count += m.count
		out[m.state] = props
	}
	return out
}

// countWords counts exact token-sequence occurrences of name in words and
// returns the index of the first one, or -1.
func countWords(words, name []string) (count, first int) {
	first = -1
	for i := 0; i+len(name) <= len(words); i++ {
		match := true
		for j, w := range name {
			if words[i+j] != w {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if first < 0 {
			first = i
		}
		count++
		i += len(name) - 1
	}
	return count, first
}
