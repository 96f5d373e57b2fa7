// Package retrieval extracts admin-area signals and location candidates from
// an article.
package retrieval

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// StateNames lists lower-cased full state names.
type StateNames interface {
	FullNames() []string
}

// URLExtractor reads a state name out of the article URL path.
type URLExtractor struct {
	states [][]string
}

// NewURLExtractor splits every state name into words once.
func NewURLExtractor(states StateNames) *URLExtractor {
	e := &URLExtractor{}
	for _, name := range states.FullNames() {
		e.states = append(e.states, strings.Fields(name))
	}
	return e
}

// Extract returns the first state named in the URL path. A state followed by
// "city" or "county" names a place, not the state, and yields nothing.
func (e *URLExtractor) Extract(rawURL string) domain.AdminSignal {
	if rawURL == "" {
		return domain.AdminSignal{}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.AdminSignal{}
	}

	path := strings.ToLower(u.Path)
	path = strings.NewReplacer("_", "/", "-", "/").Replace(path)
	toks := strings.Split(path, "/")

	for i := range toks {
		words := e.stateAt(toks, i)
		if words == nil {
			continue
		}
		next := i + len(words)
		if next < len(toks) && (toks[next] == "city" || toks[next] == "county") {
			return domain.AdminSignal{}
		}
		return domain.AdminSignal{strings.Join(words, " "): {}}
	}
	return domain.AdminSignal{}
}

// stateAt returns the longest state name whose words start at toks[i].
func (e *URLExtractor) stateAt(toks []string, i int) []string {
	var best []string
	for _, words := range e.states {
		if len(words) <= len(best) || i+len(words) > len(toks) {
			continue
		}
		match := true
		for j, w := range words {
			if toks[i+j] != w {
				match = false
				break
			}
		}
		if match {
			best = words
		}
	}
	return best
}
