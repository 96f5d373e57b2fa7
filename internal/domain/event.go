package domain

import "strings"

// Google entity types whose Wikipedia link may resolve to a location.
var geocodableEntityTypes = map[string]bool{
	"LOCATION":     true,
	"PERSON":       true,
	"ORGANIZATION": true,
}

// GoogleEntity is an upstream NLP entity attached to the article.
type GoogleEntity struct {
	Name     string  `json:"name"`
	Salience float64 `json:"salience"`
	WikiURL  string  `json:"wikiURL,omitempty"`
	MID      string  `json:"mid,omitempty"`
	Type     string  `json:"type"`
}

// Geocodable reports whether the entity links to an English Wikipedia page
// and has a type worth geocoding.
func (e GoogleEntity) Geocodable() bool {
	return geocodableEntityTypes[e.Type] && strings.Contains(e.WikiURL, "en.wikipedia.org")
}

// Event is one article to tag.
type Event struct {
	Sequence       ID             `json:"sequence"`
	URL            string         `json:"url"`
	SlimTitle      string         `json:"slimTitle"`
	Body           string         `json:"body"`
	Features       []string       `json:"features"`
	GoogleEntities []GoogleEntity `json:"googleEntities"`
	// Label is the expected combo name, used in train mode.
	Label string `json:"label,omitempty"`
	Debug bool   `json:"debug,omitempty"`
}

// Mode selects how far the pipeline runs.
type Mode string

const (
	ModePredict Mode = "predict"
	// ModeTrain stops after feature extraction and labels each candidate.
	ModeTrain Mode = "train"
)

// AdminCandidateDebug explains which admin areas were considered for a
// candidate sharing its name with other locations.
type AdminCandidateDebug struct {
	Candidate         string              `json:"candidate"`
	PossibleAdmins    map[string][]string `json:"possibleAdmins"`
	SameNameLocations []SameNameLocation  `json:"sameNameLocations"`
}

// TagResult is the response for one event.
type TagResult struct {
	Locations []LocationCandidate   `json:"locations"`
	Features  []string              `json:"features"`
	Debug     []AdminCandidateDebug `json:"debug,omitempty"`
}

// EmptyResult is returned when tagging fails.
func EmptyResult() TagResult {
	return TagResult{Locations: []LocationCandidate{}, Features: []string{}}
}
