// Package features computes the classifier feature vector of each
// disambiguated candidate.
package features

import (
	"errors"
	"sort"
	"strings"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/disambiguation"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// Feature names. The classifier receives values sorted by name.
const (
	AllCapFirstPos      = "ALL_CAP_FIRST_POS"
	AllCapFreq          = "ALL_CAP_FREQ"
	Context             = "CONTEXT"
	CoOccurrence        = "CO_OCCURANCE"
	FirstPos            = "FIRST_POS"
	FirstPos100         = "FIRST_POS_100"
	Freq                = "FREQ"
	Freq100             = "FREQ_100"
	FromGoog            = "FROM_GOOG"
	FromPub             = "FROM_PUB"
	FromText            = "FROM_TEXT"
	IsLowerCase         = "IS_LOWER_CASE"
	Placeline           = "PLACELINE"
	StateAllCapFirstPos = "STATE_ALL_CAP_FIRST_POS"
	StateAllCapFreq     = "STATE_ALL_CAP_FREQ"
	StateExists         = "STATE_EXISTS"
	StateFirstPos       = "STATE_FIRST_POS"
	StateFreq           = "STATE_FREQ"
	Title               = "TITLE"
)

// prefixWindow is the token window of the *_100 features.
const prefixWindow = 100

var contextDashes = []string{"—", "-", "–", "--"}

var errEmptyBody = errors.New("empty body")

// PlacelineDetector finds the article placeline.
type PlacelineDetector interface {
	Detect(doc string) string
}

// Builder computes feature vectors. It is safe for concurrent use.
type Builder struct {
	placeline PlacelineDetector
	aliases   disambiguation.StateAliases
	log       logger.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(placeline PlacelineDetector, aliases disambiguation.StateAliases, log logger.Logger) *Builder {
	return &Builder{placeline: placeline, aliases: aliases, log: log}
}

// document is an article tokenized once per request.
type document struct {
	title     string
	body      []string
	bodyText  string
	lowerBody string
	placeline string
}

func (b *Builder) prepare(title, body string) *document {
	toks := Tokenize(body)
	return &document{
		title:     " " + strings.Join(Tokenize(title), " ") + " ",
		body:      toks,
		bodyText:  " " + strings.Join(toks, " ") + " ",
		lowerBody: strings.ToLower(body),
		placeline: b.placeline.Detect(body),
	}
}

func (d *document) inBody(target string) bool {
	return strings.Contains(d.bodyText, " "+target+" ")
}

func (d *document) inTitle(target string) bool {
	return strings.Contains(d.title, " "+target+" ")
}

// Build annotates each candidate with its combo name and feature vector.
// Candidates without a usable hierarchy are dropped. In train mode every
// candidate also gets a ground-truth label: 1 when its combo name equals
// label.
func (b *Builder) Build(
	sequence domain.ID,
	title, body string,
	candidates []domain.LocationCandidate,
	label string,
	mode domain.Mode,
) []domain.LocationCandidate {
	if mode == domain.ModeTrain && label == "" {
		b.log.Error("No ground truth label in train mode", logger.String("sequence", string(sequence)))
	}

	doc := b.prepare(title, body)
	out := make([]domain.LocationCandidate, 0, len(candidates))
	for _, c := range candidates {
		fields, err := c.Hierarchy()
		if err != nil {
			b.log.Warn("Skipping candidate",
				logger.String("sequence", string(sequence)),
				logger.String("candidate", c.Key()),
				logger.Error(err),
			)
			continue
		}

		values, err := b.compute(doc, &c, fields)
		if err != nil {
			b.log.Error("Feature extraction failed",
				logger.String("sequence", string(sequence)),
				logger.String("candidate", c.Key()),
				logger.Error(err),
			)
			continue
		}

		c.ComboName = strings.Join(fields, "/")
		c.FilterFeatures = sortedVector(values)
		if mode == domain.ModeTrain {
			gt := 0
			if c.ComboName == label {
				gt = 1
			}
			c.FilterFeatures.GT = &gt
		}
		out = append(out, c)
	}
	return out
}

func (b *Builder) compute(doc *document, c *domain.LocationCandidate, fields []string) (map[string]float64, error) {
	docLen := float64(len(doc.body))
	if docLen == 0 {
		return nil, errEmptyBody
	}

	combo := strings.Join(fields, "/")
	target := fields[0]
	state := fields[len(fields)-1]
	first100 := doc.body[:min(prefixWindow, len(doc.body))]

	f := map[string]float64{
		Placeline: boolValue(doc.placeline != "" && doc.placeline == combo),
		FromText:  boolValue(c.Source == domain.SourceWikiMatch),
		FromPub:   boolValue(c.Source == domain.SourceLocalPublisher),
		FromGoog:  boolValue(c.Source != domain.SourceWikiMatch && c.Source != domain.SourceLocalPublisher),
		Title:     boolValue(doc.inTitle(target)),

		Freq:           float64(CountOccurrences(target, doc.body)) / docLen,
		FirstPos:       float64(FirstOccurrence(target, doc.body)) / docLen,
		AllCapFreq:     float64(CountOccurrences(strings.ToUpper(target), doc.body)) / docLen,
		AllCapFirstPos: float64(FirstOccurrence(strings.ToUpper(target), doc.body)) / docLen,
		Context:        boolValue(HasContext(target, contextDashes, doc.body)),
		Freq100:        float64(CountOccurrences(target, first100)) / prefixWindow,
		FirstPos100:    float64(FirstOccurrence(target, first100)) / prefixWindow,
		IsLowerCase:    boolValue(doc.inBody(strings.ToLower(target))),

		StateExists:         boolValue(doc.inBody(state)),
		StateFreq:           float64(CountOccurrences(state, doc.body)) / docLen,
		StateFirstPos:       float64(FirstOccurrence(state, doc.body)) / docLen,
		StateAllCapFreq:     float64(CountOccurrences(strings.ToUpper(state), doc.body)) / docLen,
		StateAllCapFirstPos: float64(FirstOccurrence(strings.ToUpper(state), doc.body)) / docLen,
	}

	coOccurs := false
	for _, p := range disambiguation.ExplicitPatterns(target, strings.ToLower(state), b.aliases) {
		if p.MatchString(doc.lowerBody) {
			coOccurs = true
			break
		}
	}
	f[CoOccurrence] = boolValue(coOccurs)

	return f, nil
}

func sortedVector(values map[string]float64) *domain.FilterFeatures {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	out := &domain.FilterFeatures{Names: names, Values: make([]float64, len(names))}
	for i, name := range names {
		out.Values[i] = values[name]
	}
	return out
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
