// Package evidence merges per-source admin-area signals into one scored
// structure per article.
package evidence

import (
	"sort"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// Stat weights.
const (
	WeightAdminArea = 5.0
	WeightTrusted   = 2.5
	WeightQueued    = 1.0
)

// Source names used in the merged map.
const (
	SourceURL       = "url"
	SourcePublisher = "publisher"
	SourceText      = "text"
	SourceStat      = "stat"
)

// StatProps is the weighted candidate count for one admin area.
type StatProps struct {
	Count    float64 `json:"count"`
	Salience float64 `json:"salience"`
}

// AdminEvidence is everything known about one admin area. Nil sources did
// not mention it.
type AdminEvidence struct {
	URL       *domain.SignalProps `json:"url,omitempty"`
	Publisher *domain.SignalProps `json:"publisher,omitempty"`
	Text      *domain.SignalProps `json:"text,omitempty"`
	Stat      *StatProps          `json:"stat,omitempty"`
	// Scratch is annotation space for later stages, keyed by candidate.
	Scratch map[string]domain.AdminFeatures `json:"_features"`
}

// Sources lists the source names that mention the admin area, in merge order.
func (a *AdminEvidence) Sources() []string {
	var out []string
	if a.URL != nil {
		out = append(out, SourceURL)
	}
	if a.Publisher != nil {
		out = append(out, SourcePublisher)
	}
	if a.Text != nil {
		out = append(out, SourceText)
	}
	if a.Stat != nil {
		out = append(out, SourceStat)
	}
	return out
}

// Evidence is the per-source and merged admin-area evidence for an article.
// Admin-area keys are lower-cased.
type Evidence struct {
	URL       domain.AdminSignal        `json:"url"`
	Publisher domain.AdminSignal        `json:"publisher"`
	Text      domain.AdminSignal        `json:"text"`
	Stat      map[string]StatProps      `json:"stat"`
	Merged    map[string]*AdminEvidence `json:"merged"`
}

// Admins returns the merged admin areas in sorted order.
func (e *Evidence) Admins() []string {
	out := make([]string, 0, len(e.Merged))
	for admin := range e.Merged {
		out = append(out, admin)
	}
	sort.Strings(out)
	return out
}

// Waiting reports whether a name:type key is queued for disambiguation.
type Waiting interface {
	Waiting(key string) bool
}

// Stats weighs every candidate towards its admin area: admin areas count 5,
// Google entities and unqueued candidates 2.5, queued candidates 1.
// Candidates without an admin area are skipped.
func Stats(candidates []domain.LocationCandidate, queue Waiting) map[string]StatProps {
	out := make(map[string]StatProps)
	for i := range candidates {
		c := &candidates[i]
		admin, ok := c.AdminAreaKey()
		if !ok {
			continue
		}

		var weight float64
		switch {
		case c.LocationType == domain.AdminArea:
			weight = WeightAdminArea
		case c.Source == domain.SourceGoogleEntity || !queue.Waiting(c.Key()):
			weight = WeightTrusted
		default:
			weight = WeightQueued
		}

		s := out[admin]
		s.Count += weight
		s.Salience += c.Salience
		out[admin] = s
	}
	return out
}

// Merge combines the sources into one map keyed by admin area. Every merged
// entry gets an empty scratch map.
func Merge(url, publisher, text domain.AdminSignal, stat map[string]StatProps) *Evidence {
	e := &Evidence{
		URL:       orEmpty(url),
		Publisher: orEmpty(publisher),
		Text:      orEmpty(text),
		Stat:      stat,
		Merged:    make(map[string]*AdminEvidence),
	}
	if e.Stat == nil {
		e.Stat = make(map[string]StatProps)
	}

	entry := func(admin string) *AdminEvidence {
		a, ok := e.Merged[admin]
		if !ok {
			a = &AdminEvidence{Scratch: make(map[string]domain.AdminFeatures)}
			e.Merged[admin] = a
		}
		return a
	}

	for admin, props := range e.URL {
		entry(admin).URL = &props
	}
	for admin, props := range e.Publisher {
		entry(admin).Publisher = &props
	}
	for admin, props := range e.Text {
		entry(admin).Text = &props
	}
	for admin, props := range e.Stat {
		entry(admin).Stat = &props
	}
	return e
}

func orEmpty(s domain.AdminSignal) domain.AdminSignal {
	if s == nil {
		return domain.AdminSignal{}
	}
	return s
}
