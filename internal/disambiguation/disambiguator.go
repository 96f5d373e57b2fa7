// Package disambiguation picks one admin area for location names shared by
// several states.
package disambiguation

import (
	"regexp"
	"strings"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/evidence"
)

const (
	AlgorithmSelfMatch  = "SelfMatch"
	InclusionTestPrefix = "InclusionTest:"
)

// Outcome of a candidate.
type Outcome string

const (
	OutcomeSelfMatch Outcome = "self_match"
	OutcomeResolved  Outcome = "resolved"
	OutcomeTie       Outcome = "tie"
	OutcomeNoSignal  Outcome = "no_signal"
	OutcomeVerbatim  Outcome = "verbatim"
)

// StateAliases lists the short forms of a lower-cased state name.
type StateAliases interface {
	Aliases(full string) []string
}

// Observer counts outcomes.
type Observer interface {
	ObserveDisambiguation(outcome string)
}

// Disambiguator resolves ambiguity groups. It is safe for concurrent use.
type Disambiguator struct {
	aliases  StateAliases
	observer Observer
	log      logger.Logger
}

// New creates a Disambiguator. observer may be nil.
func New(aliases StateAliases, observer Observer, log logger.Logger) *Disambiguator {
	return &Disambiguator{aliases: aliases, observer: observer, log: log}
}

// Resolve returns the surviving candidates. Admin areas and countries match
// themselves. Other candidates sharing name and type form a group; the group
// keeps the member in the winning admin area, or nothing on a tie.
// Winning features are also written to the evidence scratch space.
func (d *Disambiguator) Resolve(body string, ev *evidence.Evidence, candidates []domain.LocationCandidate) []domain.LocationCandidate {
	lowerText := strings.ToLower(body)
	grouped := make([]bool, len(candidates))
	out := make([]domain.LocationCandidate, 0, len(candidates))

	for i := range candidates {
		if grouped[i] {
			continue
		}
		c := candidates[i]

		var resolved domain.LocationCandidate
		switch {
		case c.LocationType == domain.AdminArea || c.LocationType == domain.Country:
			resolved = c
			resolved.Algorithm = AlgorithmSelfMatch
			resolved.Features = map[string]domain.AdminFeatures{}
			d.observe(OutcomeSelfMatch)

		case len(c.AddressComponents) == 0 && strings.Contains(body, strings.ToLower(c.LocationName)):
			d.log.Debug("Candidate named verbatim in text, skipping",
				logger.String("candidate", c.Key()),
			)
			d.observe(OutcomeVerbatim)
			continue

		default:
			var ok bool
			resolved, ok = d.resolveGroup(candidates, i, grouped, lowerText, ev)
			if !ok {
				continue
			}
		}

		if c.InclusionTest {
			resolved.Algorithm = InclusionTestPrefix + resolved.Algorithm
		}
		out = append(out, resolved)
	}
	return out
}

func (d *Disambiguator) resolveGroup(
	candidates []domain.LocationCandidate,
	start int,
	grouped []bool,
	lowerText string,
	ev *evidence.Evidence,
) (domain.LocationCandidate, bool) {
	c := candidates[start]
	key := c.Key()

	var admins []string
	owner := make(map[string]int)
	for j := start; j < len(candidates); j++ {
		m := &candidates[j]
		if m.Key() != key || len(m.AddressComponents) == 0 {
			continue
		}
		grouped[j] = true
		for _, ac := range m.AddressComponents {
			if ac.LocationType != domain.AdminArea {
				continue
			}
			if _, seen := owner[ac.LocationName]; !seen {
				owner[ac.LocationName] = j
				admins = append(admins, ac.LocationName)
			}
		}
	}

	if len(admins) == 0 {
		d.log.Debug("No admin area hypothesis for candidate", logger.String("candidate", key))
		d.observe(OutcomeNoSignal)
		return domain.LocationCandidate{}, false
	}

	features := d.Featurize(c.LocationName, admins, ev, lowerText)
	decision := Decide(admins, features)
	if decision.Winner == "" {
		d.log.Info("DisambiguationTie: current rules cannot resolve candidate",
			logger.String("candidate", key),
			logger.Any("tied", decision.Tied),
		)
		d.observe(OutcomeTie)
		return domain.LocationCandidate{}, false
	}

	resolved := candidates[owner[decision.Winner]]
	resolved.Algorithm = decision.Algorithm
	resolved.Features = map[string]domain.AdminFeatures{decision.Winner: features[decision.Winner]}
	if merged, ok := ev.Merged[strings.ToLower(decision.Winner)]; ok {
		merged.Scratch[key] = features[decision.Winner]
	}
	d.observe(OutcomeResolved)
	return resolved, true
}

// Featurize collects the evidence for each admin-area hypothesis of name.
// lowerText must be lower-cased.
func (d *Disambiguator) Featurize(name string, admins []string, ev *evidence.Evidence, lowerText string) map[string]domain.AdminFeatures {
	out := make(map[string]domain.AdminFeatures, len(admins))
	for _, admin := range admins {
		adminLower := strings.ToLower(admin)

		var f domain.AdminFeatures
		for _, p := range ExplicitPatterns(name, adminLower, d.aliases) {
			if p.MatchString(lowerText) {
				f.SpecificMention = true
				break
			}
		}
		if merged, ok := ev.Merged[adminLower]; ok {
			f.FromURL = merged.URL != nil
			f.FromPublisher = merged.Publisher != nil
			f.FromText = merged.Text != nil
			if merged.Stat != nil {
				f.StatCount = merged.Stat.Count
			}
		}
		out[admin] = f
	}
	return out
}

// aliasesWithoutComma are short forms that are also English words, so the
// comma before them is required.
var aliasesWithoutComma = map[string]bool{"or": true, "in": true}

// ExplicitPatterns matches "name, alias" for every alias of a lower-cased
// state, including the state name itself.
func ExplicitPatterns(name, adminLower string, aliases StateAliases) []*regexp.Regexp {
	escapedName := regexp.QuoteMeta(strings.ToLower(name))
	all := append(append([]string{}, aliases.Aliases(adminLower)...), adminLower)

	out := make([]*regexp.Regexp, 0, len(all))
	for _, alias := range all {
		comma := ",?"
		if aliasesWithoutComma[alias] {
			comma = ","
		}
		out = append(out, regexp.MustCompile(escapedName+comma+" "+regexp.QuoteMeta(alias)))
	}
	return out
}

func (d *Disambiguator) observe(o Outcome) {
	if d.observer != nil {
		d.observer.ObserveDisambiguation(string(o))
	}
}
