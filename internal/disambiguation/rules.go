package disambiguation

import (
	"strings"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// Rule scores one admin-area hypothesis. Rules that score zero do not
// contribute their name to the algorithm tag.
type Rule struct {
	Name  string
	Score func(f domain.AdminFeatures) float64
}

const specificMentionScore = 10

// Cascade is the hard-rule list in priority order.
var Cascade = []Rule{
	{Name: "TextSpecificMention", Score: func(f domain.AdminFeatures) float64 { return flag(f.SpecificMention, specificMentionScore) }},
	{Name: "PublisherSupport", Score: func(f domain.AdminFeatures) float64 { return flag(f.FromPublisher, 1) }},
	{Name: "URLSupport", Score: func(f domain.AdminFeatures) float64 { return flag(f.FromURL, 1) }},
	{Name: "TextSupport", Score: func(f domain.AdminFeatures) float64 { return flag(f.FromText, 1) }},
	{Name: "MultipleSameStateLocs", Score: func(f domain.AdminFeatures) float64 { return f.StatCount }},
}

func flag(set bool, score float64) float64 {
	if set {
		return score
	}
	return 0
}

type scored struct {
	admin string
	score float64
	rules []string
}

// Decision is the cascade result for one ambiguity group.
type Decision struct {
	// Winner is empty on a tie.
	Winner    string
	Algorithm string
	// Tied lists the admin areas sharing the top score, with their rule tags.
	Tied map[string]string
}

// Decide runs the cascade over admins in order. The highest total wins;
// equal top totals are a tie.
func Decide(admins []string, features map[string]domain.AdminFeatures) Decision {
	results := make([]scored, 0, len(admins))
	best := 0.0
	for i, admin := range admins {
		s := scored{admin: admin}
		for _, r := range Cascade {
			v := r.Score(features[admin])
			if v == 0 {
				continue
			}
			s.score += v
			s.rules = append(s.rules, r.Name)
		}
		if i == 0 || s.score > best {
			best = s.score
		}
		results = append(results, s)
	}

	var top []scored
	for _, s := range results {
		if s.score == best {
			top = append(top, s)
		}
	}

	if len(top) == 1 {
		return Decision{Winner: top[0].admin, Algorithm: strings.Join(top[0].rules, ",")}
	}

	d := Decision{Tied: make(map[string]string, len(top))}
	for _, s := range top {
		d.Tied[s.admin] = strings.Join(s.rules, ",")
	}
	return d
}
