package retrieval

import "github.com/jonesrussell/north-cloud/geotagger/internal/domain"

// minCompetingAdmins is the number of distinct admin areas that makes a
// (name, type) pair ambiguous.
const minCompetingAdmins = 2

// Queue splits candidates into those that need disambiguation and those
// that do not.
type Queue struct {
	NoNeed []domain.LocationCandidate
	Need   []domain.LocationCandidate
	// Admins holds, per queued name:type key, the competing admin areas.
	Admins map[string]map[string]bool
}

// NewQueue applies the queueing policy. Publisher, feature and Google
// candidates are trusted and deduplicated by name. Keyword-matched
// localities and counties compete when their name maps to two or more admin
// areas.
func NewQueue(publisher, features, google, text []domain.LocationCandidate) Queue {
	q := Queue{Admins: make(map[string]map[string]bool)}
	seen := make(map[string]bool)

	for _, group := range [][]domain.LocationCandidate{publisher, features, google} {
		for _, c := range group {
			if seen[c.LocationName] {
				continue
			}
			seen[c.LocationName] = true
			q.NoNeed = append(q.NoNeed, c)
		}
	}

	var waiting []domain.LocationCandidate
	for _, c := range text {
		if seen[c.LocationName] {
			continue
		}
		if !c.LocationType.NeedsAdminArea() {
			q.NoNeed = append(q.NoNeed, c)
			continue
		}
		waiting = append(waiting, c)
		key := c.Key()
		if q.Admins[key] == nil {
			q.Admins[key] = make(map[string]bool)
		}
		for _, ac := range c.AddressComponents {
			if ac.LocationType == domain.AdminArea {
				q.Admins[key][ac.LocationName] = true
			}
		}
	}

	for _, c := range waiting {
		key := c.Key()
		if len(q.Admins[key]) >= minCompetingAdmins {
			q.Need = append(q.Need, c)
			continue
		}
		delete(q.Admins, key)
		q.NoNeed = append(q.NoNeed, c)
	}
	return q
}

// Waiting reports whether the name:type key was queued for disambiguation.
func (q Queue) Waiting(key string) bool {
	_, ok := q.Admins[key]
	return ok
}
