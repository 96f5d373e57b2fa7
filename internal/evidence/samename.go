package evidence

import (
	"strings"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// sourceGoogle marks the admin area a candidate already carries.
const sourceGoogle = "google"

// SameNameIndex finds other locations sharing a name.
type SameNameIndex interface {
	Others(name string, excludeID domain.ID) []domain.SameNameLocation
}

// SameNameAdmins explains which admin areas could host c: its own admin
// area, plus every merged admin area with another location of the same
// name.
func (e *Evidence) SameNameAdmins(c *domain.LocationCandidate, index SameNameIndex) domain.AdminCandidateDebug {
	possible := make(map[string][]string)
	if own, ok := c.AdminAreaKey(); ok {
		possible[own] = []string{sourceGoogle}
	}

	others := index.Others(c.LocationName, c.LocationID)
	hosts := make(map[string]bool, len(others))
	for _, loc := range others {
		hosts[strings.ToLower(loc.AdminArea)] = true
	}

	for _, admin := range e.Admins() {
		if _, own := possible[admin]; !own && !hosts[admin] {
			continue
		}
		possible[admin] = append(possible[admin], e.Merged[admin].Sources()...)
	}

	if others == nil {
		others = []domain.SameNameLocation{}
	}
	return domain.AdminCandidateDebug{
		Candidate:         c.Key(),
		PossibleAdmins:    possible,
		SameNameLocations: others,
	}
}
