package reftables

import (
	"io"
	"strings"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// SameNameLocations indexes locations by name so that candidates can find
// their namesakes in other states.
type SameNameLocations struct {
	byName map[string][]domain.SameNameLocation
}

// ParseSameNameLocations reads an "id\tname\tadmin_area" file with a header
// line. Admin areas are lower-cased.
func ParseSameNameLocations(r io.Reader) (*SameNameLocations, error) {
	s := &SameNameLocations{byName: make(map[string][]domain.SameNameLocation)}

	err := eachRecord(r, true, func(fields []string) {
		if len(fields) < 2 {
			return
		}
		loc := domain.SameNameLocation{ID: domain.ID(fields[0]), Name: fields[1]}
		if len(fields) > 2 {
			loc.AdminArea = strings.ToLower(fields[2])
		}
		s.byName[loc.Name] = append(s.byName[loc.Name], loc)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Others returns locations named name, or name without a " County" suffix,
// whose id differs from excludeID.
func (s *SameNameLocations) Others(name string, excludeID domain.ID) []domain.SameNameLocation {
	names := []string{name}
	if trimmed := strings.ReplaceAll(name, " County", ""); trimmed != name {
		names = append(names, trimmed)
	}

	var out []domain.SameNameLocation
	for _, n := range names {
		for _, loc := range s.byName[n] {
			if loc.ID != excludeID {
				out = append(out, loc)
			}
		}
	}
	return out
}
