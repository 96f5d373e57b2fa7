package reftables

import (
	"io"
	"slices"
	"strings"
)

// USStates maps lower-cased state names to their short forms (postal and
// AP abbreviations) and back.
type USStates struct {
	fullToShort map[string][]string
	shortToFull map[string][]string
	full        []string
}

// ParseUSStates reads "name\tshort" lines, one per short form.
func ParseUSStates(r io.Reader) (*USStates, error) {
	us := &USStates{
		fullToShort: make(map[string][]string),
		shortToFull: make(map[string][]string),
	}

	err := eachRecord(r, false, func(fields []string) {
		if len(fields) != 2 {
			return
		}
		full, short := strings.ToLower(fields[0]), strings.ToLower(fields[1])
		if _, seen := us.fullToShort[full]; !seen {
			us.full = append(us.full, full)
		}
		us.fullToShort[full] = append(us.fullToShort[full], short)
		us.shortToFull[short] = append(us.shortToFull[short], full)
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(us.full)
	return us, nil
}

// FullNames returns the lower-cased state names in sorted order. Callers
// must not modify the slice.
func (u *USStates) FullNames() []string {
	return u.full
}

func (u *USStates) IsFull(name string) bool {
	_, ok := u.fullToShort[name]
	return ok
}

// Aliases returns the short forms of a lower-cased state name.
func (u *USStates) Aliases(full string) []string {
	return u.fullToShort[full]
}

// Resolve maps a lower-cased surface form to full state names. It accepts
// full names, short forms, and a two-letter code followed by a period.
func (u *USStates) Resolve(surface string) []string {
	if u.IsFull(surface) {
		return []string{surface}
	}
	if full, ok := u.shortToFull[surface]; ok {
		return full
	}
	if len(surface) == 3 && strings.HasSuffix(surface, ".") {
		return u.Resolve(surface[:2])
	}
	return nil
}
