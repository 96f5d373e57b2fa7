package reftables

import (
	"io"
	"slices"
	"strings"
)

const alternativeSep = " ||| "

// NameAmbiguity maps place names to the states that have a place by that
// name.
type NameAmbiguity struct {
	states map[string][]string
}

// ParseNameAmbiguity reads "name\tPlace, State ||| Place, State" lines.
func ParseNameAmbiguity(r io.Reader) (*NameAmbiguity, error) {
	na := &NameAmbiguity{states: make(map[string][]string)}

	err := eachRecord(r, false, func(fields []string) {
		if len(fields) != 2 {
			return
		}
		alternatives := strings.Split(fields[1], alternativeSep)
		states := make([]string, 0, len(alternatives))
		for _, alt := range alternatives {
			states = append(states, stateOf(alt))
		}
		na.states[fields[0]] = states
	})
	if err != nil {
		return nil, err
	}
	return na, nil
}

// stateOf keeps the state of a "Place, State" alternative.
func stateOf(alt string) string {
	parts := strings.Split(alt, ", ")
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(alt)
}

func (n *NameAmbiguity) Has(name string) bool {
	_, ok := n.states[name]
	return ok
}

// IsUnambiguous reports whether exactly one state has a place called name.
func (n *NameAmbiguity) IsUnambiguous(name string) bool {
	return len(n.states[name]) == 1
}

// UnambiguousState returns the only state for name.
func (n *NameAmbiguity) UnambiguousState(name string) (string, bool) {
	if !n.IsUnambiguous(name) {
		return "", false
	}
	return n.states[name][0], true
}

func (n *NameAmbiguity) HasNameAndState(name, state string) bool {
	return slices.Contains(n.states[name], state)
}
