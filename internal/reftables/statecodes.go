package reftables

import (
	"io"
	"strings"
)

// StateCodes maps state codes as written in datelines ("OH", "Wash.",
// "N.Y.") to state names, and back.
type StateCodes struct {
	codeToName map[string]string
	nameToCode map[string][]string
}

// ParseStateCodes reads "code\tname" lines. Codes containing dots also
// register a spaced and a dotless variant, and every name registers itself
// as a code.
func ParseStateCodes(r io.Reader) (*StateCodes, error) {
	sc := &StateCodes{
		codeToName: make(map[string]string),
		nameToCode: make(map[string][]string),
	}

	err := eachRecord(r, false, func(fields []string) {
		if len(fields) != 2 {
			return
		}
		code, name := fields[0], fields[1]

		codes := []string{code}
		if strings.Contains(code, ".") {
			spaced := strings.TrimSpace(strings.ReplaceAll(code, ".", ". "))
			codes = append(codes, spaced, strings.ReplaceAll(spaced, ".", ""))
		}
		codes = append(codes, name)

		for _, c := range codes {
			if _, ok := sc.codeToName[c]; !ok {
				sc.codeToName[c] = name
			}
			sc.nameToCode[name] = append(sc.nameToCode[name], c)
		}
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// NameOf returns the state name for code.
func (s *StateCodes) NameOf(code string) (string, bool) {
	name, ok := s.codeToName[code]
	return name, ok
}

func (s *StateCodes) HasCode(code string) bool {
	_, ok := s.codeToName[code]
	return ok
}

func (s *StateCodes) HasName(name string) bool {
	_, ok := s.nameToCode[name]
	return ok
}

// CodesOf returns every code registered for name, including name itself.
func (s *StateCodes) CodesOf(name string) []string {
	return s.nameToCode[name]
}
