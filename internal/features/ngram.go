package features

import "strings"

// matchAt reports whether target occurs in toks at position i.
func matchAt(toks, target []string, i int) bool {
	if i+len(target) > len(toks) {
		return false
	}
	for j, t := range target {
		if toks[i+j] != t {
			return false
		}
	}
	return true
}

// CountOccurrences counts non-overlapping occurrences of the space-separated
// token sequence target in toks.
func CountOccurrences(target string, toks []string) int {
	trg := strings.Split(target, " ")
	n := 0
	for i := 0; i < len(toks); {
		if matchAt(toks, trg, i) {
			n++
			i += len(trg)
			continue
		}
		i++
	}
	return n
}

// FirstOccurrence returns the token index of the first occurrence of target
// in toks, or -1.
func FirstOccurrence(target string, toks []string) int {
	trg := strings.Split(target, " ")
	for i := range toks {
		if matchAt(toks, trg, i) {
			return i
		}
	}
	return -1
}

// ExistsInText reports whether target occurs in toks on token boundaries.
func ExistsInText(target string, toks []string) bool {
	return strings.Contains(" "+strings.Join(toks, " ")+" ", " "+target+" ")
}

// HasContext reports whether target is directly preceded or followed by one
// of contexts.
func HasContext(target string, contexts, toks []string) bool {
	for _, c := range contexts {
		if ExistsInText(c+" "+target, toks) || ExistsInText(target+" "+c, toks) {
			return true
		}
	}
	return false
}
