package odx

import "sort"

// DuplicateParamIDs reports every parameter identifier that occurs more
// than once across the given parameter trees. Identifiers are composed
// from structural paths, so a duplicate means two parameters occupy the
// same path, which downstream consumers cannot distinguish.
func DuplicateParamIDs(params []*Param) []string {
	counts := make(map[string]int)
	// Flattened lists repeat children at the top level; counting by
	// pointer keeps each parameter to one vote either way.
	seen := make(map[*Param]bool)
	var walk func(ps []*Param)
	walk = func(ps []*Param) {
		for _, p := range ps {
			if seen[p] {
				continue
			}
			seen[p] = true
			counts[p.ID]++
			walk(p.Children)
		}
	}
	walk(params)

	var out []string
	for id, n := range counts {
		if n > 1 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
