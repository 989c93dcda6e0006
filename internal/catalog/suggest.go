package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

const maxSuggestions = 3

// Suggest returns up to three candidates that look like a misspelling of name,
// closest first. Comparison ignores case so "ozonesonde" finds "OzoneSonde".
func Suggest(name string, candidates []string) []string {
	if name == "" {
		return nil
	}

	type scored struct {
		name string
		dist int
	}

	lower := strings.ToLower(name)
	limit := max(2, len(name)/3)

	var hits []scored
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if d <= limit {
			hits = append(hits, scored{c, d})
		}
	}

	slices.SortFunc(hits, func(a, b scored) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})

	out := make([]string, 0, min(len(hits), maxSuggestions))
	for _, h := range hits {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, h.name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
