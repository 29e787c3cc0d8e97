package parser

import (
	"strings"

	"github.com/pbaille/pyq/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// normalize folds Unicode compatibility forms and whitespace runs so that
// copies of a question from different papers compare equal.
func normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFKC.String(s)
}

// dedupe keeps the first occurrence of every question across all units,
// in the order the model listed them. Blank entries are dropped.
func dedupe(units []unit) domain.OrganizedResult {
	seen := make(map[string]struct{})
	result := make(domain.OrganizedResult, len(units))
	for _, u := range units {
		kept := make([]string, 0, len(u.questions))
		for _, q := range u.questions {
			key := normalize(q)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			kept = append(kept, strings.TrimSpace(q))
		}
		result[u.name] = kept
	}
	return result
}
