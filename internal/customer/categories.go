package customer

import (
	"encoding/json"
	"slices"
	"strings"
)

// CategorySet is the parsed form of the interest-category field. Membership is
// tested on whole tokens, never by substring.
type CategorySet map[string]struct{}

// ParseCategories turns "[KADIN, AKTIFSPOR]" (brackets and quotes optional)
// into a set of upper-cased tokens.
func ParseCategories(raw string) CategorySet {
	set := CategorySet{}
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")

	for _, tok := range strings.Split(raw, ",") {
		tok = strings.Trim(strings.TrimSpace(tok), `"'`)
		if tok == "" {
			continue
		}
		set[strings.ToUpper(tok)] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the category.
func (s CategorySet) Has(category string) bool {
	_, ok := s[strings.ToUpper(category)]
	return ok
}

// HasAll reports whether every category is present. An empty list matches.
func (s CategorySet) HasAll(categories ...string) bool {
	for _, c := range categories {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Sorted returns the categories in lexical order.
func (s CategorySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// String renders the set in the dataset's list syntax.
func (s CategorySet) String() string {
	return "[" + strings.Join(s.Sorted(), ", ") + "]"
}

func (s CategorySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}
