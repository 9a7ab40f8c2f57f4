package segment

import (
	"fmt"
	"slices"
	"sort"

	"cltv-rfm/internal/features"
)

// Rule selects customers in any of Segments who are interested in all Categories.
type Rule struct {
	Name       string    `json:"name" yaml:"name"`
	Segments   []Segment `json:"segments" yaml:"segments"`
	Categories []string  `json:"categories" yaml:"categories"`
}

var (
	// NewBrandRule targets loyal, high-value customers interested in women's products.
	NewBrandRule = Rule{
		Name:       "new_brand",
		Segments:   []Segment{Champions, LoyalCustomers},
		Categories: []string{"KADIN"},
	}
	// DiscountRule targets lapsing or new customers shopping for men's and children's products.
	DiscountRule = Rule{
		Name:       "discount",
		Segments:   []Segment{CantLoose, Hibernating, NewCustomers},
		Categories: []string{"ERKEK", "COCUK"},
	}
)

var rules = map[string]Rule{
	NewBrandRule.Name: NewBrandRule,
	DiscountRule.Name: DiscountRule,
}

// LookupRule returns a built-in rule by name.
func LookupRule(name string) (Rule, error) {
	r, ok := rules[name]
	if !ok {
		return Rule{}, fmt.Errorf("unknown target rule %q (available: %v)", name, RuleNames())
	}
	return r, nil
}

// RuleNames returns the names of the built-in rules in lexical order.
func RuleNames() []string {
	names := make([]string, 0, len(rules))
	for n := range rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Targets returns the ids of customers matching the rule, in assignment order.
// Category matching is set membership on the parsed category list.
func Targets(assignments []Assignment, customers []features.Customer, rule Rule) []string {
	byID := make(map[string]features.Customer, len(customers))
	for _, c := range customers {
		byID[c.MasterID] = c
	}

	var ids []string
	for _, a := range assignments {
		if !slices.Contains(rule.Segments, a.Segment) {
			continue
		}
		c, ok := byID[a.ID]
		if !ok || !c.Categories.HasAll(rule.Categories...) {
			continue
		}
		ids = append(ids, a.ID)
	}
	return ids
}
