package workflow

import (
	"fmt"
	"strings"
)

// Family selects which group of templates a model is generated with.
type Family string

const (
	FamilyLocal    Family = "local"
	FamilyDalle    Family = "dalle"
	FamilyBfl      Family = "bfl"
	FamilyIdeogram Family = "ideogram"
)

func ParseFamily(s string) (Family, error) {
	switch f := Family(strings.ToLower(strings.TrimSpace(s))); f {
	case FamilyLocal, FamilyDalle, FamilyBfl, FamilyIdeogram:
		return f, nil
	}
	return "", fmt.Errorf("unknown model family %q", s)
}

// Rule matches a model by exact Name or by case-insensitive Contains.
type Rule struct {
	Name     string
	Contains string
	Family   Family
}

// DefaultRules reproduce the built-in routing when no rules are configured.
var DefaultRules = []Rule{
	{Name: "dall-e-3", Family: FamilyDalle},
	{Name: "dall-e-2", Family: FamilyDalle},
	{Name: "flux-pro", Family: FamilyBfl},
	{Name: "flux-dev", Family: FamilyBfl},
	{Contains: "ideogram", Family: FamilyIdeogram},
}

type Router struct {
	exact    map[string]Family
	contains []Rule
}

// NewRouter builds a registry from rules, falling back to DefaultRules when empty.
func NewRouter(rules []Rule) *Router {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	r := &Router{exact: map[string]Family{}}
	for _, rule := range rules {
		switch {
		case rule.Name != "":
			if _, dup := r.exact[rule.Name]; !dup {
				r.exact[rule.Name] = rule.Family
			}
		case rule.Contains != "":
			r.contains = append(r.contains, Rule{Contains: strings.ToLower(rule.Contains), Family: rule.Family})
		}
	}
	return r
}

// Route returns the family for model. Exact names win over substring rules; unmatched models are local.
func (r *Router) Route(model string) Family {
	if family, ok := r.exact[model]; ok {
		return family
	}
	lowered := strings.ToLower(model)
	for _, rule := range r.contains {
		if strings.Contains(lowered, rule.Contains) {
			return rule.Family
		}
	}
	return FamilyLocal
}
