package routing

import (
	"net/http"
	"slices"
	"strings"
)

// Classifier maps request paths to route classes using allowlist rules.
// Paths no rule covers are UI pages.
type Classifier struct {
	rules []AllowlistRule
}

// NewClassifier falls back to the embedded server rules when rules is nil.
func NewClassifier(rules []AllowlistRule) *Classifier {
	if rules == nil {
		rules = DefaultRules("server")
	}
	kept := slices.DeleteFunc(slices.Clone(rules), func(rule AllowlistRule) bool {
		return strings.TrimSpace(rule.Prefix) == ""
	})
	// Longest prefix wins, so /api/ux beats /api and / comes last.
	slices.SortStableFunc(kept, func(a, b AllowlistRule) int {
		return len(b.Prefix) - len(a.Prefix)
	})
	return &Classifier{rules: kept}
}

func (c *Classifier) ClassifyPath(path string) RouteClass {
	for _, rule := range c.rules {
		if underPrefix(path, rule.Prefix) {
			return rule.Class
		}
	}
	return RouteClassUI
}

func (c *Classifier) Classify(r *http.Request) RouteClass {
	return c.ClassifyPath(r.URL.Path)
}

// underPrefix matches whole segments: /api covers /api and /api/ux but
// not /apiary.
func underPrefix(path, prefix string) bool {
	rest, ok := strings.CutPrefix(path, prefix)
	switch {
	case !ok:
		return false
	case rest == "", strings.HasSuffix(prefix, "/"):
		return true
	default:
		return rest[0] == '/'
	}
}
