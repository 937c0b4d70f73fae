package auth

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Whitelist decides which request paths are served without
// authentication. Three rule kinds exist:
//
//   - exact:   "/api/login" — matches with or without a trailing slash
//   - prefix:  "/static/*"  — the trailing * is stripped, the rest is a
//     path prefix
//   - pattern: "^/media/"   — rules starting with ^ are regular
//     expressions
//
// Rules are evaluated in list order and the first match wins; if two
// rules disagree, the earliest listed governs. OPTIONS requests are
// always exempt so CORS pre-flights work against protected paths.
//
// The rule list is fixed at construction. A Whitelist is safe for
// concurrent use.
type Whitelist struct {
	rules []rule
}

type rule struct {
	exact   string
	prefix  string
	pattern *regexp.Regexp
}

func (r rule) matches(path, normalized string) bool {
	switch {
	case r.pattern != nil:
		return r.pattern.MatchString(path)
	case r.prefix != "":
		return strings.HasPrefix(path, r.prefix)
	default:
		return normalized == r.exact
	}
}

func NewWhitelist(rules []string) (*Whitelist, error) {
	w := &Whitelist{rules: make([]rule, 0, len(rules))}
	for _, raw := range rules {
		switch {
		case strings.HasPrefix(raw, "^"):
			re, err := regexp.Compile(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid whitelist pattern %q: %w", raw, err)
			}
			w.rules = append(w.rules, rule{pattern: re})
		case strings.HasSuffix(raw, "*"):
			w.rules = append(w.rules, rule{prefix: strings.TrimSuffix(raw, "*")})
		default:
			w.rules = append(w.rules, rule{exact: normalizePath(raw)})
		}
	}
	return w, nil
}

// IsExempt reports whether the request may skip authentication.
func (w *Whitelist) IsExempt(method, path string) bool {
	if method == http.MethodOptions {
		return true
	}
	normalized := normalizePath(path)
	for _, r := range w.rules {
		if r.matches(path, normalized) {
			return true
		}
	}
	return false
}

// normalizePath drops a trailing slash so "/api/login" and "/api/login/"
// compare equal.
func normalizePath(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return strings.TrimRight(p, "/")
	}
	return p
}
