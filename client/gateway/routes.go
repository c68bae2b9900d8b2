package gateway

import (
	"net/http"
	"strings"
)

// routeRule marks requests matching Method (empty for any) and Prefix as
// public or protected. Rules are evaluated in order; the first match wins.
type routeRule struct {
	Method    string
	Prefix    string
	Protected bool
}

var routeRules = []routeRule{
	{Method: http.MethodPost, Prefix: "/auth/login"},
	{Method: http.MethodPost, Prefix: "/auth/register"},
	{Method: http.MethodGet, Prefix: "/auth/profile/public"},
	{Prefix: "/auth/", Protected: true},
	{Method: http.MethodGet, Prefix: "/projects"},
	{Method: http.MethodGet, Prefix: "/skills"},
	{Method: http.MethodPost, Prefix: "/contact"},
	{Prefix: "/projects", Protected: true},
	{Prefix: "/skills", Protected: true},
	{Prefix: "/contact", Protected: true},
}

// IsProtected reports whether the API requires a bearer token for method and
// path. Unknown paths are treated as public.
func IsProtected(method, path string) bool {
	for _, r := range routeRules {
		if r.Method != "" && r.Method != method {
			continue
		}
		if strings.HasPrefix(path, r.Prefix) {
			return r.Protected
		}
	}
	return false
}
