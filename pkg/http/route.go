package http

import (
	"net/url"
	"strings"
)

// Route is an endpoint relative to the client base URL, path params use the {name} form.
type Route struct {
	Method string
	URL    string
}

func (r Route) String() string {
	return r.Method + " " + r.URL
}

// MatchesRoute reports whether rawURL addresses route. rawURL may be relative
// to the client base URL or absolute, as resty rewrites it while preparing a request.
func MatchesRoute(rawURL, route string) bool {
	if route == "" {
		return false
	}

	path := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		path = parsed.Path
	}

	return strings.HasSuffix(strings.TrimRight(path, "/"), strings.TrimRight(route, "/"))
}
