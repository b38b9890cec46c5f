package api

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the fixed host the Slowly web client talks to.
const DefaultBaseURL = "https://api.getslowly.com/"

// Route represents a resolved HTTP method and URL for one API call.
// String parameters are percent-encoded before substitution; other
// types are rendered verbatim. A Route is immutable once built.
type Route struct {
	Method string
	Path   string
	URL    string
}

// NewRoute builds a route from a method, a path template and named
// parameters. Placeholders use the `{name}` form.
func NewRoute(method, path string, params map[string]any) Route {
	return NewRouteWithBase(DefaultBaseURL, method, path, params)
}

// NewRouteWithBase builds a route against a non-default base URL.
func NewRouteWithBase(base, method, path string, params map[string]any) Route {
	resolved := strings.TrimRight(base, "/") + "/" + path
	for name, value := range params {
		var repl string
		if s, ok := value.(string); ok {
			repl = url.PathEscape(s)
		} else {
			repl = fmt.Sprint(value)
		}
		resolved = strings.ReplaceAll(resolved, "{"+name+"}", repl)
	}

	return Route{
		Method: method,
		Path:   path,
		URL:    resolved,
	}
}
