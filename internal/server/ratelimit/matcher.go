package ratelimit

import (
	"strings"
)

// unlimited lists GET endpoints that are never rate limited: health checks and scrapes, plus the
// confidence value the UI polls every few seconds.
var unlimited = map[string]bool{
	"/health":  true,
	"/metrics": true,
	"/stream":  true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Exact paths win over prefixes; a pattern ending in "/" matches everything below it.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && unlimited[path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		c := &configs[i]
		if c.Path == path && c.Method == method {
			return c
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
