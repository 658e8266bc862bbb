package domain

import (
	"regexp"
	"strings"
)

// SearchPrefix is prepended to free-text queries before resolution.
const SearchPrefix = "ytsearch:"

// locatorPattern matches scheme+host with an optional port and path,
// including bare IPs and localhost. TLDs longer than six characters and
// query strings are allowed on purpose; streaming links use both.
var locatorPattern = regexp.MustCompile(`(?i)^https?://` +
	`(?:(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}\.?` +
	`|localhost` +
	`|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?].*)$`)

// shortLinkPattern matches youtu.be short links, which the general pattern
// would otherwise accept but is kept separate to match them permissively.
var shortLinkPattern = regexp.MustCompile(`(?i)^https?://youtu\.be/[a-zA-Z0-9_-]+`)

// IsLocator returns true if the input looks like a direct media locator
// rather than free-text search terms.
func IsLocator(input string) bool {
	return locatorPattern.MatchString(input) || shortLinkPattern.MatchString(input)
}

// SearchQuery is a user request normalized for the resolver.
type SearchQuery struct {
	Input     string // trimmed user input
	IsLocator bool
}

// NewSearchQuery creates a SearchQuery from raw user input.
func NewSearchQuery(input string) SearchQuery {
	input = strings.TrimSpace(input)

	return SearchQuery{
		Input:     input,
		IsLocator: IsLocator(input),
	}
}

// IsValid returns true if the query is not empty.
func (q SearchQuery) IsValid() bool {
	return q.Input != ""
}

// ResolverQuery returns the string handed to the resolver backend: locators
// pass through unchanged, free text is cleaned and search-prefixed.
// Parentheses are stripped from search terms to improve match quality.
func (q SearchQuery) ResolverQuery() string {
	if q.IsLocator {
		return q.Input
	}

	cleaned := strings.ReplaceAll(q.Input, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	cleaned = strings.TrimSpace(cleaned)
	return SearchPrefix + cleaned
}
