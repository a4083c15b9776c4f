package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// pathPatterns lists the dynamic routes of the status API.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/feed/items/[^/]+$`), Template: "/feed/items/:id"},
	{Pattern: regexp.MustCompile(`^/swagger/.+$`), Template: "/swagger/*"},
}

// NormalizePath maps dynamic URL paths onto route templates so metric
// labels stay bounded.
//
//	NormalizePath("/feed/items/42")         // "/feed/items/:id"
//	NormalizePath("/swagger/index.html")    // "/swagger/*"
//	NormalizePath("/feed?x=1")              // "/feed"
//	NormalizePath("/health/ready/")         // "/health/ready"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
