package entity

import (
	"fmt"
	"net/url"
	"strings"
)

const maxURLLength = 2048

// ValidateBaseURL checks an API base URL supplied through configuration.
// Private and loopback hosts are allowed so a local backend can be used
// during development.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "url", Message: "URL must have a valid host"}
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return &ValidationError{Field: "url", Message: "base URL cannot carry a query or fragment"}
	}

	return nil
}

// NormalizeBaseURL strips trailing slashes so paths can be appended verbatim.
func NormalizeBaseURL(rawURL string) string {
	return strings.TrimRight(strings.TrimSpace(rawURL), "/")
}

// ValidateWebhookURL checks a chat webhook URL against the expected https
// host and path prefix.
func ValidateWebhookURL(rawURL, host, pathPrefix string) error {
	if rawURL == "" {
		return &ValidationError{Field: "webhook_url", Message: "webhook URL is required"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "webhook_url", Message: "invalid webhook URL format"}
	}
	if u.Scheme != "https" {
		return &ValidationError{Field: "webhook_url", Message: "webhook URL must use HTTPS"}
	}
	if u.Host != host {
		return &ValidationError{Field: "webhook_url", Message: fmt.Sprintf("webhook host must be %s", host)}
	}
	if !strings.HasPrefix(u.Path, pathPrefix) {
		return &ValidationError{Field: "webhook_url", Message: fmt.Sprintf("webhook path must start with %s", pathPrefix)}
	}
	return nil
}

// ValidateFeedURL checks the URL of a syndication feed. Unlike a base URL
// it may carry a query string.
func ValidateFeedURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "feed_url", Message: "feed URL is required"}
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationError{Field: "feed_url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "feed_url", Message: "URL must use http or https scheme"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "feed_url", Message: "URL must have a valid host"}
	}
	return nil
}
