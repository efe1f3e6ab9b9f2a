package config

import (
	"net/url"
	"strings"
)

// ValidateURL reports whether s is a well-formed http or https URL.
func ValidateURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsHTTPSURL reports whether s uses https.
func IsHTTPSURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme == "https"
}

// IsLocalURL reports whether s points at localhost or a private address.
func IsLocalURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "localhost" ||
		host == "127.0.0.1" ||
		host == "0.0.0.0" ||
		strings.HasPrefix(host, "192.168.") ||
		strings.HasPrefix(host, "10.") ||
		strings.HasPrefix(host, "172.")
}

// URLSecurityWarning returns a human-readable warning for s, or "" when
// there is nothing to flag.
func URLSecurityWarning(s string) string {
	if !ValidateURL(s) {
		return "Invalid URL format"
	}
	if !IsHTTPSURL(s) && !IsLocalURL(s) {
		return "Warning: Using HTTP for remote URL is insecure. Consider using HTTPS."
	}
	return ""
}
