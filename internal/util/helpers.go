package util

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// Host Validation Helpers
// =============================================================================

// IsInternalHost checks if a hostname is internal/private and should not be
// accessed. Used to prevent SSRF via the metadata extractor, which fetches
// arbitrary user-supplied URLs.
func IsInternalHost(host string) bool {
	host = strings.ToLower(host)
	return strings.HasSuffix(host, ".local") ||
		strings.HasSuffix(host, ".internal") ||
		strings.HasSuffix(host, ".onion") ||
		strings.HasSuffix(host, ".localhost")
}

// IsLoopbackHost checks if a hostname resolves to localhost.
func IsLoopbackHost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" ||
		host == "127.0.0.1" ||
		host == "::1" ||
		strings.HasPrefix(host, "127.") ||
		host == "[::1]"
}

// IsPrivateHost checks if a host should be blocked for security reasons.
// Combines internal host and loopback checks.
func IsPrivateHost(host string) bool {
	return IsInternalHost(host) || IsLoopbackHost(host)
}

// =============================================================================
// URL Building Helpers
// =============================================================================

// URLParamOrder defines the canonical order for outbound query parameters.
// Grouped semantically: search -> paging -> filters -> API identity.
var URLParamOrder = []string{
	// Search
	"q", "search", "url", "id",
	// Paging
	"limit", "offset", "page",
	// Filters
	"rating", "lang", "fields", "part", "tab",
	// API identity
	"api_key", "key",
}

// queryEscape encodes a string for use in a URL query parameter.
// Unlike url.QueryEscape, it leaves commas unencoded since they're
// safe in query strings per RFC 3986 (sub-delimiters).
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2C", ",")
}

// BuildURL constructs a URL with query parameters in canonical order.
// Empty values are omitted. Parameters not in the canonical order are
// appended alphabetically.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	var parts []string
	used := make(map[string]bool, len(params))

	for _, key := range URLParamOrder {
		if val, ok := params[key]; ok && val != "" {
			parts = append(parts, url.QueryEscape(key)+"="+queryEscape(val))
			used[key] = true
		}
	}

	var remaining []string
	for key := range params {
		if !used[key] && params[key] != "" {
			remaining = append(remaining, key)
		}
	}

	sort.Strings(remaining)
	for _, key := range remaining {
		parts = append(parts, url.QueryEscape(key)+"="+queryEscape(params[key]))
	}

	if len(parts) == 0 {
		return path
	}
	return path + "?" + strings.Join(parts, "&")
}

// =============================================================================
// Slice Utilities
// =============================================================================

// SortedCopy returns a sorted copy of a string slice.
// The original slice is not modified.
// Useful for building stable cache keys from unordered inputs.
func SortedCopy(slice []string) []string {
	if len(slice) == 0 {
		return nil
	}
	sorted := make([]string, len(slice))
	copy(sorted, slice)
	sort.Strings(sorted)
	return sorted
}

// =============================================================================
// String Utilities
// =============================================================================

// TruncateDescription cuts a preview description to maxLen characters and
// appends the "..." marker when a cut occurred. Descriptions at or below the
// limit pass through untouched.
func TruncateDescription(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// TruncateString truncates a string to maxLen characters including the "..."
// suffix. Returns the original string if it fits.
func TruncateString(s string, maxLen int) string {
	if maxLen <= 3 {
		return s
	}
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}

// LastToken returns the last whitespace-delimited token of s, or "" when the
// text is empty or ends in whitespace.
func LastToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	if len(s) > 0 && strings.ContainsRune(" \t\n\r", rune(s[len(s)-1])) {
		return ""
	}
	return fields[len(fields)-1]
}
