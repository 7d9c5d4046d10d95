package profile

import (
	"regexp"
	"strings"
)

var instagramHandlePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

// first path segments of instagram.com links that are not profiles
var instagramReservedPaths = map[string]bool{
	"p":        true,
	"reel":     true,
	"reels":    true,
	"stories":  true,
	"explore":  true,
	"accounts": true,
	"direct":   true,
	"tv":       true,
}

// ValidateInstagram checks an Instagram handle. The field is optional, so an
// empty input is valid with no value. One leading @ is stripped, and an
// instagram.com/<handle> link is reduced to its handle first. The handle must
// be 1-30 of [A-Za-z0-9._], must not start or end with a period and must not
// contain two periods in a row. The value is the lowercased handle.
func ValidateInstagram(input string) ValidationResult {
	s := trimSpace(input)
	if s == "" {
		return ValidationResult{Valid: true}
	}

	if isInstagramURL(s) {
		handle, ok := instagramHandleFromURL(s)
		if !ok {
			return reject("Please send your Instagram username or the link to your profile, e.g. instagram.com/your.name")
		}
		s = handle
	}

	s = strings.TrimPrefix(s, "@")

	if !instagramHandlePattern.MatchString(s) {
		return reject("Instagram usernames are 1-30 letters, numbers, periods or underscores, with no spaces.")
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return reject("Instagram usernames can't start or end with a period.")
	}
	if strings.Contains(s, "..") {
		return reject("Instagram usernames can't contain two periods in a row.")
	}

	return accept(strings.ToLower(s))
}

// LooksLikeInstagram reports whether s is an instagram.com link or an
// @handle that would pass ValidateInstagram.
func LooksLikeInstagram(s string) bool {
	s = trimSpace(s)
	if isInstagramURL(s) {
		return true
	}
	if !strings.HasPrefix(s, "@") || len(s) < 2 {
		return false
	}
	return ValidateInstagram(s).Valid
}

// isInstagramURL reports whether s is written as a link rather than a handle:
// it has a scheme, starts with www., or names the instagram.com host before a /
func isInstagramURL(s string) bool {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "www.") {
		return true
	}
	host, _, hasPath := strings.Cut(lower, "/")
	return hasPath && host == "instagram.com"
}

func instagramHandleFromURL(s string) (string, bool) {
	if hasWhitespace(s) {
		return "", false
	}
	u, ok := parseLooseURL(s)
	if !ok || u.User != nil {
		return "", false
	}
	if strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.") != "instagram.com" {
		return "", false
	}

	handle, _, _ := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if handle == "" || instagramReservedPaths[strings.ToLower(handle)] {
		return "", false
	}
	return handle, true
}
