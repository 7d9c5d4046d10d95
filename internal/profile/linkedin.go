package profile

import (
	"net/url"
	"regexp"
	"strings"
)

const linkedInBase = "https://www.linkedin.com/"

// LinkedIn custom URLs are 3-100 letters, digits or hyphens
var linkedInHandlePattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,100}$`)

// linkedInKinds are the URL sections a profile link may point at
var linkedInKinds = map[string]bool{
	"in":      true,
	"company": true,
}

// ValidateLinkedIn accepts a bare handle or a linkedin.com /in/ or /company/
// URL, with or without scheme, on linkedin.com or any of its subdomains. The value is always the canonical
// https://www.linkedin.com/<kind>/<handle> URL with the handle lowercased, so
// validating a returned value yields the same value again.
func ValidateLinkedIn(input string) ValidationResult {
	s := trimSpace(input)
	if s == "" {
		return reject("Please send your LinkedIn profile link or username.")
	}

	if looksLikeURL(s) {
		kind, handle, msg := parseLinkedInURL(s)
		if msg != "" {
			return reject(msg)
		}
		return accept(canonicalLinkedIn(kind, handle))
	}

	if hasWhitespace(s) {
		return reject("LinkedIn usernames can't contain spaces. Send the link from your profile, e.g. linkedin.com/in/your-name")
	}
	if strings.Contains(s, "@") {
		return reject("That looks like an email or a handle from another app. Send your LinkedIn link, e.g. linkedin.com/in/your-name")
	}
	if !linkedInHandlePattern.MatchString(s) {
		return reject("LinkedIn usernames are 3-100 letters, numbers or hyphens.")
	}

	return accept(canonicalLinkedIn("in", s))
}

// LooksLikeLinkedIn reports whether s is shaped like a LinkedIn profile or
// company link. It does not validate the handle.
func LooksLikeLinkedIn(s string) bool {
	lower := strings.ToLower(trimSpace(s))
	return strings.Contains(lower, "linkedin.com/in/") || strings.Contains(lower, "linkedin.com/company/")
}

func looksLikeURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "www.") ||
		strings.Contains(lower, "linkedin.com")
}

// parseLinkedInURL returns the section and handle of a LinkedIn link, or a
// rejection message.
func parseLinkedInURL(s string) (kind, handle, msg string) {
	if hasWhitespace(s) {
		return "", "", "Links can't contain spaces. Please paste your LinkedIn link again."
	}

	u, ok := parseLooseURL(s)
	if !ok {
		return "", "", "That link doesn't look right. Please paste your LinkedIn profile link."
	}
	if u.User != nil {
		return "", "", "That link doesn't look right. Please paste your LinkedIn profile link."
	}

	if !isLinkedInHost(u.Hostname()) {
		return "", "", "That isn't a LinkedIn link. It should start with linkedin.com/in/"
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || !linkedInKinds[strings.ToLower(parts[0])] {
		return "", "", "Please send the link to your profile, e.g. linkedin.com/in/your-name"
	}
	if !linkedInHandlePattern.MatchString(parts[1]) {
		return "", "", "The username in that link should be 3-100 letters, numbers or hyphens."
	}

	return strings.ToLower(parts[0]), parts[1], ""
}

// isLinkedInHost accepts linkedin.com and its subdomains such as www. and
// country hosts like in.linkedin.com
func isLinkedInHost(host string) bool {
	host = strings.ToLower(host)
	if host == "linkedin.com" {
		return true
	}
	sub, ok := strings.CutSuffix(host, ".linkedin.com")
	return ok && sub != "" && !strings.HasPrefix(sub, ".") && !strings.HasSuffix(sub, ".")
}

func canonicalLinkedIn(kind, handle string) string {
	return linkedInBase + kind + "/" + strings.ToLower(handle)
}

// parseLooseURL parses s as an http(s) URL, assuming https when no scheme is given
func parseLooseURL(s string) (*url.URL, bool) {
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(s, "://") {
			return nil, false
		}
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return nil, false
	}
	return u, true
}
