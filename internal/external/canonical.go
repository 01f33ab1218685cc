package external

import (
	"net/url"
	"strings"
)

// CanonicalURL normalizes a listing URL so the same job reached through
// different tracking links deduplicates. Empty input reports false.
func CanonicalURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw, true
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	// Trim on the escaped form so encoded separators such as %2F survive.
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return raw, true
	}
	u.Path = path
	u.RawPath = escaped

	if u.RawQuery != "" {
		q := u.Query()
		removed := false
		for key := range q {
			if strings.HasPrefix(strings.ToLower(key), "utm_") {
				q.Del(key)
				removed = true
			}
		}
		if removed {
			u.RawQuery = q.Encode()
		}
	}

	return u.String(), true
}
