package retrieval

import "net/url"

// Host returns the host of rawURL as written, or "" when it cannot be parsed.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
