package reftables

import (
	"io"
	"net/url"
	"strings"
)

// PublisherRow registers an admin area for a publisher domain key. Keys are
// a host optionally followed by path segments, e.g. "nytimes.com/section/nyregion".
type PublisherRow struct {
	Domain    string `db:"domain"`
	AdminArea string `db:"admin_area"`
}

// PublisherLocations maps publisher domain keys to admin areas.
type PublisherLocations struct {
	admins map[string][]string
}

// ParsePublisherRows reads a "domain\tadmin_area" file with a header line.
func ParsePublisherRows(r io.Reader) ([]PublisherRow, error) {
	var rows []PublisherRow
	err := eachRecord(r, true, func(fields []string) {
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return
		}
		rows = append(rows, PublisherRow{Domain: fields[0], AdminArea: fields[1]})
	})
	return rows, err
}

// NewPublisherLocations indexes rows. Admin areas are lower-cased.
func NewPublisherLocations(rows []PublisherRow) *PublisherLocations {
	p := &PublisherLocations{admins: make(map[string][]string)}
	for _, row := range rows {
		key := strings.ToLower(row.Domain)
		admin := strings.ToLower(row.AdminArea)
		p.admins[key] = appendUnique(p.admins[key], admin)
	}
	return p
}

// MinimalHost returns the lower-cased host of rawURL without "www.".
func MinimalHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(u.Host), "www.", "")
}

// Match returns the longest registered "host[/segment...]" key for rawURL.
func (p *PublisherLocations) Match(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}

	host := MinimalHost(rawURL)
	key := host
	match, found := "", false
	if _, ok := p.admins[key]; ok {
		match, found = key, true
	}

	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		key += "/" + seg
		if _, ok := p.admins[key]; ok {
			match, found = key, true
		}
	}
	return match, found
}

// AdminAreas returns the lower-cased admin areas registered for key.
func (p *PublisherLocations) AdminAreas(key string) []string {
	return p.admins[key]
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
