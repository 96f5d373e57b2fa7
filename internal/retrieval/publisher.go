package retrieval

import "github.com/jonesrussell/north-cloud/geotagger/internal/domain"

// PublisherTable resolves article URLs to publisher admin areas.
type PublisherTable interface {
	Match(rawURL string) (string, bool)
	AdminAreas(key string) []string
}

// PublisherExtractor reports the admin areas of the publishing outlet.
type PublisherExtractor struct {
	table PublisherTable
}

func NewPublisherExtractor(table PublisherTable) *PublisherExtractor {
	return &PublisherExtractor{table: table}
}

// Extract returns the admin areas registered for the longest matching
// publisher key of rawURL.
func (e *PublisherExtractor) Extract(rawURL string) domain.AdminSignal {
	out := domain.AdminSignal{}
	if rawURL == "" {
		return out
	}
	key, ok := e.table.Match(rawURL)
	if !ok {
		return out
	}
	for _, admin := range e.table.AdminAreas(key) {
		out[admin] = domain.SignalProps{}
	}
	return out
}
