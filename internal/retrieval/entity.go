package retrieval

import (
	"context"
	"slices"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/geocoding"
)

// Geocoder resolves references to location summaries.
type Geocoder interface {
	ByWikiURL(ctx context.Context, wikiURL string) ([]geocoding.Summary, error)
	ByID(ctx context.Context, id string) (geocoding.Summary, error)
	ByKeywords(ctx context.Context, keywords []string) ([][]geocoding.Summary, error)
}

// KeywordFinder finds known place names in text.
type KeywordFinder interface {
	Find(text string) []string
}

// LocalPublisherStore lists the accepted locations of a local publisher.
type LocalPublisherStore interface {
	LocalPublisherLocationIDs(ctx context.Context, host string) ([]domain.ID, error)
}

// EntityConfig configures EntityExtractor.
type EntityConfig struct {
	// MaxKeywordLookups caps the keyword names sent to the geocoder. Zero
	// means no cap.
	MaxKeywordLookups int
	// LocalPublisherCandidates enables candidates from the local publisher store.
	LocalPublisherCandidates bool
}

// EntityExtractor turns Google entities, keyword hits, feature rules and
// local publisher mappings into location candidates. Collaborator failures
// are logged and produce no candidates.
type EntityExtractor struct {
	geocoder  Geocoder
	keywords  KeywordFinder
	include   []domain.LocationFeature
	exclude   map[string]bool
	localPubs LocalPublisherStore
	cfg       EntityConfig
	log       logger.Logger
}

// NewEntityExtractor creates an extractor. rules and localPubs may be empty.
func NewEntityExtractor(
	geocoder Geocoder,
	keywords KeywordFinder,
	rules []domain.LocationFeature,
	localPubs LocalPublisherStore,
	cfg EntityConfig,
	log logger.Logger,
) *EntityExtractor {
	e := &EntityExtractor{
		geocoder:  geocoder,
		keywords:  keywords,
		exclude:   make(map[string]bool),
		localPubs: localPubs,
		cfg:       cfg,
		log:       log,
	}
	for _, r := range rules {
		switch r.ConditionType {
		case domain.ConditionInclude:
			e.include = append(e.include, r)
		case domain.ConditionExclude:
			e.exclude[r.Feature] = true
		}
	}
	return e
}

// GoogleCandidates geocodes the Wikipedia links of Google entities.
func (e *EntityExtractor) GoogleCandidates(ctx context.Context, entities []domain.GoogleEntity) []domain.LocationCandidate {
	var out []domain.LocationCandidate
	for _, entity := range entities {
		if !entity.Geocodable() {
			continue
		}
		summaries, err := e.geocoder.ByWikiURL(ctx, entity.WikiURL)
		if err != nil {
			e.log.Warn("Google entity lookup failed",
				logger.String("entity", entity.Name),
				logger.Error(err),
			)
			continue
		}
		out = appendReconstructed(out, summaries, domain.SourceGoogleEntity, entity.Salience)
	}
	return out
}

// KeywordNames returns the known place names found in the title and body.
func (e *EntityExtractor) KeywordNames(title, body string) []string {
	names := e.keywords.Find(title + ". " + body)
	if e.cfg.MaxKeywordLookups > 0 && len(names) > e.cfg.MaxKeywordLookups {
		names = names[:e.cfg.MaxKeywordLookups]
	}
	return names
}

// TextCandidates geocodes the place names found in the title and body.
func (e *EntityExtractor) TextCandidates(ctx context.Context, title, body string) []domain.LocationCandidate {
	names := e.KeywordNames(title, body)
	if len(names) == 0 {
		return nil
	}

	responses, err := e.geocoder.ByKeywords(ctx, names)
	if err != nil {
		e.log.Warn("Keyword lookup failed",
			logger.Int("keywords", len(names)),
			logger.Error(err),
		)
		return nil
	}

	var out []domain.LocationCandidate
	for _, summaries := range responses {
		out = appendReconstructed(out, summaries, domain.SourceWikiMatch, 0)
	}
	return out
}

// FeatureCandidates resolves INCLUDE rules matching the article features,
// unless one of the features is excluded.
func (e *EntityExtractor) FeatureCandidates(ctx context.Context, features []string) []domain.LocationCandidate {
	if len(features) == 0 || len(e.include) == 0 {
		return nil
	}
	for _, f := range features {
		if e.exclude[f] {
			return nil
		}
	}

	var ids []domain.ID
	for _, r := range e.include {
		if slices.Contains(features, r.Feature) {
			ids = append(ids, r.LocationID)
		}
	}
	return e.byIDs(ctx, ids, domain.SourceFeatures)
}

// LocalPublisherCandidates resolves the locations registered for the
// article host. Disabled unless configured.
func (e *EntityExtractor) LocalPublisherCandidates(ctx context.Context, rawURL string) []domain.LocationCandidate {
	if !e.cfg.LocalPublisherCandidates || e.localPubs == nil || rawURL == "" {
		return nil
	}
	host := Host(rawURL)
	if host == "" {
		return nil
	}

	ids, err := e.localPubs.LocalPublisherLocationIDs(ctx, host)
	if err != nil {
		e.log.Warn("Local publisher query failed",
			logger.String("host", host),
			logger.Error(err),
		)
		return nil
	}
	return e.byIDs(ctx, ids, domain.SourceLocalPublisher)
}

func (e *EntityExtractor) byIDs(ctx context.Context, ids []domain.ID, source domain.Source) []domain.LocationCandidate {
	var out []domain.LocationCandidate
	for _, id := range ids {
		summary, err := e.geocoder.ByID(ctx, string(id))
		if err != nil {
			e.log.Warn("Location id lookup failed",
				logger.String("location_id", string(id)),
				logger.String("source", string(source)),
				logger.Error(err),
			)
			continue
		}
		out = appendReconstructed(out, []geocoding.Summary{summary}, source, 0)
	}
	return out
}

func appendReconstructed(
	out []domain.LocationCandidate,
	summaries []geocoding.Summary,
	source domain.Source,
	salience float64,
) []domain.LocationCandidate {
	for _, s := range summaries {
		if c, ok := geocoding.Reconstruct(s, source, salience); ok {
			out = append(out, c)
		}
	}
	return out
}
