//nolint:testpackage // Evidence checks need the unexported gather stage
package tagger

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/classification"
	"github.com/jonesrussell/north-cloud/geotagger/internal/disambiguation"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/features"
	"github.com/jonesrussell/north-cloud/geotagger/internal/geocoding"
	"github.com/jonesrussell/north-cloud/geotagger/internal/placeline"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
	"github.com/jonesrussell/north-cloud/geotagger/internal/retrieval"
	"github.com/jonesrussell/north-cloud/geotagger/internal/telemetry"
)

const texasWiki = "https://en.wikipedia.org/wiki/Texas"

func component(id, name string, t domain.LocationType) domain.AddressComponent {
	return domain.AddressComponent{LocationID: domain.ID(id), LocationName: name, LocationType: t}
}

// stubGeocoder answers wiki and keyword lookups from fixed tables.
type stubGeocoder struct {
	wiki     map[string][]geocoding.Summary
	keywords map[string][]geocoding.Summary
}

func (s *stubGeocoder) ByWikiURL(_ context.Context, u string) ([]geocoding.Summary, error) {
	return s.wiki[u], nil
}

func (s *stubGeocoder) ByID(context.Context, string) (geocoding.Summary, error) {
	return geocoding.Summary{}, geocoding.ErrNotFound
}

func (s *stubGeocoder) ByKeywords(_ context.Context, kws []string) ([][]geocoding.Summary, error) {
	out := make([][]geocoding.Summary, len(kws))
	for i, kw := range kws {
		out[i] = s.keywords[kw]
	}
	return out, nil
}

// acceptAll labels every candidate positive.
type acceptAll struct{}

func (acceptAll) Predict(context.Context, []string, []float64) (classification.Prediction, error) {
	return classification.Prediction{Label: 1, Probability: 0.9}, nil
}

func newTagger(t *testing.T, geo retrieval.Geocoder) *Tagger {
	t.Helper()

	tables := reftables.MustLoadEmbedded()
	log := logger.NewNop()
	tel := telemetry.NewProvider(prometheus.NewRegistry())

	return New(Deps{
		URL:           retrieval.NewURLExtractor(tables.USStates),
		Publisher:     retrieval.NewPublisherExtractor(tables.Publishers),
		Text:          retrieval.NewTextExtractor(tables.USStates),
		Entities:      retrieval.NewEntityExtractor(geo, tables.Keywords, nil, nil, retrieval.EntityConfig{}, log),
		Disambiguator: disambiguation.New(tables.USStates, tel, log),
		Builder:       features.NewBuilder(placeline.NewDetector(tables.StateCodes, tables.Ambiguity), tables.USStates, log),
		Gate:          classification.NewGate(acceptAll{}, classification.DefaultMinProbability, tel, log),
		SameName:      tables.SameName,
		Telemetry:     tel,
	}, Config{}, log)
}

func texasGeocoder() *stubGeocoder {
	houston := geocoding.Summary{AddressComponents: []domain.AddressComponent{
		component("201", "Houston", domain.Locality),
		component("202", "Harris County", domain.SubAdminArea),
		component("48", "Texas", domain.AdminArea),
	}}
	return &stubGeocoder{
		wiki: map[string][]geocoding.Summary{
			texasWiki: {{AddressComponents: []domain.AddressComponent{component("48", "Texas", domain.AdminArea)}}},
		},
		keywords: map[string][]geocoding.Summary{
			"Houston": {houston},
			"HOUSTON": {houston},
		},
	}
}

func texasEvent() *domain.Event {
	return &domain.Event{
		Sequence:  "100",
		URL:       "https://x.com/texas/a",
		SlimTitle: "Storm floods Houston streets",
		Body:      "HOUSTON, Texas (AP) — Heavy rain flooded streets in Houston on Monday, officials said.",
		GoogleEntities: []domain.GoogleEntity{
			{Name: "Texas", Type: "LOCATION", Salience: 0.3, WikiURL: texasWiki},
		},
	}
}

func TestGather_TexasEvidence(t *testing.T) {
	t.Parallel()

	tg := newTagger(t, texasGeocoder())
	in, err := tg.gather(context.Background(), texasEvent())
	require.NoError(t, err)

	texas, ok := in.evidence.Merged["texas"]
	require.True(t, ok, "texas missing from merged evidence")
	assert.GreaterOrEqual(t, len(texas.Sources()), 2)
	assert.NotNil(t, texas.URL)
	assert.NotNil(t, texas.Text)
	assert.NotNil(t, texas.Stat)
}

func TestTag_TexasSelfMatch(t *testing.T) {
	t.Parallel()

	tg := newTagger(t, texasGeocoder())
	result, err := tg.Tag(context.Background(), texasEvent(), domain.ModePredict)
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultCapabilityTag}, result.Features)

	var found bool
	for _, loc := range result.Locations {
		if loc.LocationName == "Texas" {
			found = true
			assert.Equal(t, domain.AdminArea, loc.LocationType)
			assert.Equal(t, disambiguation.AlgorithmSelfMatch, loc.Algorithm)
			require.NotNil(t, loc.FilterFeatures)
			require.NotNil(t, loc.FilterFeatures.Pred)
			assert.Equal(t, 1, *loc.FilterFeatures.Pred)
		}
	}
	assert.True(t, found, "Texas not tagged: %+v", result.Locations)
}

func TestTag_Deterministic(t *testing.T) {
	t.Parallel()

	tg := newTagger(t, texasGeocoder())
	first, err := tg.Tag(context.Background(), texasEvent(), domain.ModePredict)
	require.NoError(t, err)

	for range 5 {
		again, againErr := tg.Tag(context.Background(), texasEvent(), domain.ModePredict)
		require.NoError(t, againErr)
		assert.Equal(t, first, again)
	}
}

func TestTag_TrainModeLabels(t *testing.T) {
	t.Parallel()

	event := texasEvent()
	event.Label = "Texas"

	result, err := newTagger(t, texasGeocoder()).Tag(context.Background(), event, domain.ModeTrain)
	require.NoError(t, err)
	require.NotEmpty(t, result.Locations)

	for _, loc := range result.Locations {
		require.NotNil(t, loc.FilterFeatures.GT)
		want := 0
		if loc.ComboName == "Texas" {
			want = 1
		}
		assert.Equal(t, want, *loc.FilterFeatures.GT, loc.ComboName)
		assert.Nil(t, loc.FilterFeatures.Pred)
	}
}

func TestTag_DropsCountries(t *testing.T) {
	t.Parallel()

	geo := &stubGeocoder{wiki: map[string][]geocoding.Summary{
		"https://en.wikipedia.org/wiki/United_States": {{AddressComponents: []domain.AddressComponent{
			component("1", "United States", domain.Country),
		}}},
	}}
	event := &domain.Event{
		Sequence: "5",
		Body:     "Officials said Monday.",
		GoogleEntities: []domain.GoogleEntity{
			{Name: "United States", Type: "LOCATION", WikiURL: "https://en.wikipedia.org/wiki/United_States"},
		},
	}

	result, err := newTagger(t, geo).Tag(context.Background(), event, domain.ModePredict)
	require.NoError(t, err)
	assert.Empty(t, result.Locations)
}

func TestTag_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTagger(t, texasGeocoder()).Tag(ctx, texasEvent(), domain.ModePredict)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.EmptyResult(), result)
}

func TestTag_DebugSameName(t *testing.T) {
	t.Parallel()

	geo := &stubGeocoder{keywords: map[string][]geocoding.Summary{
		"Springfield": {
			{AddressComponents: []domain.AddressComponent{
				component("1001", "Springfield", domain.Locality),
				component("17", "Illinois", domain.AdminArea),
			}},
			{AddressComponents: []domain.AddressComponent{
				component("1002", "Springfield", domain.Locality),
				component("29", "Missouri", domain.AdminArea),
			}},
		},
	}}
	event := &domain.Event{
		Sequence: "9",
		Body:     "The council in Springfield met on Monday.",
		Debug:    true,
	}

	result, err := newTagger(t, geo).Tag(context.Background(), event, domain.ModePredict)
	require.NoError(t, err)
	require.Len(t, result.Debug, 2)
	assert.Equal(t, "Springfield:LOCALITY", result.Debug[0].Candidate)
	assert.Contains(t, result.Debug[0].PossibleAdmins, "illinois")
}
