package retrieval_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/geocoding"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
	"github.com/jonesrussell/north-cloud/geotagger/internal/retrieval"
)

var tables = reftables.MustLoadEmbedded()

func locality(name, state string) domain.LocationCandidate {
	return domain.LocationCandidate{
		LocationName: name,
		LocationType: domain.Locality,
		Source:       domain.SourceWikiMatch,
		AddressComponents: []domain.AddressComponent{
			{LocationName: state, LocationType: domain.AdminArea},
		},
	}
}

func summary(name string, t domain.LocationType, parents ...string) geocoding.Summary {
	s := geocoding.Summary{AddressComponents: []domain.AddressComponent{{LocationID: domain.ID(name), LocationName: name, LocationType: t}}}
	for _, p := range parents {
		s.AddressComponents = append(s.AddressComponents, domain.AddressComponent{LocationName: p, LocationType: domain.AdminArea})
	}
	return s
}

func TestURLExtractor(t *testing.T) {
	t.Parallel()

	e := retrieval.NewURLExtractor(tables.USStates)
	tests := []struct {
		url  string
		want domain.AdminSignal
	}{
		{"https://x.com/texas/news", domain.AdminSignal{"texas": {}}},
		{"https://x.com/texas-city/news", domain.AdminSignal{}},
		{"https://x.com/news/jackson_county/ohio", domain.AdminSignal{"ohio": {}}},
		{"https://x.com/new-york/politics", domain.AdminSignal{"new york": {}}},
		{"https://x.com/west-virginia/", domain.AdminSignal{"west virginia": {}}},
		{"https://texas.example.com/story", domain.AdminSignal{}},
		{"https://x.com/kansas-city/ohio", domain.AdminSignal{}},
		{"", domain.AdminSignal{}},
	}
	for _, tt := range tests {
		got := e.Extract(tt.url)
		if len(got) != len(tt.want) {
			t.Errorf("Extract(%q) = %v, want %v", tt.url, got, tt.want)
			continue
		}
		for k := range tt.want {
			if _, ok := got[k]; !ok {
				t.Errorf("Extract(%q) = %v, want %v", tt.url, got, tt.want)
			}
		}
	}
}

func TestPublisherExtractor(t *testing.T) {
	t.Parallel()

	e := retrieval.NewPublisherExtractor(tables.Publishers)
	got := e.Extract("https://www.kansascity.com/news/politics-government/article1.html")
	if len(got) != 2 {
		t.Fatalf("Extract() = %v, want missouri and kansas", got)
	}
	if _, ok := got["kansas"]; !ok {
		t.Errorf("Extract() = %v, missing kansas", got)
	}
	if got := e.Extract("https://unknown.example/a"); len(got) != 0 {
		t.Errorf("Extract(unknown) = %v", got)
	}
}

func TestTextExtractor(t *testing.T) {
	t.Parallel()

	e := retrieval.NewTextExtractor(tables.USStates)

	t.Run("dateline with publisher", func(t *testing.T) {
		t.Parallel()
		got := e.Extract("SPRINGFIELD, Ill. (AP) — Lawmakers met on Tuesday.")
		props, ok := got["illinois"]
		if !ok || !slices.Equal(props.Place, []string{domain.PlaceBeginning}) || props.Count != 1 {
			t.Errorf("Extract() = %+v", got)
		}
	})

	t.Run("frequent state", func(t *testing.T) {
		t.Parallel()
		body := "Officials in ohio said ohio roads are closed. The ohio patrol agrees."
		got := e.Extract(body)
		props, ok := got["ohio"]
		if !ok || props.Count != 3 || !slices.Equal(props.Place, []string{domain.PlaceBody}) {
			t.Errorf("Extract() = %+v", got)
		}
	})

	t.Run("multi-word state", func(t *testing.T) {
		t.Parallel()
		body := "New York voters. In New York today. New York again."
		if _, ok := e.Extract(body)["new york"]; !ok {
			t.Error("Extract() missing new york")
		}
	})

	t.Run("infrequent state", func(t *testing.T) {
		t.Parallel()
		if got := e.Extract("Texas is big. Texas is hot."); len(got) != 0 {
			t.Errorf("Extract() = %+v", got)
		}
	})

	t.Run("combined counts", func(t *testing.T) {
		t.Parallel()
		body := "DAYTON, Ohio (AP) — In ohio today ohio officials said ohio is fine."
		props := e.Extract(body)["ohio"]
		if props.Count != 5 || !slices.Equal(props.Place, []string{domain.PlaceBeginning, domain.PlaceBody}) {
			t.Errorf("Extract()[ohio] = %+v", props)
		}
	})
}

type fakeGeocoder struct {
	byWiki    map[string][]geocoding.Summary
	byID      map[string]geocoding.Summary
	keywords  []string
	bulk      [][]geocoding.Summary
	err       error
	idQueries []string
}

func (f *fakeGeocoder) ByWikiURL(_ context.Context, u string) ([]geocoding.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byWiki[u], nil
}

func (f *fakeGeocoder) ByID(_ context.Context, id string) (geocoding.Summary, error) {
	f.idQueries = append(f.idQueries, id)
	if f.err != nil {
		return geocoding.Summary{}, f.err
	}
	return f.byID[id], nil
}

func (f *fakeGeocoder) ByKeywords(_ context.Context, kws []string) ([][]geocoding.Summary, error) {
	f.keywords = kws
	if f.err != nil {
		return nil, f.err
	}
	return f.bulk, nil
}

type fakeLocalPubs struct {
	host string
	ids  []domain.ID
}

func (f *fakeLocalPubs) LocalPublisherLocationIDs(_ context.Context, host string) ([]domain.ID, error) {
	f.host = host
	return f.ids, nil
}

func TestEntityExtractor_GoogleCandidates(t *testing.T) {
	t.Parallel()

	geo := &fakeGeocoder{byWiki: map[string][]geocoding.Summary{
		"https://en.wikipedia.org/wiki/Texas": {summary("Texas", domain.AdminArea), {}},
	}}
	e := retrieval.NewEntityExtractor(geo, tables.Keywords, nil, nil, retrieval.EntityConfig{}, logger.NewNop())

	got := e.GoogleCandidates(context.Background(), []domain.GoogleEntity{
		{Name: "Texas", Type: "LOCATION", Salience: 0.4, WikiURL: "https://en.wikipedia.org/wiki/Texas"},
		{Name: "Texas", Type: "EVENT", WikiURL: "https://en.wikipedia.org/wiki/Texas"},
		{Name: "Nowhere", Type: "LOCATION"},
	})
	if len(got) != 1 || got[0].Source != domain.SourceGoogleEntity || got[0].Salience != 0.4 {
		t.Errorf("GoogleCandidates() = %+v", got)
	}
}

func TestEntityExtractor_TextCandidates(t *testing.T) {
	t.Parallel()

	geo := &fakeGeocoder{bulk: [][]geocoding.Summary{
		{summary("Springfield", domain.Locality, "Illinois"), summary("Springfield", domain.Locality, "Missouri")},
		{},
	}}
	e := retrieval.NewEntityExtractor(geo, tables.Keywords, nil, nil, retrieval.EntityConfig{MaxKeywordLookups: 2}, logger.NewNop())

	got := e.TextCandidates(context.Background(), "Storm in Springfield", "Crews from Houston and Chicago helped.")
	if !slices.Equal(geo.keywords, []string{"Springfield", "Houston"}) {
		t.Errorf("keywords sent = %v", geo.keywords)
	}
	if len(got) != 2 || got[0].Source != domain.SourceWikiMatch || got[1].AddressComponents[0].LocationName != "Missouri" {
		t.Errorf("TextCandidates() = %+v", got)
	}
}

func TestEntityExtractor_FailuresYieldNothing(t *testing.T) {
	t.Parallel()

	geo := &fakeGeocoder{err: errors.New("timeout")}
	e := retrieval.NewEntityExtractor(geo, tables.Keywords, nil, nil, retrieval.EntityConfig{}, logger.NewNop())
	ctx := context.Background()

	if got := e.TextCandidates(ctx, "", "Houston"); got != nil {
		t.Errorf("TextCandidates() = %+v", got)
	}
	if got := e.GoogleCandidates(ctx, []domain.GoogleEntity{{Type: "LOCATION", WikiURL: "https://en.wikipedia.org/wiki/X"}}); got != nil {
		t.Errorf("GoogleCandidates() = %+v", got)
	}
}

func TestEntityExtractor_FeatureCandidates(t *testing.T) {
	t.Parallel()

	rules := []domain.LocationFeature{
		{LocationID: "10", Feature: "houston_sports", ConditionType: domain.ConditionInclude},
		{LocationID: "11", Feature: "texas_politics", ConditionType: domain.ConditionInclude},
		{Feature: "national", ConditionType: domain.ConditionExclude},
	}
	geo := &fakeGeocoder{byID: map[string]geocoding.Summary{
		"10": summary("Houston", domain.Locality, "Texas"),
		"11": summary("Texas", domain.AdminArea),
	}}
	e := retrieval.NewEntityExtractor(geo, tables.Keywords, rules, nil, retrieval.EntityConfig{}, logger.NewNop())
	ctx := context.Background()

	got := e.FeatureCandidates(ctx, []string{"houston_sports"})
	if len(got) != 1 || got[0].LocationName != "Houston" || got[0].Source != domain.SourceFeatures {
		t.Errorf("FeatureCandidates() = %+v", got)
	}
	if got := e.FeatureCandidates(ctx, []string{"houston_sports", "national"}); got != nil {
		t.Errorf("FeatureCandidates() with excluded feature = %+v", got)
	}
}

func TestEntityExtractor_LocalPublisherCandidates(t *testing.T) {
	t.Parallel()

	geo := &fakeGeocoder{byID: map[string]geocoding.Summary{"7": summary("Harris County", domain.SubAdminArea, "Texas")}}
	pubs := &fakeLocalPubs{ids: []domain.ID{"7"}}
	ctx := context.Background()

	disabled := retrieval.NewEntityExtractor(geo, tables.Keywords, nil, pubs, retrieval.EntityConfig{}, logger.NewNop())
	if got := disabled.LocalPublisherCandidates(ctx, "https://www.chron.com/a"); got != nil {
		t.Errorf("disabled LocalPublisherCandidates() = %+v", got)
	}

	e := retrieval.NewEntityExtractor(geo, tables.Keywords, nil, pubs,
		retrieval.EntityConfig{LocalPublisherCandidates: true}, logger.NewNop())
	got := e.LocalPublisherCandidates(ctx, "https://www.chron.com/a")
	if pubs.host != "www.chron.com" {
		t.Errorf("queried host = %q", pubs.host)
	}
	if len(got) != 1 || got[0].Source != domain.SourceLocalPublisher {
		t.Errorf("LocalPublisherCandidates() = %+v", got)
	}
}

func TestNewQueue(t *testing.T) {
	t.Parallel()

	google := []domain.LocationCandidate{locality("Houston", "Texas")}
	text := []domain.LocationCandidate{
		locality("Houston", "Texas"),
		locality("Springfield", "Illinois"),
		locality("Springfield", "Missouri"),
		locality("Dallas", "Texas"),
		{LocationName: "Ohio", LocationType: domain.AdminArea},
	}

	q := retrieval.NewQueue(nil, nil, google, text)

	if len(q.Need) != 2 || q.Need[0].LocationName != "Springfield" {
		t.Errorf("Need = %+v", q.Need)
	}
	if !q.Waiting("Springfield:LOCALITY") || q.Waiting("Dallas:LOCALITY") || q.Waiting("Houston:LOCALITY") {
		t.Errorf("Admins = %v", q.Admins)
	}
	if len(q.NoNeed) != 3 {
		t.Errorf("NoNeed = %+v, want Houston, Ohio, Dallas", q.NoNeed)
	}
}
