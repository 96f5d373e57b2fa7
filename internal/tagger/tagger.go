// Package tagger runs the location tagging pipeline for one article.
package tagger

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/audit"
	"github.com/jonesrussell/north-cloud/geotagger/internal/classification"
	"github.com/jonesrussell/north-cloud/geotagger/internal/disambiguation"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/evidence"
	"github.com/jonesrussell/north-cloud/geotagger/internal/features"
	"github.com/jonesrussell/north-cloud/geotagger/internal/retrieval"
	"github.com/jonesrussell/north-cloud/geotagger/internal/telemetry"
)

// DefaultCapabilityTag is reported in the features of every result.
const DefaultCapabilityTag = "us_location_tagging_ver_7.1"

// Config tunes the tagger.
type Config struct {
	CapabilityTag string
}

// Deps are the pipeline stages. Audit may be nil.
type Deps struct {
	URL           *retrieval.URLExtractor
	Publisher     *retrieval.PublisherExtractor
	Text          *retrieval.TextExtractor
	Entities      *retrieval.EntityExtractor
	Disambiguator *disambiguation.Disambiguator
	Builder       *features.Builder
	Gate          *classification.Gate
	SameName      evidence.SameNameIndex
	Audit         *audit.Publisher
	Telemetry     *telemetry.Provider
}

// Tagger is safe for concurrent use; all request state lives on the stack.
type Tagger struct {
	deps Deps
	cfg  Config
	log  logger.Logger
}

// New creates a Tagger.
func New(deps Deps, cfg Config, log logger.Logger) *Tagger {
	if cfg.CapabilityTag == "" {
		cfg.CapabilityTag = DefaultCapabilityTag
	}
	return &Tagger{deps: deps, cfg: cfg, log: log}
}

// signals is everything the extractors produce for one event.
type signals struct {
	url       domain.AdminSignal
	publisher domain.AdminSignal
	text      domain.AdminSignal

	localPub []domain.LocationCandidate
	features []domain.LocationCandidate
	google   []domain.LocationCandidate
	keywords []domain.LocationCandidate
}

// Tag resolves the locations of event. In train mode it stops after
// feature extraction and returns every labelled candidate. Collaborator
// failures only reduce the evidence; the error is non-nil only when ctx
// ends first.
func (t *Tagger) Tag(ctx context.Context, event *domain.Event, mode domain.Mode) (domain.TagResult, error) {
	start := time.Now()
	seq := string(event.Sequence)

	ctx, span := t.deps.Telemetry.StartSpan(ctx, "tagger.Tag",
		attribute.String("sequence", seq),
		attribute.String("mode", string(mode)),
	)
	defer span.End()

	in, err := t.gather(ctx, event)
	if err != nil {
		t.deps.Telemetry.RecordTagging(string(mode), false, 0, time.Since(start))
		return domain.EmptyResult(), err
	}
	candidates, queue, ev := in.candidates, in.queue, in.evidence

	resolved := t.deps.Disambiguator.Resolve(event.Body, ev, candidates)
	t.log.Info("[LocationDisambiguation]",
		logger.String("sequence", seq),
		logger.Int("locations", len(resolved)),
	)

	built := t.deps.Builder.Build(event.Sequence, event.SlimTitle, event.Body, resolved, event.Label, mode)

	result := domain.TagResult{Features: []string{t.cfg.CapabilityTag}}
	if mode == domain.ModeTrain {
		result.Locations = built
	} else {
		result.Locations = t.deps.Gate.Select(ctx, event.Sequence, built)
	}
	if event.Debug {
		result.Debug = t.sameNameDebug(ev, queue.Need)
	}

	t.logAnalysis(seq, result.Locations)
	t.publish(event, &result, mode)
	t.deps.Telemetry.RecordTagging(string(mode), true, len(result.Locations), time.Since(start))
	return result, nil
}

// gathered is the validated candidate list and the evidence merged from
// every source.
type gathered struct {
	candidates []domain.LocationCandidate
	queue      retrieval.Queue
	evidence   *evidence.Evidence
}

func (t *Tagger) gather(ctx context.Context, event *domain.Event) (*gathered, error) {
	seq := string(event.Sequence)

	sig := t.extract(ctx, event)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	localPub := t.validate(seq, sig.localPub)
	featureCands := t.validate(seq, sig.features)
	google := t.validate(seq, sig.google)
	keywords := t.validate(seq, sig.keywords)

	candidates := make([]domain.LocationCandidate, 0, len(localPub)+len(featureCands)+len(google)+len(keywords))
	candidates = append(candidates, localPub...)
	candidates = append(candidates, featureCands...)
	candidates = append(candidates, google...)
	candidates = append(candidates, keywords...)
	t.log.Info("[CandidateGeneration]",
		logger.String("sequence", seq),
		logger.Int("locations", len(candidates)),
	)

	queue := retrieval.NewQueue(localPub, featureCands, google, keywords)
	return &gathered{
		candidates: candidates,
		queue:      queue,
		evidence:   evidence.Merge(sig.url, sig.publisher, sig.text, evidence.Stats(candidates, queue)),
	}, nil
}

// extract runs every extractor concurrently and waits for all of them.
func (t *Tagger) extract(ctx context.Context, event *domain.Event) signals {
	ctx, span := t.deps.Telemetry.StartSpan(ctx, "tagger.extract")
	defer span.End()

	var (
		sig signals
		wg  sync.WaitGroup
	)

	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { sig.url = t.deps.URL.Extract(event.URL) })
	run(func() { sig.publisher = t.deps.Publisher.Extract(event.URL) })
	run(func() { sig.text = t.deps.Text.Extract(event.Body) })
	run(func() { sig.localPub = t.deps.Entities.LocalPublisherCandidates(ctx, event.URL) })
	run(func() { sig.features = t.deps.Entities.FeatureCandidates(ctx, event.Features) })
	run(func() { sig.google = t.deps.Entities.GoogleCandidates(ctx, event.GoogleEntities) })
	run(func() { sig.keywords = t.deps.Entities.TextCandidates(ctx, event.SlimTitle, event.Body) })

	wg.Wait()

	t.deps.Telemetry.ObserveCandidates(string(domain.SourceLocalPublisher), len(sig.localPub))
	t.deps.Telemetry.ObserveCandidates(string(domain.SourceFeatures), len(sig.features))
	t.deps.Telemetry.ObserveCandidates(string(domain.SourceGoogleEntity), len(sig.google))
	t.deps.Telemetry.ObserveCandidates(string(domain.SourceWikiMatch), len(sig.keywords))
	return sig
}

// validate drops candidates that must not enter disambiguation.
func (t *Tagger) validate(seq string, in []domain.LocationCandidate) []domain.LocationCandidate {
	out := in[:0:0]
	for _, c := range in {
		if err := c.Validate(); err != nil {
			t.log.Warn("MalformedCandidate",
				logger.String("sequence", seq),
				logger.String("source", string(c.Source)),
				logger.Error(err),
			)
			continue
		}
		out = append(out, c)
	}
	return out
}

func (t *Tagger) sameNameDebug(ev *evidence.Evidence, queued []domain.LocationCandidate) []domain.AdminCandidateDebug {
	out := make([]domain.AdminCandidateDebug, 0, len(queued))
	for i := range queued {
		out = append(out, ev.SameNameAdmins(&queued[i], t.deps.SameName))
	}
	return out
}

func (t *Tagger) logAnalysis(seq string, locations []domain.LocationCandidate) {
	for _, loc := range locations {
		t.log.Info("[ANALYSIS]",
			logger.String("sequence", seq),
			logger.String("location_id", string(loc.LocationID)),
			logger.String("location_type", string(loc.LocationType)),
			logger.String("location_name", loc.LocationName),
			logger.String("algorithm", loc.Algorithm),
			logger.Float64("salience", loc.Salience),
		)
	}
}

func (t *Tagger) publish(event *domain.Event, result *domain.TagResult, mode domain.Mode) {
	if t.deps.Audit == nil {
		return
	}
	record, err := audit.TaggedEvent(event, result, mode)
	if err != nil {
		t.log.Error("Failed to build audit event",
			logger.String("sequence", string(event.Sequence)),
			logger.Error(err),
		)
		return
	}
	t.deps.Audit.PublishAsync(record)
}
