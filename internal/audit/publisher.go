// Package audit records tagging results on a Redis stream.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	infraevents "github.com/jonesrussell/north-cloud/geotagger/infrastructure/events"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

const asyncPublishTimeout = 5 * time.Second

// Observer counts publish outcomes.
type Observer interface {
	ObserveAudit(outcome string)
}

// Publisher writes tagging events to a Redis stream. A nil *Publisher is a
// valid no-op.
type Publisher struct {
	client   *redis.Client
	stream   string
	maxLen   int64
	observer Observer
	log      logger.Logger
	wg       sync.WaitGroup
}

// NewPublisher returns nil when client is nil. An empty stream selects the
// default stream; maxLen 0 leaves the stream untrimmed.
func NewPublisher(client *redis.Client, stream string, maxLen int64, observer Observer, log logger.Logger) *Publisher {
	if client == nil {
		return nil
	}
	if stream == "" {
		stream = infraevents.DefaultStreamName
	}
	return &Publisher{client: client, stream: stream, maxLen: maxLen, observer: observer, log: log}
}

// Publish sends an event to the stream.
func (p *Publisher) Publish(ctx context.Context, event infraevents.TaggingEvent) error {
	if p == nil {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{"event": string(payload)},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	result := p.client.XAdd(ctx, args)
	if publishErr := result.Err(); publishErr != nil {
		p.observe("error")
		return fmt.Errorf("publish to stream: %w", publishErr)
	}

	p.observe("published")
	p.log.Debug("Published tagging event",
		logger.String("event_type", string(event.EventType)),
		logger.String("sequence", event.Sequence),
		logger.String("stream_id", result.Val()),
	)
	return nil
}

// PublishAsync publishes in the background. Errors are logged.
func (p *Publisher) PublishAsync(event infraevents.TaggingEvent) {
	if p == nil {
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			p.log.Error("Async publish failed",
				logger.String("event_type", string(event.EventType)),
				logger.String("sequence", event.Sequence),
				logger.Error(err),
			)
		}
	}()
}

// Wait blocks until pending async publishes finish.
func (p *Publisher) Wait() {
	if p != nil {
		p.wg.Wait()
	}
}

func (p *Publisher) observe(outcome string) {
	if p.observer != nil {
		p.observer.ObserveAudit(outcome)
	}
}

// TaggedEvent builds the audit event for a finished request. Train-mode
// requests are recorded as FEATURES_EXTRACTED.
func TaggedEvent(event *domain.Event, result *domain.TagResult, mode domain.Mode) (infraevents.TaggingEvent, error) {
	locations, err := json.Marshal(result.Locations)
	if err != nil {
		return infraevents.TaggingEvent{}, fmt.Errorf("marshal locations: %w", err)
	}

	eventType := infraevents.LocationsTagged
	if mode == domain.ModeTrain {
		eventType = infraevents.FeaturesExtracted
	}

	seq := string(event.Sequence)
	return infraevents.NewTaggingEvent(eventType, seq, infraevents.LocationsTaggedPayload{
		Sequence:  seq,
		SlimTitle: event.SlimTitle,
		Features:  event.Features,
		URL:       event.URL,
		Locations: string(locations),
	}), nil
}
