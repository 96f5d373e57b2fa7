package audit_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraevents "github.com/jonesrussell/north-cloud/geotagger/infrastructure/events"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/audit"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func sampleEvent(t *testing.T, mode domain.Mode) infraevents.TaggingEvent {
	t.Helper()

	event := &domain.Event{
		Sequence:  "42",
		URL:       "https://example.com/texas/flooding",
		SlimTitle: "Flooding closes roads",
		Features:  []string{"weather"},
	}
	result := &domain.TagResult{
		Locations: []domain.LocationCandidate{{LocationName: "Texas", LocationType: domain.AdminArea}},
	}

	ev, err := audit.TaggedEvent(event, result, mode)
	require.NoError(t, err)
	return ev
}

func TestNilPublisherIsNoop(t *testing.T) {
	t.Parallel()

	p := audit.NewPublisher(nil, "", 0, nil, logger.NewNop())
	assert.Nil(t, p)
	require.NoError(t, p.Publish(context.Background(), infraevents.TaggingEvent{}))
	p.PublishAsync(infraevents.TaggingEvent{})
	p.Wait()
}

func TestPublisher_Publish(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	p := audit.NewPublisher(client, "", 100, nil, logger.NewNop())

	require.NoError(t, p.Publish(context.Background(), sampleEvent(t, domain.ModePredict)))

	msgs, err := client.XRange(context.Background(), infraevents.DefaultStreamName, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	raw, ok := msgs[0].Values["event"].(string)
	require.True(t, ok)

	var decoded struct {
		EventType string `json:"event_type"`
		Sequence  string `json:"sequence"`
		Payload   struct {
			Locations string `json:"locations"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, string(infraevents.LocationsTagged), decoded.EventType)
	assert.Equal(t, "42", decoded.Sequence)
	assert.Contains(t, decoded.Payload.Locations, `"locationName":"Texas"`)
}

func TestPublisher_PublishAsyncTrainMode(t *testing.T) {
	t.Parallel()

	_, client := newRedis(t)
	p := audit.NewPublisher(client, "audit-test", 0, nil, logger.NewNop())

	p.PublishAsync(sampleEvent(t, domain.ModeTrain))
	p.Wait()

	msgs, err := client.XRange(context.Background(), "audit-test", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Values["event"], string(infraevents.FeaturesExtracted))
}

type outcomes map[string]int

func (o outcomes) ObserveAudit(outcome string) { o[outcome]++ }

func TestPublisher_PublishError(t *testing.T) {
	t.Parallel()

	mr, client := newRedis(t)
	obs := outcomes{}
	p := audit.NewPublisher(client, "", 0, obs, logger.NewNop())

	mr.Close()

	require.Error(t, p.Publish(context.Background(), sampleEvent(t, domain.ModePredict)))
	assert.Equal(t, outcomes{"error": 1}, obs)
}
