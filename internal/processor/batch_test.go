package processor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/processor"
)

// echoTagger returns the sequence as the only location name. Sequence
// "fail" errors and "panic" panics.
type echoTagger struct{}

func (echoTagger) Tag(_ context.Context, event *domain.Event, _ domain.Mode) (domain.TagResult, error) {
	switch event.Sequence {
	case "fail":
		return domain.TagResult{}, errors.New("boom")
	case "panic":
		panic("bad event")
	case "slow":
		time.Sleep(20 * time.Millisecond)
	}
	return domain.TagResult{
		Locations: []domain.LocationCandidate{{LocationName: string(event.Sequence)}},
		Features:  []string{"tag"},
	}, nil
}

func events(seqs ...string) []*domain.Event {
	out := make([]*domain.Event, 0, len(seqs))
	for _, s := range seqs {
		out = append(out, &domain.Event{Sequence: domain.ID(s)})
	}
	return out
}

func TestBatchProcessor_PreservesOrder(t *testing.T) {
	t.Parallel()

	p := processor.NewBatchProcessor(echoTagger{}, 3, logger.NewNop())
	results := p.Process(context.Background(), events("slow", "a", "b", "slow", "c"), domain.ModePredict)

	require.Len(t, results, 5)
	for i, want := range []string{"slow", "a", "b", "slow", "c"} {
		require.NoError(t, results[i].Error)
		assert.Equal(t, want, results[i].Result.Locations[0].LocationName)
	}
}

func TestBatchProcessor_FailuresAreIsolated(t *testing.T) {
	t.Parallel()

	p := processor.NewBatchProcessor(echoTagger{}, 0, logger.NewNop())
	results := p.Process(context.Background(), events("a", "fail", "panic", "b"), domain.ModePredict)

	require.Len(t, results, 4)
	require.NoError(t, results[0].Error)
	require.Error(t, results[1].Error)
	require.Error(t, results[2].Error)
	require.NoError(t, results[3].Error)
	assert.Equal(t, domain.EmptyResult(), results[1].Result)
	assert.Equal(t, domain.EmptyResult(), results[2].Result)
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.NewBatchProcessor(echoTagger{}, 2, logger.NewNop()).
		Process(ctx, events("a", "b"), domain.ModePredict)
	for _, r := range results {
		require.ErrorIs(t, r.Error, context.Canceled)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	t.Parallel()

	results := processor.NewBatchProcessor(echoTagger{}, 2, logger.NewNop()).
		Process(context.Background(), nil, domain.ModePredict)
	assert.Empty(t, results)
}
