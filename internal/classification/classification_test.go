package classification_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/classification"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// scripted returns a fixed prediction per first feature value.
type scripted map[float64]classification.Prediction

func (s scripted) Predict(_ context.Context, _ []string, values []float64) (classification.Prediction, error) {
	p, ok := s[values[0]]
	if !ok {
		return classification.Prediction{}, errors.New("model unavailable")
	}
	return p, nil
}

type countingObserver map[string]int

func (c countingObserver) ObserveClassification(outcome string) { c[outcome]++ }

func candidate(name string, marker float64) domain.LocationCandidate {
	return domain.LocationCandidate{
		LocationName: name,
		LocationType: domain.Locality,
		FilterFeatures: &domain.FilterFeatures{
			Names:  []string{"A"},
			Values: []float64{marker},
		},
	}
}

func names(cs []domain.LocationCandidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.LocationName)
	}
	return out
}

func TestGate_Select(t *testing.T) {
	t.Parallel()

	model := scripted{
		1: {Label: 1, Probability: 0.8},
		2: {Label: 0, Probability: 0.4},
		3: {Label: 1, Probability: 0.6},
		4: {Label: 0, Probability: 0.05},
		5: {Label: 0, Probability: 0.4},
	}

	tests := []struct {
		name       string
		candidates []domain.LocationCandidate
		want       []string
	}{
		{
			name:       "all positives kept",
			candidates: []domain.LocationCandidate{candidate("Austin", 1), candidate("Waco", 2), candidate("Dallas", 3)},
			want:       []string{"Austin", "Dallas"},
		},
		{
			name:       "best negative above minimum",
			candidates: []domain.LocationCandidate{candidate("Waco", 2), candidate("Tyler", 4)},
			want:       []string{"Waco"},
		},
		{
			name:       "equal probability keeps the later candidate",
			candidates: []domain.LocationCandidate{candidate("Waco", 2), candidate("Plano", 5)},
			want:       []string{"Plano"},
		},
		{
			name:       "nothing above minimum",
			candidates: []domain.LocationCandidate{candidate("Tyler", 4)},
			want:       []string{},
		},
		{
			name:       "classifier failure",
			candidates: []domain.LocationCandidate{candidate("Nowhere", 9)},
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gate := classification.NewGate(model, classification.DefaultMinProbability, nil, logger.NewNop())
			got := gate.Select(context.Background(), "1", tt.candidates)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestGate_Select_RecordsPrediction(t *testing.T) {
	t.Parallel()

	obs := countingObserver{}
	gate := classification.NewGate(scripted{2: {Label: 0, Probability: 0.4}}, 0.1, obs, logger.NewNop())
	cs := []domain.LocationCandidate{candidate("Waco", 2), candidate("Nowhere", 9)}

	gate.Select(context.Background(), "7", cs)

	require.NotNil(t, cs[0].FilterFeatures.Pred)
	assert.Equal(t, 0, *cs[0].FilterFeatures.Pred)
	assert.InDelta(t, 0.4, cs[0].FilterFeatures.Prob, 1e-9)
	assert.Nil(t, cs[1].FilterFeatures.Pred)
	assert.Zero(t, cs[1].FilterFeatures.Prob)
	assert.Equal(t, countingObserver{"negative": 1, "error": 1}, obs)
}

func TestSidecarClient_Predict(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Names    []string  `json:"names"`
			Features []float64 `json:"features"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"TITLE", "URL"}, body.Names)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"label":1,"probability":0.92}`))
	}))
	defer srv.Close()

	client := classification.NewSidecarClient(srv.URL+"/", time.Second, time.Second)
	p, err := client.Predict(context.Background(), []string{"TITLE", "URL"}, []float64{1, 0})

	require.NoError(t, err)
	assert.Equal(t, classification.Prediction{Label: 1, Probability: 0.92}, p)
}

func TestSidecarClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"probability out of range", http.StatusOK, `{"label":1,"probability":3}`},
		{"bad body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := classification.NewSidecarClient(srv.URL, time.Second, time.Second)
			_, err := client.Predict(context.Background(), []string{"A"}, []float64{1})
			assert.Error(t, err)
		})
	}
}

func TestSidecarClient_Health(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","model_version":"2024-03"}`))
	}))
	defer srv.Close()

	version, err := classification.NewSidecarClient(srv.URL, time.Second, time.Second).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03", version)
}

const linearYAML = `
version: test
intercept: 0
features:
  - {name: TITLE, mean: 0, scale: 1, weight: 2}
  - {name: URL, mean: 1, scale: 2, weight: 4}
`

func TestLinearModel_Predict(t *testing.T) {
	t.Parallel()

	m, err := classification.ParseLinearModel([]byte(linearYAML))
	require.NoError(t, err)

	// z = 2*1 + 4*((1-1)/2) = 2
	p, err := m.Predict(context.Background(), []string{"TITLE", "URL"}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Label)
	assert.InDelta(t, 0.8808, p.Probability, 1e-4)

	// z = 2*0 + 4*((-1-1)/2) = -4
	p, err = m.Predict(context.Background(), []string{"URL", "TITLE"}, []float64{-1, 0})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Label)
	assert.InDelta(t, 0.0180, p.Probability, 1e-4)

	_, err = m.Predict(context.Background(), []string{"TITLE"}, []float64{1})
	require.ErrorIs(t, err, classification.ErrFeatureMismatch)

	_, err = m.Predict(context.Background(), []string{"TITLE", "BODY"}, []float64{1, 1})
	require.ErrorIs(t, err, classification.ErrFeatureMismatch)
}

func TestParseLinearModel_Invalid(t *testing.T) {
	t.Parallel()

	_, err := classification.ParseLinearModel([]byte("version: x\nfeatures: []\n"))
	require.Error(t, err)

	_, err = classification.ParseLinearModel([]byte("features:\n  - {name: A}\n  - {name: A}\n"))
	require.Error(t, err)
}
