// Package classification filters candidates with the location classifier.
package classification

import (
	"context"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
)

// DefaultMinProbability is the lowest probability the best-candidate
// fallback accepts.
const DefaultMinProbability = 0.1

// Prediction is the classifier output for one feature vector.
type Prediction struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
}

// Classifier scores a feature vector. names are sorted and match values.
type Classifier interface {
	Predict(ctx context.Context, names []string, values []float64) (Prediction, error)
}

// Observer counts classifier outcomes.
type Observer interface {
	ObserveClassification(outcome string)
}

// Gate applies the selection policy over classifier output.
type Gate struct {
	classifier     Classifier
	minProbability float64
	observer       Observer
	log            logger.Logger
}

// NewGate creates a Gate. observer may be nil.
func NewGate(classifier Classifier, minProbability float64, observer Observer, log logger.Logger) *Gate {
	return &Gate{classifier: classifier, minProbability: minProbability, observer: observer, log: log}
}

// Select classifies every candidate and records the prediction in its
// filter features. It keeps all positives; without positives it keeps the
// most probable candidate when that probability reaches the minimum. A
// classifier failure counts as no label with probability zero.
func (g *Gate) Select(ctx context.Context, sequence domain.ID, candidates []domain.LocationCandidate) []domain.LocationCandidate {
	var positives []domain.LocationCandidate
	best := -1
	maxProb := 0.0

	for i := range candidates {
		c := &candidates[i]
		if c.FilterFeatures == nil {
			c.FilterFeatures = &domain.FilterFeatures{}
		}

		pred, prob := g.predict(ctx, sequence, c)
		c.FilterFeatures.Pred = pred
		c.FilterFeatures.Prob = prob

		if pred != nil && *pred == 1 {
			positives = append(positives, *c)
		}
		if prob >= maxProb && prob >= g.minProbability {
			maxProb = prob
			best = i
		}
	}

	switch {
	case len(positives) > 0:
		return positives
	case best >= 0:
		return []domain.LocationCandidate{candidates[best]}
	default:
		return []domain.LocationCandidate{}
	}
}

func (g *Gate) predict(ctx context.Context, sequence domain.ID, c *domain.LocationCandidate) (*int, float64) {
	p, err := g.classifier.Predict(ctx, c.FilterFeatures.Names, c.FilterFeatures.Values)
	if err != nil {
		g.log.Error("Classifier failed",
			logger.String("sequence", string(sequence)),
			logger.String("candidate", c.Key()),
			logger.Error(err),
		)
		g.observe("error")
		return nil, 0
	}

	if p.Label == 1 {
		g.observe("positive")
	} else {
		g.observe("negative")
	}
	label := p.Label
	return &label, p.Probability
}

func (g *Gate) observe(outcome string) {
	if g.observer != nil {
		g.observer.ObserveClassification(outcome)
	}
}
