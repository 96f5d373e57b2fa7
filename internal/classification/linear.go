package classification

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrFeatureMismatch is returned when a vector does not carry the
	// features the model was trained on.
	ErrFeatureMismatch = errors.New("feature vector does not match model")
	errEmptyModel      = errors.New("model has no features")
)

// decisionThreshold separates positive and negative labels.
const decisionThreshold = 0.5

// LinearModel is a standardized logistic regression exported to YAML:
//
//	version: "2024-03"
//	intercept: -1.2
//	features:
//	  - {name: ALL_CAP_FIRST_POS, mean: 0.4, scale: 0.9, weight: 0.31}
type LinearModel struct {
	Version   string          `yaml:"version"`
	Intercept float64         `yaml:"intercept"`
	Features  []LinearFeature `yaml:"features"`

	index map[string]int
}

// LinearFeature is one standardized input of a LinearModel.
type LinearFeature struct {
	Name   string  `yaml:"name"`
	Mean   float64 `yaml:"mean"`
	Scale  float64 `yaml:"scale"`
	Weight float64 `yaml:"weight"`
}

// LoadLinearModel reads a LinearModel from a YAML file.
func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseLinearModel(data)
}

// ParseLinearModel decodes and indexes a LinearModel.
func ParseLinearModel(data []byte) (*LinearModel, error) {
	var m LinearModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if len(m.Features) == 0 {
		return nil, errEmptyModel
	}

	m.index = make(map[string]int, len(m.Features))
	for i, f := range m.Features {
		if _, dup := m.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate feature %q", f.Name)
		}
		m.index[f.Name] = i
	}
	return &m, nil
}

// Predict implements Classifier.
func (m *LinearModel) Predict(_ context.Context, names []string, values []float64) (Prediction, error) {
	if len(names) != len(values) || len(names) != len(m.Features) {
		return Prediction{}, fmt.Errorf("%w: got %d values for %d features", ErrFeatureMismatch, len(values), len(m.Features))
	}

	z := m.Intercept
	for i, name := range names {
		j, ok := m.index[name]
		if !ok {
			return Prediction{}, fmt.Errorf("%w: unknown feature %s", ErrFeatureMismatch, name)
		}
		f := m.Features[j]
		x := values[i] - f.Mean
		if f.Scale != 0 {
			x /= f.Scale
		}
		z += f.Weight * x
	}

	prob := 1 / (1 + math.Exp(-z))
	label := 0
	if prob >= decisionThreshold {
		label = 1
	}
	return Prediction{Label: label, Probability: prob}, nil
}
