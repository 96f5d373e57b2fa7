package classification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	infraerrors "github.com/jonesrussell/north-cloud/geotagger/infrastructure/errors"
	infrahttp "github.com/jonesrussell/north-cloud/geotagger/infrastructure/http"
)

// predictRequest is the body of POST /predict on the model sidecar.
type predictRequest struct {
	Names    []string  `json:"names"`
	Features []float64 `json:"features"`
}

type healthResponse struct {
	ModelVersion string `json:"model_version"`
}

// SidecarClient calls a model server over HTTP.
type SidecarClient struct {
	baseURL string
	http    *http.Client
}

// NewSidecarClient creates a client for the model server at baseURL.
func NewSidecarClient(baseURL string, connectTimeout, timeout time.Duration) *SidecarClient {
	return &SidecarClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: infrahttp.NewClient(&infrahttp.ClientConfig{
			ConnectTimeout: connectTimeout,
			Timeout:        timeout,
		}),
	}
}

// Predict sends the feature vector to POST /predict.
func (s *SidecarClient) Predict(ctx context.Context, names []string, values []float64) (Prediction, error) {
	body, err := json.Marshal(predictRequest{Names: names, Features: values})
	if err != nil {
		return Prediction{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if httpErr := infraerrors.ParseHTTPError(resp); httpErr != nil {
		return Prediction{}, infraerrors.WrapWithContext(httpErr, "model server")
	}

	var p Prediction
	if decodeErr := json.NewDecoder(resp.Body).Decode(&p); decodeErr != nil {
		return Prediction{}, fmt.Errorf("decode response: %w", decodeErr)
	}
	if p.Probability < 0 || p.Probability > 1 {
		return Prediction{}, fmt.Errorf("probability %v out of range", p.Probability)
	}
	return p, nil
}

// Health calls GET /health and returns the model version.
func (s *SidecarClient) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("model server unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unhealthy status: %d", resp.StatusCode)
	}

	// The version is informational; a body that does not decode is still healthy.
	var h healthResponse
	_ = json.NewDecoder(resp.Body).Decode(&h)
	return h.ModelVersion, nil
}
