package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

type predictRequest struct {
	Text string `json:"text"`
}

type predictResponse struct {
	Label *int `json:"label"`
}

// HTTPClassifier calls a prediction service that answers
// {"label": 1} for gambling promotion and {"label": 0} otherwise.
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPClassifier(endpoint string, timeout time.Duration) (*HTTPClassifier, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClassifier) Classify(ctx context.Context, text string) (violating bool, err error) {
	start := time.Now()
	defer func() { observe(ProviderHTTP, start, err) }()

	body, err := sonic.Marshal(predictRequest{Text: text})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return false, fmt.Errorf("failed to read prediction: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("prediction service returned %s", resp.Status)
	}

	var out predictResponse
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("failed to decode prediction: %w", err)
	}
	if out.Label == nil {
		return false, fmt.Errorf("prediction has no label")
	}
	return *out.Label == 1, nil
}
