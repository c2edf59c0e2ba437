package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"moodcheck/internal/domain"
)

// Client define las dos llamadas al backend de prediccion.
type Client interface {
	Predict(ctx context.Context, username string) (domain.Classification, error)
	StoreDemographics(ctx context.Context, record domain.DemographicRecord) error
}

var (
	ErrUnexpectedStatus      = errors.New("predictor unexpected status")
	ErrInvalidClassification = errors.New("predictor invalid classification")
)

const DefaultBaseURL = "http://127.0.0.1:5000"

// HTTPClient implementa Client contra el backend Flask (/predict, /store_demographics).
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye el cliente; timeout <= 0 deja el http.Client sin limite.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{}
	if timeout > 0 {
		httpClient.Timeout = timeout
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

func (c *HTTPClient) Predict(ctx context.Context, username string) (domain.Classification, error) {
	bodyBytes, err := json.Marshal(predictRequest{Username: username})
	if err != nil {
		return domain.ClassificationUnknown, fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, "/predict", bodyBytes)
	if err != nil {
		return domain.ClassificationUnknown, err
	}

	var pr predictResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return domain.ClassificationUnknown, fmt.Errorf("unmarshal response: %w", err)
	}
	if pr.Error != "" {
		return domain.ClassificationUnknown, fmt.Errorf("predictor api error: %s", pr.Error)
	}
	classification, err := decodeClassification(pr.Depression)
	if err != nil {
		return domain.ClassificationUnknown, err
	}
	fields := []zap.Field{zap.String("classification", string(classification))}
	if pr.Confidence != nil {
		fields = append(fields, zap.Float64("confidence", *pr.Confidence))
	}
	c.logger.Debug("prediction received", fields...)
	return classification, nil
}

func (c *HTTPClient) StoreDemographics(ctx context.Context, record domain.DemographicRecord) error {
	bodyBytes, err := demographicsPayload(record)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	_, err = c.post(ctx, "/store_demographics", bodyBytes)
	return err
}

func (c *HTTPClient) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("predictor error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", respBody),
		)
		return nil, fmt.Errorf("%w: path=%s status=%d", ErrUnexpectedStatus, path, resp.StatusCode)
	}
	return respBody, nil
}

// demographicsPayload arma {"username": ..., "<pregunta>": "<respuesta>", ...}
// respetando el orden del cuestionario.
func demographicsPayload(record domain.DemographicRecord) ([]byte, error) {
	om := orderedmap.New[string, string]()
	om.Set("username", record.Username)
	for _, a := range record.Answers {
		om.Set(a.Question, a.Text)
	}
	return json.Marshal(om)
}

// decodeClassification acepta 0|1, booleanos y las etiquetas de texto que
// devuelve el backend de referencia.
func decodeClassification(raw json.RawMessage) (domain.Classification, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return domain.ClassificationUnknown, fmt.Errorf("%w: missing depression field", ErrInvalidClassification)
	}

	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		switch num {
		case 1:
			return domain.ClassificationLikelyDepressed, nil
		case 0:
			return domain.ClassificationNotDepressed, nil
		}
		return domain.ClassificationUnknown, fmt.Errorf("%w: %s", ErrInvalidClassification, string(raw))
	}

	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return domain.ClassificationFromFlag(flag), nil
	}

	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		switch strings.ToLower(strings.TrimSpace(label)) {
		case "1", "depressed", "likely depressed":
			return domain.ClassificationLikelyDepressed, nil
		case "0", "not depressed":
			return domain.ClassificationNotDepressed, nil
		}
	}
	return domain.ClassificationUnknown, fmt.Errorf("%w: %s", ErrInvalidClassification, string(raw))
}

type predictRequest struct {
	Username string `json:"username"`
}

type predictResponse struct {
	Depression json.RawMessage `json:"depression"`
	Confidence *float64        `json:"confidence,omitempty"`
	Error      string          `json:"error,omitempty"`
}
