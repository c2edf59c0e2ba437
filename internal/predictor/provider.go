package predictor

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"moodcheck/internal/domain"
)

const (
	ModeHTTP = "http"
	ModeMock = "mock"
)

// New elige la implementacion segun PREDICTOR_MODE.
func New(mode, baseURL string, timeout time.Duration, logger *zap.Logger) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeHTTP:
		return NewHTTPClient(baseURL, timeout, logger), nil
	case ModeMock:
		return NewMockClient(domain.ClassificationNotDepressed), nil
	default:
		return nil, fmt.Errorf("unknown predictor mode %q", mode)
	}
}
