package predictor

import (
	"context"
	"sync"

	"moodcheck/internal/domain"
)

// MockClient permite tests y uso offline sin el backend real.
type MockClient struct {
	Classification domain.Classification
	PredictErr     error
	StoreErr       error

	mu        sync.Mutex
	usernames []string
	records   []domain.DemographicRecord
}

func NewMockClient(c domain.Classification) *MockClient {
	return &MockClient{Classification: c}
}

func (m *MockClient) Predict(ctx context.Context, username string) (domain.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usernames = append(m.usernames, username)
	if m.PredictErr != nil {
		return domain.ClassificationUnknown, m.PredictErr
	}
	if m.Classification == "" {
		return domain.ClassificationNotDepressed, nil
	}
	return m.Classification, nil
}

func (m *MockClient) StoreDemographics(ctx context.Context, record domain.DemographicRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return m.StoreErr
}

// SetStoreErr cambia el error de StoreDemographics de forma segura.
func (m *MockClient) SetStoreErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreErr = err
}

func (m *MockClient) PredictCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.usernames...)
}

func (m *MockClient) Records() []domain.DemographicRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DemographicRecord(nil), m.records...)
}
