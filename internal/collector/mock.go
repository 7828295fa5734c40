package collector

import (
	"context"

	"UpkeepSentinel/internal/model"
)

// MockFetcher returns controllable fixed results for development and testing.
type MockFetcher struct {
	Source  string
	Results []model.FetchResult
	Calls   int
}

func (m *MockFetcher) Name() string {
	if m.Source == "" {
		return "mock"
	}
	return m.Source
}

// Fetch returns Results in order and repeats the last one once they run out.
func (m *MockFetcher) Fetch(_ context.Context, _ Request) model.FetchResult {
	m.Calls++
	if len(m.Results) == 0 {
		return model.EmptyResult(m.Name())
	}
	i := m.Calls - 1
	if i >= len(m.Results) {
		i = len(m.Results) - 1
	}
	res := m.Results[i]
	if res.Source == "" {
		res.Source = m.Name()
	}
	return res
}
