package stats

import "github.com/stretchr/testify/mock"

type MockStatsUpdater struct {
	mock.Mock
}

// NewRelaxedMock returns a mock that tolerates any metric traffic.
// Individual calls can still be asserted afterwards.
func NewRelaxedMock() *MockStatsUpdater {
	m := &MockStatsUpdater{}
	m.On("RegisterMetric", mock.AnythingOfType("string")).Return()
	m.On("Incr", mock.AnythingOfType("string")).Return().Maybe()
	m.On("Decr", mock.AnythingOfType("string")).Return().Maybe()
	m.On("Run").Return().Maybe()
	return m
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}

func (m *MockStatsUpdater) Decr(name string) {
	m.Called(name)
}

func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}

func (m *MockStatsUpdater) Run() {
	m.Called()
}
