package classifier

// MockClassifier returns canned probabilities, for tests. When a feature
// vector's frequency entry (index 1) matches a key in ByFrequency, that
// probability is returned; otherwise Probability.
type MockClassifier struct {
	Probability float64
	ByFrequency map[int]float64
	Features    int
}

// NewMockClassifier returns a mock that always predicts p.
func NewMockClassifier(p float64) *MockClassifier {
	return &MockClassifier{Probability: p, Features: 6}
}

func (m *MockClassifier) PredictProbability(features []float64) (float64, error) {
	if m.ByFrequency != nil && len(features) > 1 {
		if p, ok := m.ByFrequency[int(features[1])]; ok {
			return p, nil
		}
	}
	return m.Probability, nil
}

func (m *MockClassifier) NumFeatures() int {
	if m.Features == 0 {
		return 6
	}
	return m.Features
}

func (m *MockClassifier) Close() error { return nil }
