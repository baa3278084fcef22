package classifier

import "testing"

func TestMockClassifierFixedProbability(t *testing.T) {
	m := NewMockClassifier(0.9)
	p, err := m.PredictProbability([]float64{1, 1, 1, -3, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if p != 0.9 {
		t.Errorf("probability = %f", p)
	}
	if m.NumFeatures() != 6 {
		t.Errorf("num features = %d", m.NumFeatures())
	}
}

func TestMockClassifierByFrequency(t *testing.T) {
	m := &MockClassifier{
		Probability: 0.1,
		ByFrequency: map[int]float64{7: 0.95},
		Features:    6,
	}
	p, _ := m.PredictProbability([]float64{1, 7, 2, -3, 0, 1})
	if p != 0.95 {
		t.Errorf("frequency-keyed probability = %f", p)
	}
	p, _ = m.PredictProbability([]float64{1, 3, 2, -3, 0, 1})
	if p != 0.1 {
		t.Errorf("fallback probability = %f", p)
	}
}

func TestXGBClassifierMissingFile(t *testing.T) {
	if _, err := LoadXGBClassifier("/nonexistent/model.bin"); err == nil {
		t.Error("expected error for missing model file")
	}
}
