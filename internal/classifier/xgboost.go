package classifier

import (
	"fmt"

	"github.com/dmitryikh/leaves"
)

// XGBClassifier scores feature vectors with a gradient-boosted tree ensemble
// trained with XGBoost. The model file is the binary dump produced by the
// training pipeline.
type XGBClassifier struct {
	ensemble *leaves.Ensemble
}

// LoadXGBClassifier reads the model at path. The transformation (sigmoid for
// binary objectives) is loaded with the ensemble, so predictions are
// probabilities.
func LoadXGBClassifier(path string) (*XGBClassifier, error) {
	ensemble, err := leaves.XGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return &XGBClassifier{ensemble: ensemble}, nil
}

// PredictProbability scores one feature vector with all estimators.
func (c *XGBClassifier) PredictProbability(features []float64) (float64, error) {
	if len(features) != c.ensemble.NFeatures() {
		return 0, fmt.Errorf("feature vector has %d entries, model expects %d",
			len(features), c.ensemble.NFeatures())
	}
	return c.ensemble.PredictSingle(features, 0), nil
}

// NumFeatures returns the feature count the trained model expects.
func (c *XGBClassifier) NumFeatures() int { return c.ensemble.NFeatures() }

func (c *XGBClassifier) Close() error { return nil }
