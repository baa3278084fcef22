// Package classifier scores candidate links with the pre-trained link model.
package classifier

// Classifier is a binary scorer over a fixed-layout feature vector.
type Classifier interface {
	// PredictProbability returns the probability in [0,1] that the
	// candidate described by features is a good link.
	PredictProbability(features []float64) (float64, error)
	// NumFeatures returns the feature vector length the model expects.
	NumFeatures() int
	Close() error
}
