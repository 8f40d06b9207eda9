package repo

import "context"

// ClassifierRepo is the stock relevance classification interface.
type ClassifierRepo interface {
	// Classify reports whether the text is stock related and returns the
	// model's analysis. Faults degrade to (false, ""), never an error.
	Classify(ctx context.Context, text string) (bool, string)
}
