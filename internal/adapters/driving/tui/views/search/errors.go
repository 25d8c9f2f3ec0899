package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoPipelineService indicates that no pipeline service was provided.
	ErrNoPipelineService = errors.New("pipeline service is required")

	// ErrNoAnswerService indicates that answer synthesis is not configured.
	ErrNoAnswerService = errors.New("answer synthesis is not configured")

	// ErrNothingToSave indicates there are no results to write.
	ErrNothingToSave = errors.New("no results to save")
)
