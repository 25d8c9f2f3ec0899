package driven

import "context"

// PostProcessor is one stage of the text segmenter.
// Stages are chained in a pipeline (e.g., chunking, cleaning).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the pieces produced by the previous stage and returns
	// the pieces for the next. The first stage receives the whole text as a
	// single piece.
	Process(ctx context.Context, pieces []string) ([]string, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Segment runs text through all processors in order and returns the
	// final chunk texts. Identical input yields identical output.
	Segment(ctx context.Context, text string) ([]string, error)
}
