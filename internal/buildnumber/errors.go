package buildnumber

import "errors"

// Resolution errors. Resolve never returns them; they reach the log and the
// metrics reporter before the output degrades to Unknown.
var (
	// ErrExtraction indicates the repository could not be found or read.
	ErrExtraction = errors.New("extract git info")

	// ErrEmptyRevision indicates an extractor reported success without a revision.
	ErrEmptyRevision = errors.New("extractor returned an empty revision")

	// ErrFormatting indicates the custom buildnumber expression failed.
	ErrFormatting = errors.New("format buildnumber")

	// ErrNoValue indicates the custom expression evaluated to an absent value.
	ErrNoValue = errors.New("buildnumber expression returned no value")

	// ErrNoEvaluator indicates a custom expression was configured without an evaluator.
	ErrNoEvaluator = errors.New("no expression evaluator configured")

	// ErrCacheConsistency indicates a populated cache entry without a revision.
	ErrCacheConsistency = errors.New("cached git info has no revision")

	// ErrUnexpected wraps a panic recovered at the top of Resolve.
	ErrUnexpected = errors.New("unexpected failure")
)

// Degradation reasons reported to MetricsReporter.
const (
	ReasonExtraction       = "extraction"
	ReasonFormatting       = "formatting"
	ReasonCacheConsistency = "cache_consistency"
	ReasonUnexpected       = "unexpected"
)

// DegradeReason classifies err into one of the Reason* labels.
func DegradeReason(err error) string {
	switch {
	case errors.Is(err, ErrCacheConsistency):
		return ReasonCacheConsistency
	case errors.Is(err, ErrFormatting):
		return ReasonFormatting
	case errors.Is(err, ErrExtraction):
		return ReasonExtraction
	default:
		return ReasonUnexpected
	}
}
