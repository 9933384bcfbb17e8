package bill

import "errors"

// Failure signals that propagate to callers. Anything else that goes wrong
// during normalization is absorbed into safe defaults rather than surfaced.
var (
	// ErrDuplicateFile means the file's fingerprint is already stored;
	// ingestion is rejected without mutating anything.
	ErrDuplicateFile = errors.New("duplicate file")

	// ErrExtractionFailed means the extraction provider errored; no record
	// was created.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrParseFailed means the provider's response contained no recoverable
	// JSON payload.
	ErrParseFailed = errors.New("unparsable extraction payload")

	// ErrNotFound means no record exists for the requested id.
	ErrNotFound = errors.New("bill not found")
)
