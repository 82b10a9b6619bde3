package loader

import "errors"

// Batch errors. Only surrounding I/O fails a batch; per-document parse
// failures land in Result.Skipped instead.
var (
	// ErrNoInputs indicates an empty batch.
	ErrNoInputs = errors.New("no inputs to process")

	// ErrUnreadableInput indicates a file or archive could not be read.
	ErrUnreadableInput = errors.New("unreadable input")
)
