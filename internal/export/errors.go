package export

import "errors"

// Sentinel errors for export operations.
var (
	// ErrEmptyResult indicates a save was attempted with no batch result.
	ErrEmptyResult = errors.New("empty batch result")
)
