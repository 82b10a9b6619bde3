package xmltree

import "errors"

// Parse errors.
var (
	// ErrMalformedMarkup indicates the payload is not well-formed XML.
	ErrMalformedMarkup = errors.New("malformed XML markup")

	// ErrDocumentTooLarge indicates the payload exceeds MaxDocumentSize.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")
)
