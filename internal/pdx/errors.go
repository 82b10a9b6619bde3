package pdx

import "errors"

// Archive errors.
var (
	// ErrCorruptArchive indicates the container cannot be opened or an
	// entry cannot be decompressed.
	ErrCorruptArchive = errors.New("corrupt PDX archive")

	// ErrArchiveTooLarge indicates the container exceeds MaxArchiveSize.
	ErrArchiveTooLarge = errors.New("archive exceeds maximum size")

	// ErrEntryTooLarge indicates an entry exceeds MaxEntrySize.
	ErrEntryTooLarge = errors.New("archive entry exceeds maximum size")

	// ErrEntryNotFound indicates the named entry does not exist.
	ErrEntryNotFound = errors.New("archive entry not found")
)
