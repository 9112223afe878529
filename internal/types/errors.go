package types

import "fmt"

// UnsupportedFormatError is returned when a file's format cannot be
// identified or no parser is registered for it.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: unsupported format: %s", e.Path, e.Reason)
}

// ParseError is returned when a file's structure is too damaged to
// extract anything meaningful, e.g. a truncated header or a container
// whose mandatory fields cannot be read.
type ParseError struct {
	Path   string
	Reason string
	Offset int64
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: parse error at offset %d: %s", e.Path, e.Offset, e.Reason)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent metadata extraction but
// may point at corrupted or unusual data: an oversized frame that was
// skipped, a chunk length clamped to the file size, an undecodable
// string. Warnings are collected in File.Warnings.
type Warning struct {
	// Stage where the warning occurred ("metadata", "technical", "artwork")
	Stage string

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
