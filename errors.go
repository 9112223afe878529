package audioprobe

import "github.com/simonhull/audioprobe/internal/types"

// UnsupportedFormatError indicates the file is not a recognized audio
// format.
type UnsupportedFormatError = types.UnsupportedFormatError

// ParseError indicates the file claims a supported format but its
// essential structures are corrupted beyond recovery.
type ParseError = types.ParseError

// Warning describes a non-fatal issue encountered during parsing.
type Warning = types.Warning
