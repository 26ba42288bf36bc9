package importer

import "errors"

// StructuralError aborts a whole import before any row is written. Message
// is safe to show to the person who uploaded the file.
type StructuralError struct {
	Message string
	Err     error
}

func (e *StructuralError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StructuralError) Unwrap() error { return e.Err }

// IsStructural reports whether err is, or wraps, a StructuralError.
func IsStructural(err error) (*StructuralError, bool) {
	var se *StructuralError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func structural(msg string) *StructuralError {
	return &StructuralError{Message: msg}
}

const (
	msgUnreadable       = "Unable to open uploaded file."
	msgEmpty            = "CSV file is empty."
	msgInvalidSelection = "Invalid column selection provided."
	msgInvalidSnapshot  = "Invalid snapshot date provided."
	msgNoSnapshot       = "Please provide a snapshot date."
	msgUnsupportedKind  = "Unsupported import type."
)
