package dataset

import "fmt"

// InvalidSourceError reports a data source that cannot be read: a path that
// does not exist or has the wrong kind, a malformed archive, or table
// content that does not parse.
type InvalidSourceError struct {
	Source string
	Reason string
	Err    error
}

func (e *InvalidSourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data source %q: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid data source %q: %s", e.Source, e.Reason)
}

func (e *InvalidSourceError) Unwrap() error {
	return e.Err
}

// MissingFileError reports a required table absent from a data source.
type MissingFileError struct {
	Source string
	Name   string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("data source %q must contain %s", e.Source, e.Name)
}
