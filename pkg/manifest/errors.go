package manifest

import (
	"errors"
	"fmt"
)

var (
	ErrNoURL        = errors.New("no manifest URL")
	ErrNoContent    = errors.New("no content file in archive")
	errMalformedRow = errors.New("malformed definition JSON")
)

// ManifestError reports a catalog that could not be obtained. Stage is one of
// "download", "unpack" or "read".
type ManifestError struct {
	URL   string
	Stage string
	Err   error
}

func (e *ManifestError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("manifest %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("manifest %s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// DefinitionError reports one catalog row that could not be parsed. It is
// logged and the row skipped.
type DefinitionError struct {
	Table string
	Row   int
	Hash  int64
	Err   error
}

func (e *DefinitionError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("definition %s row %d: %v", e.Table, e.Row, e.Err)
	}
	return fmt.Sprintf("definition %s %d: %v", e.Table, e.Hash, e.Err)
}

func (e *DefinitionError) Unwrap() error { return e.Err }
