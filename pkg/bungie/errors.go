package bungie

import (
	"errors"
	"fmt"
)

var (
	ErrNoCharacters = errors.New("no characters found")
	ErrNoResponse   = errors.New("response has no payload")
)

// QueryError reports an API call that did not produce a usable payload: the
// service was unavailable, answered with a non-200 status, or returned an
// envelope without a Response.
type QueryError struct {
	Endpoint    string
	StatusCode  int
	ErrorStatus string
	Message     string
	Err         error
}

func (e *QueryError) Error() string {
	switch {
	case e.StatusCode != 0 && e.ErrorStatus != "":
		return fmt.Sprintf("query %s: status %d (%s: %s)", e.Endpoint, e.StatusCode, e.ErrorStatus, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("query %s: status %d", e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("query %s: %v", e.Endpoint, e.Err)
	}
}

func (e *QueryError) Unwrap() error { return e.Err }
