package pdf

import (
	"errors"
	"fmt"
)

// NoContentError reports a page with no detectable content box (a blank
// page). It is recoverable: the page is dropped from statistics but still
// listed in the report.
type NoContentError struct {
	Page int
}

func (e *NoContentError) Error() string {
	return fmt.Sprintf("page %d: no content detected", e.Page)
}

func IsNoContent(err error) bool {
	var nc *NoContentError
	return errors.As(err, &nc)
}
