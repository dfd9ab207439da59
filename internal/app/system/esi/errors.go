package esi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotModified is returned when ESI answers 304 to a conditional request.
var ErrNotModified = errors.New("esi: not modified")

const bodyExcerptLen = 200

// StatusError is returned for any non-200, non-304 response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func newStatusError(code int, url string, body []byte) *StatusError {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > bodyExcerptLen {
		excerpt = excerpt[:bodyExcerptLen]
	}
	return &StatusError{StatusCode: code, URL: url, Body: excerpt}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("esi: HTTP %d for URL %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
