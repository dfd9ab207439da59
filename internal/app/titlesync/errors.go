package titlesync

import (
	"errors"
	"fmt"

	"github.com/EVE-University/unistudent/internal/app/system/esi"
)

var (
	// ErrCredentialUnavailable means the owner holds no usable token for
	// the title scope. The owner is marked invalid.
	ErrCredentialUnavailable = errors.New("titlesync: no valid token for owner")

	// ErrNotModified means ESI reported no change. The owner record is left
	// untouched and the attempt counts as a failure.
	ErrNotModified = esi.ErrNotModified

	// ErrNoMapping means the corporation has no title mapped to a group.
	ErrNoMapping = errors.New("titlesync: no title mapping for corporation")

	// ErrCandidatesExhausted means every owner of a corporation failed.
	ErrCandidatesExhausted = errors.New("titlesync: all candidates exhausted")

	// ErrSweepInProgress is returned when a sweep is requested while one runs.
	ErrSweepInProgress = errors.New("titlesync: sweep already in progress")
)

// RemoteError wraps any ESI failure other than not-modified: transport
// errors, timeouts, HTTP errors and undecodable payloads. The owner is
// marked invalid.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("titlesync: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemote reports whether err is a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
