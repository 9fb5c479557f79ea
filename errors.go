package listview

import "errors"

var (
	// ErrInvalidArgument marks configuration rejected at the boundary,
	// such as a group spec naming an unknown field.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownSession is returned by a SessionStore for an expired or unknown id.
	ErrUnknownSession = errors.New("unknown session")

	// ErrNotFound is wrapped by a Source when the requested list does not exist.
	ErrNotFound = errors.New("not found")
)
