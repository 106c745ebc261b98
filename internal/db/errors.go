package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	// ErrBadRequest marks a request the backend rejected as malformed; retrying cannot help.
	ErrBadRequest = errors.New("db: bad request")
)

// Op constants name backend operations for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpGet         = "GET"
	OpSet         = "SET"

	OpPointsSearch  = "points/search"
	OpPointsScroll  = "points/scroll"
	OpGetCollection = "collections/get"
	OpPutCollection = "collections/put"
	OpPayloadIndex  = "collections/index"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
