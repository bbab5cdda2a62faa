package http

import "errors"

// Connection-level failures. Each one is terminal for the connection it
// occurred on and never escalates past the worker serving it.
var (
	ErrMalformedRequestLine = errors.New("http: malformed request line")
	ErrInvalidContentLength = errors.New("http: invalid content-length")
	ErrTruncatedBody        = errors.New("http: truncated body")
	ErrLineTooLong          = errors.New("http: line too long")
	ErrConnectionRead       = errors.New("http: connection read error")
	ErrConnectionWrite      = errors.New("http: connection write error")
)

// ErrDirectoryNotConfigured is returned by the /files/ route when the server
// was started without a served directory.
var ErrDirectoryNotConfigured = errors.New("http: served directory not configured")

var (
	ErrInvalidWorkerCount = errors.New("http: worker count must be positive")
	ErrPoolClosed         = errors.New("http: worker pool closed")
	ErrServerClosed       = errors.New("http: server closed")
)
