package model

import "time"

const (
	// DefaultMaxHeaderLine bounds a single status or header line read from
	// the server. A longer line is a protocol error, never truncated.
	DefaultMaxHeaderLine = 4096

	// DefaultMaxResponse bounds the response body, declared or streamed.
	DefaultMaxResponse = 100000
)

// Limits are the caller-chosen bounds for one exchange.
type Limits struct {
	// Timeout derives the call deadline: positive means now+Timeout, zero
	// means no deadline, negative means already expired.
	Timeout time.Duration

	MaxHeaderLine int
	MaxResponse   int64

	// ExpectContentType, when non-empty, must occur as a substring of the
	// response Content-Type or the call fails.
	ExpectContentType string

	// SelfLengthBody marks the body as a self-describing structured value
	// whose length prefix the codec can read. The self-described length
	// must agree exactly with any declared Content-Length.
	SelfLengthBody bool
}

// WithDefaults fills in zero-valued bounds. Timeout stays untouched since
// zero is meaningful there.
func (l Limits) WithDefaults() Limits {
	if l.MaxHeaderLine <= 0 {
		l.MaxHeaderLine = DefaultMaxHeaderLine
	}
	if l.MaxResponse <= 0 {
		l.MaxResponse = DefaultMaxResponse
	}
	return l
}
