package transport

import "errors"

var (
	// ErrProtocolParse reports a malformed status or header line, or a
	// line exceeding the configured maximum length.
	ErrProtocolParse = errors.New("fetch: malformed response")

	// ErrLengthMismatch reports disagreeing declared and self-described
	// body lengths, or a declared length beyond the response maximum.
	ErrLengthMismatch = errors.New("fetch: response length mismatch")

	// ErrContentType reports a response Content-Type missing the expected
	// substring.
	ErrContentType = errors.New("fetch: unexpected content type")

	// ErrRedirectLocation reports a redirect status without a Location
	// header when the caller asked for redirect capture.
	ErrRedirectLocation = errors.New("fetch: redirect without location")

	// ErrTooLarge reports an undeclared-length body exceeding the
	// response maximum during the streaming read.
	ErrTooLarge = errors.New("fetch: response too large")
)
