package model

import "net/http"

// Request describes one exchange. The method is derived from the body:
// nil body means GET, anything else means POST.
type Request struct {
	URL string

	// TLS forces an HTTPS exchange when the URL carries no scheme. An
	// explicit https:// scheme implies it.
	TLS bool

	Body        []byte
	ContentType string // sent on POST only

	// Headers are extra header lines in "Name: value" form, written in
	// order and verbatim after the generated ones.
	Headers []string

	// CaptureRedirect makes a 301/302 response return its Location target
	// instead of a body. The engine never follows redirects itself.
	CaptureRedirect bool
}

// Response is the validated head plus the fully-read body of one exchange.
type Response struct {
	StatusCode int
	Reason     string
	Header     http.Header

	// ContentLength is the declared length, -1 when the server did not
	// declare one.
	ContentLength int64
	ContentType   string

	Body []byte

	// Location is the redirect target when the caller requested redirect
	// capture and the server answered 301 or 302. Body is nil then.
	Location string
}

// Redirected reports whether this response carried a captured redirect
// instead of a body.
func (r *Response) Redirected() bool { return r.Location != "" }
