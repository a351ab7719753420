package model

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/valder/go-fetch/internal/urlparse"
)

// ErrBadHeader marks a caller-supplied header line the engine refuses to
// put on the wire.
var ErrBadHeader = errors.New("fetch: invalid header line")

// PreparedRequest is a Request resolved against its target: method fixed,
// request path chosen (origin or proxy-absolute form), Host header derived
// and extra header lines validated.
type PreparedRequest struct {
	*Request

	Method      string
	RequestPath string
	HeaderHost  string
	Headers     []string
}

// Prepare resolves r against the parsed target. viaProxy selects the
// proxy-absolute request path used for plain HTTP sent through a proxy
// without a tunnel.
func (r *Request) Prepare(u *urlparse.URL, viaProxy bool) (*PreparedRequest, error) {
	pr := &PreparedRequest{
		Request:    r,
		Method:     "GET",
		HeaderHost: u.HostHeader(),
	}
	if r.Body != nil {
		pr.Method = "POST"
	}

	pr.RequestPath = u.Path
	if viaProxy {
		pr.RequestPath = "http://" + u.HostPort() + u.Path
	}

	// extra header lines are passed through verbatim, but never unvalidated:
	// a caller must not be able to smuggle a second request through them
	for _, line := range r.Headers {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !httpguts.ValidHeaderFieldName(name) {
			return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
		}
		value = strings.TrimSpace(value)
		if !httpguts.ValidHeaderFieldValue(value) {
			return nil, fmt.Errorf("%w: %q", ErrBadHeader, line)
		}
		if strings.EqualFold(name, "Host") {
			// caller-defined host wins over the derived one
			pr.HeaderHost = value
			continue
		}
		pr.Headers = append(pr.Headers, name+": "+value)
	}
	return pr, nil
}
