// Package fetch is an embeddable HTTP(S) transfer engine for security
// tooling: it fetches or posts structured DER payloads (certificates,
// CRLs, OCSP exchanges) over HTTP, optionally through a proxy, optionally
// over TLS, under strict timeout and size bounds.
//
// The engine performs at most one exchange per call, never follows
// redirects (it reports at most one redirect target) and never pools
// connections.
package fetch

import (
	"github.com/valder/go-fetch/internal"
	"github.com/valder/go-fetch/internal/model"
)

type Client = internal.Client
type Request = model.Request
type Response = model.Response
type PreparedRequest = model.PreparedRequest

// Limits are the caller-chosen bounds of one exchange: deadline, header
// line length, response size, expected content type and self-length body
// handling.
type Limits = model.Limits

const (
	DefaultMaxHeaderLine = model.DefaultMaxHeaderLine
	DefaultMaxResponse   = model.DefaultMaxResponse
)
