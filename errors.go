package fetch

import (
	"github.com/valder/go-fetch/internal/codec"
	"github.com/valder/go-fetch/internal/dialer"
	"github.com/valder/go-fetch/internal/model"
	"github.com/valder/go-fetch/internal/proxy"
	"github.com/valder/go-fetch/internal/transport"
	"github.com/valder/go-fetch/internal/urlparse"
)

// Every failure the engine returns wraps exactly one of these kinds, so
// callers branch with errors.Is. All of them are recoverable at the call
// boundary; resources a call acquired are released before it returns.
var (
	ErrURLParse         = urlparse.ErrParse
	ErrProxyResolve     = proxy.ErrResolve
	ErrConnect          = dialer.ErrConnect
	ErrTunnelRejected   = dialer.ErrTunnelRejected
	ErrHook             = dialer.ErrHook
	ErrTimeout          = model.ErrTimeout
	ErrBadHeader        = model.ErrBadHeader
	ErrProtocolParse    = transport.ErrProtocolParse
	ErrLengthMismatch   = transport.ErrLengthMismatch
	ErrContentType      = transport.ErrContentType
	ErrRedirectLocation = transport.ErrRedirectLocation
	ErrTooLarge         = transport.ErrTooLarge
	ErrCodec            = codec.ErrCodec
)
