// Package dialer obtains ready transport handles for the exchange engine:
// direct dials, proxy dials with a CONNECT tunnel for TLS targets, and the
// connect/disconnect upgrade hook callers use to layer TLS or capture
// diagnostics.
package dialer

import (
	"crypto/tls"
	"errors"

	"golang.org/x/net/http/httpproxy"

	"github.com/valder/go-fetch/internal/proxy"
)

var (
	// ErrConnect reports a dial or tunnel transport failure.
	ErrConnect = errors.New("fetch: connect failed")

	// ErrTunnelRejected reports a non-2xx answer to the CONNECT request.
	ErrTunnelRejected = errors.New("fetch: proxy refused tunnel")

	// ErrHook reports a failure signalled by the upgrade hook.
	ErrHook = errors.New("fetch: upgrade hook failed")
)

// DiagnosticSink receives human-readable negotiation detail for
// interactive callers. A nil sink discards it.
type DiagnosticSink interface {
	Logf(format string, args ...interface{})
}

// CoreDialer is the connection builder. The zero value dials directly,
// resolves proxies from the process environment and layers TLS with the
// built-in hook when the target needs it.
//
// A CoreDialer holds no connection state, so it can be shared by
// concurrent calls and swapped on a Client without ceremony.
type CoreDialer struct {
	// Proxy is the explicit proxy string. nil defers to the environment;
	// a pointer to "" disables proxying outright.
	Proxy *string

	// NoProxy lists hosts reached directly even when a proxy is
	// configured. nil defers to the environment list.
	NoProxy []string

	// ProxyAuth is the "user:pass" credential sent as basic auth on the
	// CONNECT handshake. A credential embedded in the proxy string
	// ("user:pass@proxy.test:8080") takes precedence. Empty means no
	// credential.
	ProxyAuth string

	// Env overrides the proxy environment snapshot, for tests.
	Env *httpproxy.Config

	// Hook is invoked around every connection this dialer establishes.
	// nil selects the built-in TLS hook for TLS targets.
	Hook ConnHook

	// TLSConfig configures the built-in TLS hook. Ignored when Hook is set.
	TLSConfig *tls.Config

	// Sink receives CONNECT negotiation diagnostics.
	Sink DiagnosticSink
}

func (d *CoreDialer) resolver() *proxy.Resolver {
	return &proxy.Resolver{Proxy: d.Proxy, NoProxy: d.NoProxy, Env: d.Env}
}

func (d *CoreDialer) logf(format string, args ...interface{}) {
	if d.Sink != nil {
		d.Sink.Logf(format, args...)
	}
}
