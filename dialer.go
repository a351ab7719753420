package fetch

import (
	"github.com/valder/go-fetch/internal/dialer"
	"github.com/valder/go-fetch/internal/proxy"
)

// CoreDialer builds connections for the engine: it resolves the proxy
// decision, dials directly or through the proxy (tunneling with CONNECT
// for TLS targets) and runs the upgrade hook around every connection it
// establishes. The zero value dials directly using the process
// environment for proxy defaults.
type CoreDialer = dialer.CoreDialer

// ConnHook is the upgrade hook: the sole extension point for layering TLS
// or interposing diagnostics on engine-dialed connections.
type ConnHook = dialer.ConnHook

// TLSHook is the built-in [ConnHook] that layers a TLS client over the
// connection when the target requires it.
var TLSHook = dialer.TLSHook

// DiagnosticSink receives CONNECT negotiation detail for interactive
// callers.
type DiagnosticSink = dialer.DiagnosticSink

// Tunnel performs the HTTP CONNECT handshake over an established proxy
// connection.
var Tunnel = dialer.Tunnel

// ProxySpec is a resolved proxy endpoint.
type ProxySpec = proxy.Spec

// ProxyResolver decides whether, and through which proxy, a target is
// reached.
type ProxyResolver = proxy.Resolver

// ProxyEnvSnapshot captures the http_proxy / https_proxy / no_proxy
// environment once, preferring lowercase names over uppercase ones.
var ProxyEnvSnapshot = proxy.EnvSnapshot
