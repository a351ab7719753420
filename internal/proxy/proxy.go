// Package proxy decides whether, and through which proxy, a target host is
// reached. The decision layers an explicit per-call proxy string over an
// environment snapshot, with a no-proxy exclusion list trumping both.
package proxy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/http/httpproxy"

	"github.com/valder/go-fetch/internal/urlparse"
)

// ErrResolve is the kind every proxy resolution failure wraps.
var ErrResolve = errors.New("fetch: proxy resolution failed")

// Spec is a resolved proxy endpoint. Any path in the supplied proxy string
// is parsed then discarded.
type Spec struct {
	Host string
	Port string

	// Auth is the "user:pass" credential embedded in the proxy string,
	// empty when the string carried none.
	Auth string
}

// Resolver holds the inputs of one resolution. The zero value resolves
// purely from the process environment.
type Resolver struct {
	// Proxy is the explicit proxy string. nil means unset, so the
	// environment applies; a pointer to the empty string means
	// "explicitly no proxy" and is terminal.
	Proxy *string

	// NoProxy is the explicit exclusion list. nil means unset, so the
	// environment list applies; an empty non-nil list excludes nothing.
	NoProxy []string

	// Env is a read-only environment snapshot. nil captures the process
	// environment on first use.
	Env *httpproxy.Config
}

// EnvSnapshot reads the proxy environment once, preferring the lowercase
// variable over its uppercase variant for each of http_proxy, https_proxy
// and no_proxy.
func EnvSnapshot() *httpproxy.Config {
	return &httpproxy.Config{
		HTTPProxy:  envFirst("http_proxy", "HTTP_PROXY"),
		HTTPSProxy: envFirst("https_proxy", "HTTPS_PROXY"),
		NoProxy:    envFirst("no_proxy", "NO_PROXY"),
	}
}

func envFirst(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Resolve produces the proxy to use for host, or nil for a direct
// connection. isTLS selects which environment variable pair applies when
// no explicit proxy was given.
func (r *Resolver) Resolve(host string, isTLS bool) (*Spec, error) {
	candidate := ""
	switch {
	case r.Proxy != nil && *r.Proxy == "":
		return nil, nil
	case r.Proxy != nil:
		candidate = *r.Proxy
	default:
		env := r.env()
		if isTLS {
			candidate = env.HTTPSProxy
		} else {
			candidate = env.HTTPProxy
		}
		if candidate == "" {
			return nil, nil
		}
	}

	candidate, auth := splitAuth(candidate)
	u, err := urlparse.Parse(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: proxy %q: %v", ErrResolve, candidate, err)
	}

	noProxy := r.NoProxy
	if noProxy == nil {
		noProxy = splitNoProxy(r.env().NoProxy)
	}
	if matchNoProxy(noProxy, host) {
		return nil, nil
	}
	return &Spec{Host: u.Host, Port: u.Port, Auth: auth}, nil
}

// splitAuth lifts the user:pass credential out of a proxy string, leaving
// a dialable remainder. The credential ends at the last "@" of the
// authority, so passwords containing "@" survive.
func splitAuth(candidate string) (rest, auth string) {
	s := candidate
	prefix := ""
	if i := strings.Index(s, "://"); i >= 0 {
		prefix = s[:i+3]
		s = s[i+3:]
	}
	authority := s
	if j := strings.IndexByte(s, '/'); j >= 0 {
		authority = s[:j]
	}
	if at := strings.LastIndexByte(authority, '@'); at >= 0 {
		auth = authority[:at]
		s = s[at+1:]
	}
	return prefix + s, auth
}

func (r *Resolver) env() *httpproxy.Config {
	if r.Env == nil {
		r.Env = EnvSnapshot()
	}
	return r.Env
}

func splitNoProxy(list string) []string {
	var out []string
	for _, e := range strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		out = append(out, e)
	}
	return out
}

// matchNoProxy implements the exclusion policy: case-insensitive exact
// host match, or suffix match on domain labels, port-insensitive.
// "example.test" and ".example.test" both exclude example.test and every
// host beneath it; "*" excludes everything.
func matchNoProxy(list []string, host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, entry := range list {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if entry == "*" {
			return true
		}
		entry = strings.TrimSuffix(entry, ".")
		entry = strings.TrimPrefix(entry, ".")
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
