// Package urlparse splits target URLs of the form [scheme://]host[:port][/path]
// into connection parameters. It is deliberately narrower than net/url: the
// engine only speaks http/https, accepts bracketed IPv6 literals and mnemonic
// service ports, and guarantees all-or-nothing results.
package urlparse

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrParse is the kind every URL parsing failure wraps.
var ErrParse = errors.New("fetch: malformed url")

// URL is the parsed form of a target. On success every field is populated
// and Path always starts with "/"; a failed parse returns nil, never a
// partial value.
type URL struct {
	Host    string
	Port    string // mnemonic or numeric token
	PortNum int
	Path    string
	IsTLS   bool
}

// Parse splits raw into host, port, path and scheme flag. Absent scheme is
// not an error and leaves IsTLS false; absent port defaults to 443 for
// https targets and 80 otherwise; absent path defaults to "/". Mnemonic
// port tokens are resolved through the system service-name lookup.
func Parse(raw string) (*URL, error) {
	return parse(raw, false)
}

// ParseNumeric is Parse with a numeric port requirement: a mnemonic
// service-name port token is an error.
func ParseNumeric(raw string) (*URL, error) {
	return parse(raw, true)
}

func parse(raw string, numeric bool) (*URL, error) {
	rest := raw
	isTLS := false
	if len(rest) >= 7 && strings.EqualFold(rest[:7], "http://") {
		rest = rest[7:]
	} else if len(rest) >= 8 && strings.EqualFold(rest[:8], "https://") {
		rest = rest[8:]
		isTLS = true
	}

	var host string
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("%w: unbalanced ipv6 brackets in %q", ErrParse, raw)
		}
		host = rest[1:end]
		rest = rest[end+1:]
		if rest != "" && rest[0] != ':' && rest[0] != '/' {
			return nil, fmt.Errorf("%w: trailing garbage after ipv6 literal in %q", ErrParse, raw)
		}
	} else {
		end := strings.IndexAny(rest, ":/")
		if end < 0 {
			end = len(rest)
		}
		host = rest[:end]
		rest = rest[end:]
	}
	if host == "" {
		return nil, fmt.Errorf("%w: empty host in %q", ErrParse, raw)
	}

	port := "80"
	if isTLS {
		port = "443"
	}
	if strings.HasPrefix(rest, ":") {
		end := strings.IndexByte(rest, '/')
		if end < 0 {
			end = len(rest)
		}
		port = rest[1:end]
		rest = rest[end:]
		if port == "" {
			return nil, fmt.Errorf("%w: empty port in %q", ErrParse, raw)
		}
	}

	portNum, err := resolvePort(port, numeric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrParse, err, raw)
	}

	path := rest
	if path == "" {
		path = "/"
	}

	return &URL{Host: host, Port: port, PortNum: portNum, Path: path, IsTLS: isTLS}, nil
}

func resolvePort(port string, numeric bool) (int, error) {
	if n, err := strconv.Atoi(port); err == nil {
		if n < 0 || n > 65535 {
			return 0, fmt.Errorf("port %d out of range", n)
		}
		return n, nil
	}
	if numeric {
		return 0, fmt.Errorf("port %q is not numeric", port)
	}
	n, err := net.LookupPort("tcp", port)
	if err != nil {
		return 0, fmt.Errorf("unknown service %q", port)
	}
	return n, nil
}

// HostPort joins host and port in the form net.Dial accepts, bracketing
// IPv6 literals.
func (u *URL) HostPort() string {
	return net.JoinHostPort(u.Host, u.Port)
}

// HostHeader renders the Host header value, omitting the port when it is
// the default for the scheme.
func (u *URL) HostHeader() string {
	if (u.IsTLS && u.PortNum == 443) || (!u.IsTLS && u.PortNum == 80) {
		if strings.Contains(u.Host, ":") {
			return "[" + u.Host + "]"
		}
		return u.Host
	}
	return net.JoinHostPort(u.Host, u.Port)
}
