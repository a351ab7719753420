package dialer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/valder/go-fetch/internal/model"
	"github.com/valder/go-fetch/internal/urlparse"
)

// Dialed is an engine-owned connection: the ready handle, whether plain
// HTTP requests must use the proxy-absolute request path, and the
// teardown obligation.
type Dialed struct {
	Conn model.Conn

	// ViaProxy reports that the exchange runs through an HTTP proxy
	// without a tunnel, so the request path must be absolute.
	ViaProxy bool

	hook ConnHook
}

// Dial resolves the proxy decision for target and produces a ready
// handle: a direct connection, or a proxy connection tunneled with
// CONNECT when the target needs TLS through an HTTP proxy. After the
// handle exists the upgrade hook runs once with connecting=true; its
// failure aborts the dial.
func (d *CoreDialer) Dial(ctx context.Context, target *urlparse.URL, useTLS bool, dl model.Deadline) (*Dialed, error) {
	if dl.Expired() {
		return nil, fmt.Errorf("%w: before dialing", model.ErrTimeout)
	}

	prx, err := d.resolver().Resolve(target.Host, useTLS)
	if err != nil {
		return nil, err
	}

	address := target.HostPort()
	if prx != nil {
		address = net.JoinHostPort(prx.Host, prx.Port)
		d.logf("dialing %s through proxy %s", target.HostPort(), address)
	}

	nd := net.Dialer{Deadline: dl.Time()}
	conn, err := nd.DialContext(ctx, "tcp", address)
	if err != nil {
		err = model.WrapIOError(err)
		if errors.Is(err, model.ErrTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnect, address, err)
	}

	if prx != nil && useTLS {
		auth := d.ProxyAuth
		if prx.Auth != "" {
			auth = prx.Auth
		}
		if err := Tunnel(conn, target.Host, target.Port, auth, dl, d.Sink); err != nil {
			conn.Close()
			return nil, err
		}
	}

	hook := d.Hook
	if hook == nil && useTLS {
		hook = TLSHook(d.TLSConfig, target.Host)
	}

	handle := model.Conn(conn)
	if hook != nil {
		if err := dl.Arm(handle); err != nil {
			conn.Close()
			return nil, err
		}
		upgraded, err := hook(handle, true, useTLS)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("%w: %v", ErrHook, model.WrapIOError(err))
		}
		handle = upgraded
	}

	return &Dialed{
		Conn:     handle,
		ViaProxy: prx != nil && !useTLS,
		hook:     hook,
	}, nil
}

// Close releases a connection this dialer established. The disconnect
// half of the hook runs first with the call's success flag, then the
// (possibly hook-replaced) handle is closed. Safe on every exit path.
func (d *Dialed) Close(success bool) {
	c := d.Conn
	if d.hook != nil {
		if replaced, err := d.hook(c, false, success); err == nil && replaced != nil {
			c = replaced
		}
	}
	if cl, ok := c.(io.Closer); ok {
		cl.Close()
	}
}
