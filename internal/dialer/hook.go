package dialer

import (
	"crypto/tls"
	"errors"
	"net"

	"github.com/valder/go-fetch/internal/model"
)

// ConnHook is the upgrade hook invoked around connections the dialer
// establishes itself. On connect it is called with connecting=true and
// flag reporting whether the target needs TLS; it may wrap the handle and
// return the replacement. On teardown it is called with connecting=false
// and flag reporting whether the call succeeded, before the handle is
// released. It is never invoked for caller-supplied handles.
type ConnHook func(c model.Conn, connecting bool, flag bool) (model.Conn, error)

// TLSHook is the built-in upgrade hook: it layers a TLS client over the
// dialed connection when the target needs it and passes everything else
// through. The call deadline is already armed on the handle, so the
// handshake observes it.
func TLSHook(cfg *tls.Config, serverName string) ConnHook {
	return func(c model.Conn, connecting bool, flag bool) (model.Conn, error) {
		if !connecting || !flag {
			return c, nil
		}
		nc, ok := c.(net.Conn)
		if !ok {
			return nil, errors.New("tls layering requires a net.Conn handle")
		}
		config := cfg.Clone()
		if config == nil {
			config = &tls.Config{}
		}
		if config.ServerName == "" {
			config.ServerName = serverName
		}
		tc := tls.Client(nc, config)
		if err := tc.Handshake(); err != nil {
			return nil, err
		}
		return tc, nil
	}
}
