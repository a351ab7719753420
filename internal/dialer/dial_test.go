package dialer

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http/httpproxy"

	"github.com/valder/go-fetch/internal/model"
	"github.com/valder/go-fetch/internal/urlparse"
)

func strptr(s string) *string { return &s }

func noProxy() *string { return strptr("") }

type hookEvent struct {
	connecting bool
	flag       bool
}

func recordingHook(events *[]hookEvent) ConnHook {
	return func(c model.Conn, connecting, flag bool) (model.Conn, error) {
		*events = append(*events, hookEvent{connecting, flag})
		return c, nil
	}
}

func listen(t *testing.T) (net.Listener, *urlparse.URL) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	u, err := urlparse.Parse("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	return ln, u
}

func TestDialDirect(t *testing.T) {
	ln, target := listen(t)
	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			accepted <- c
		}
	}()

	d := &CoreDialer{Proxy: noProxy()}
	got, err := d.Dial(context.Background(), target, false, model.NewDeadline(5*time.Second))
	require.NoError(t, err)
	defer got.Close(true)

	assert.False(t, got.ViaProxy)
	server := <-accepted
	server.Close()
}

func TestDialHookLifecycle(t *testing.T) {
	ln, target := listen(t)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	var events []hookEvent
	d := &CoreDialer{Proxy: noProxy(), Hook: recordingHook(&events)}
	got, err := d.Dial(context.Background(), target, false, model.NewDeadline(5*time.Second))
	require.NoError(t, err)
	got.Close(true)

	require.Len(t, events, 2)
	assert.Equal(t, hookEvent{connecting: true, flag: false}, events[0])
	assert.Equal(t, hookEvent{connecting: false, flag: true}, events[1])
}

func TestDialHookFailureAbortsDial(t *testing.T) {
	ln, target := listen(t)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	d := &CoreDialer{
		Proxy: noProxy(),
		Hook: func(c model.Conn, connecting, flag bool) (model.Conn, error) {
			return nil, fmt.Errorf("refused by policy")
		},
	}
	_, err := d.Dial(context.Background(), target, false, model.NewDeadline(5*time.Second))
	assert.ErrorIs(t, err, ErrHook)
}

func TestDialPlainThroughProxy(t *testing.T) {
	// the listener poses as the proxy; for plain HTTP no CONNECT happens,
	// the request itself must use the proxy-absolute path instead
	ln, _ := listen(t)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	target, err := urlparse.Parse("http://origin.test/")
	require.NoError(t, err)

	d := &CoreDialer{Proxy: strptr(ln.Addr().String()), Env: &httpproxy.Config{}}
	got, err := d.Dial(context.Background(), target, false, model.NewDeadline(5*time.Second))
	require.NoError(t, err)
	defer got.Close(true)

	assert.True(t, got.ViaProxy)
}

func TestDialTunnelThroughProxy(t *testing.T) {
	ln, _ := listen(t)
	sawConnect := make(chan string, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		br := bufio.NewReader(c)
		var head strings.Builder
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			head.WriteString(line)
			if line == "\r\n" {
				break
			}
		}
		sawConnect <- head.String()
		io.WriteString(c, "HTTP/1.0 200 Connection established\r\n\r\n")
	}()

	target, err := urlparse.Parse("https://secure.test/")
	require.NoError(t, err)

	var events []hookEvent
	d := &CoreDialer{
		Proxy: strptr(ln.Addr().String()),
		Env:   &httpproxy.Config{},
		Hook:  recordingHook(&events), // passthrough, no real TLS in this test
	}
	got, err := d.Dial(context.Background(), target, true, model.NewDeadline(5*time.Second))
	require.NoError(t, err)
	defer got.Close(true)

	assert.False(t, got.ViaProxy, "tunneled traffic uses origin-form paths")
	head := <-sawConnect
	assert.True(t, strings.HasPrefix(head, "CONNECT secure.test:443 HTTP/1.0\r\n"), "got %q", head)
	require.Len(t, events, 1)
	assert.Equal(t, hookEvent{connecting: true, flag: true}, events[0])
}

func TestDialTunnelProxyStringCredential(t *testing.T) {
	ln, _ := listen(t)
	sawConnect := make(chan string, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		br := bufio.NewReader(c)
		var head strings.Builder
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			head.WriteString(line)
			if line == "\r\n" {
				break
			}
		}
		sawConnect <- head.String()
		io.WriteString(c, "HTTP/1.0 200 Connection established\r\n\r\n")
	}()

	target, err := urlparse.Parse("https://secure.test/")
	require.NoError(t, err)

	d := &CoreDialer{
		Proxy:     strptr("user:pass@" + ln.Addr().String()),
		ProxyAuth: "shadowed:credential", // the string-embedded one wins
		Env:       &httpproxy.Config{},
		Hook:      recordingHook(new([]hookEvent)),
	}
	got, err := d.Dial(context.Background(), target, true, model.NewDeadline(5*time.Second))
	require.NoError(t, err)
	defer got.Close(true)

	head := <-sawConnect
	encoded := base64.StdEncoding.EncodeToString([]byte("user:pass"))
	assert.Contains(t, head, "Proxy-Authorization: Basic "+encoded+"\r\n", "got %q", head)
}

func TestDialNoProxyBypassesProxy(t *testing.T) {
	ln, target := listen(t)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	// the proxy address is unroutable; resolution must bypass it for the
	// excluded host and dial the target directly
	d := &CoreDialer{
		Proxy:   strptr("proxy.invalid:9"),
		NoProxy: []string{"127.0.0.1"},
	}
	got, err := d.Dial(context.Background(), target, false, model.NewDeadline(5*time.Second))
	require.NoError(t, err)
	defer got.Close(true)
	assert.False(t, got.ViaProxy)
}

func TestDialExpiredDeadline(t *testing.T) {
	target, err := urlparse.Parse("http://example.test/")
	require.NoError(t, err)

	d := &CoreDialer{Proxy: noProxy()}
	_, err = d.Dial(context.Background(), target, false, model.NewDeadline(-time.Second))
	assert.ErrorIs(t, err, model.ErrTimeout)
}

func TestDialConnectionRefused(t *testing.T) {
	ln, target := listen(t)
	ln.Close() // free the port so the dial is refused

	d := &CoreDialer{Proxy: noProxy()}
	_, err := d.Dial(context.Background(), target, false, model.NewDeadline(5*time.Second))
	assert.ErrorIs(t, err, ErrConnect)
}
