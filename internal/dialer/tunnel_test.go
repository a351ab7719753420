package dialer

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valder/go-fetch/internal/model"
)

type sinkRecorder struct{ lines []string }

func (s *sinkRecorder) Logf(format string, args ...interface{}) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

// fakeProxy answers one CONNECT handshake on the server half of a pipe
// and reports the request head it saw.
func fakeProxy(t *testing.T, server net.Conn, status string) <-chan string {
	t.Helper()
	got := make(chan string, 1)
	go func() {
		defer server.Close()
		br := bufio.NewReader(server)
		var head strings.Builder
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				got <- head.String()
				return
			}
			head.WriteString(line)
			if line == "\r\n" {
				break
			}
		}
		got <- head.String()
		fmt.Fprintf(server, "HTTP/1.0 %s\r\nProxy-Agent: test\r\n\r\n", status)
	}()
	return got
}

func TestTunnelAccepted(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	got := fakeProxy(t, server, "200 Connection established")

	err := Tunnel(client, "target.test", "443", "", model.NewDeadline(5*time.Second), nil)
	require.NoError(t, err)

	head := <-got
	assert.True(t, strings.HasPrefix(head, "CONNECT target.test:443 HTTP/1.0\r\n"), "got %q", head)
	assert.Contains(t, head, "Host: target.test:443\r\n")
	assert.NotContains(t, head, "Proxy-Authorization")
}

func TestTunnelBasicAuth(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	got := fakeProxy(t, server, "200 OK")

	err := Tunnel(client, "target.test", "443", "user:secret", model.NewDeadline(5*time.Second), nil)
	require.NoError(t, err)

	want := "Proxy-Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte("user:secret"))
	assert.Contains(t, <-got, want+"\r\n")
}

func TestTunnelRejected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	fakeProxy(t, server, "403 Forbidden")

	sink := &sinkRecorder{}
	err := Tunnel(client, "target.test", "443", "", model.NewDeadline(5*time.Second), sink)
	assert.ErrorIs(t, err, ErrTunnelRejected)
	require.Len(t, sink.lines, 1)
	assert.Contains(t, sink.lines[0], "403")
}

func TestTunnelMalformedStatus(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	go func() {
		defer server.Close()
		br := bufio.NewReader(server)
		for {
			line, err := br.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		fmt.Fprint(server, "not-a-status-line\r\n\r\n")
	}()

	err := Tunnel(client, "target.test", "443", "", model.NewDeadline(5*time.Second), nil)
	assert.Error(t, err)
}

func TestTunnelExpiredDeadline(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	err := Tunnel(client, "target.test", "443", "", model.NewDeadline(-time.Second), nil)
	assert.ErrorIs(t, err, model.ErrTimeout)
}

func TestTunnelAcceptsAny2xx(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	fakeProxy(t, server, "204 No Content")

	err := Tunnel(client, "target.test", "443", "", model.NewDeadline(5*time.Second), nil)
	assert.NoError(t, err)
}
