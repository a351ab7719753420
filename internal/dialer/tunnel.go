package dialer

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/valder/go-fetch/internal/model"
	"github.com/valder/go-fetch/internal/transport"
)

// Tunnel performs the HTTP CONNECT handshake over an established proxy
// connection, turning it into a transparent pipe to host:port. auth, when
// non-empty, is a "user:pass" credential sent as basic auth. Success is
// any 2xx status; the rejection reason goes to the sink. Tunnel does not
// layer TLS itself, that remains the upgrade hook's job.
func Tunnel(c model.Conn, host, port, auth string, dl model.Deadline, sink DiagnosticSink) error {
	if dl.Expired() {
		return fmt.Errorf("%w: before tunnel handshake", model.ErrTimeout)
	}
	if err := dl.Arm(c); err != nil {
		return err
	}

	hp := net.JoinHostPort(host, port)
	req := "CONNECT " + hp + " HTTP/1.0\r\nHost: " + hp + "\r\n"
	if auth != "" {
		req += "Proxy-Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte(auth)) + "\r\n"
	}
	req += "\r\n"
	if _, err := io.WriteString(c, req); err != nil {
		return connectErr(err)
	}

	// the proxy stays silent after its response head until we speak, so
	// buffering here cannot swallow post-tunnel bytes
	br := bufio.NewReaderSize(c, model.DefaultMaxHeaderLine)
	line, err := readTunnelLine(br)
	if err != nil {
		return connectErr(err)
	}
	code, reason, err := transport.ParseStatusLine(line)
	if err != nil {
		return err
	}
	for {
		line, err := readTunnelLine(br)
		if err != nil {
			return connectErr(err)
		}
		if line == "" {
			break
		}
	}
	if code < 200 || code >= 300 {
		if sink != nil {
			sink.Logf("proxy refused CONNECT to %s: %d %s", hp, code, reason)
		}
		return fmt.Errorf("%w: %d %s", ErrTunnelRejected, code, reason)
	}
	return nil
}

func readTunnelLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		return "", err
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

func connectErr(err error) error {
	err = model.WrapIOError(err)
	if errors.Is(err, model.ErrTimeout) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnect, err)
}
