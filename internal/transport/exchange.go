// Package transport drives the timeout-bounded HTTP/1.0-class exchange:
// it writes the request, reads and validates the response head under the
// header line bound, reconciles the two notions of body length, and reads
// the body under the size bound and the call deadline.
package transport

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/valder/go-fetch/internal/codec"
	"github.com/valder/go-fetch/internal/model"
)

// Exchange holds the per-call parameters of one request/response cycle.
// Limits must already have defaults applied.
type Exchange struct {
	Limits   model.Limits
	Deadline model.Deadline

	// Codec sizes self-describing bodies. Required when
	// Limits.SelfLengthBody is set.
	Codec codec.Codec
}

// Do runs the full cycle over conn. The connection is not closed here;
// ownership stays with the caller on every path.
func (e *Exchange) Do(conn model.Conn, req *model.PreparedRequest) (*model.Response, error) {
	if e.Deadline.Expired() {
		return nil, fmt.Errorf("%w: before first i/o", model.ErrTimeout)
	}
	if err := e.Deadline.Arm(conn); err != nil {
		return nil, err
	}

	if err := e.writeRequest(conn, req); err != nil {
		return nil, model.WrapIOError(err)
	}

	br := bufio.NewReaderSize(conn, e.Limits.MaxHeaderLine)
	resp, err := e.readHead(br)
	if err != nil {
		return nil, model.WrapIOError(err)
	}

	if want := e.Limits.ExpectContentType; want != "" && !strings.Contains(resp.ContentType, want) {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrContentType, resp.ContentType, want)
	}

	length, err := e.resolveLength(br, resp)
	if err != nil {
		return nil, model.WrapIOError(err)
	}

	if req.CaptureRedirect && (resp.StatusCode == 301 || resp.StatusCode == 302) {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return nil, fmt.Errorf("%w: status %d", ErrRedirectLocation, resp.StatusCode)
		}
		resp.Location = loc
		return resp, nil
	}

	if err := e.readBody(br, resp, length); err != nil {
		return nil, model.WrapIOError(err)
	}
	return resp, nil
}

// writeRequest emits the request head and body, e.g.:
//
//	POST /ocsp HTTP/1.0\r\n
//	Host: responder.example\r\n
//	Content-Length: 120\r\n
//	Content-Type: application/ocsp-request\r\n
//	\r\n
//	<body>
func (e *Exchange) writeRequest(w io.Writer, r *model.PreparedRequest) error {
	head := bufio.NewWriter(w)

	head.WriteString(r.Method)
	head.WriteByte(' ')
	head.WriteString(r.RequestPath)
	head.WriteString(" HTTP/1.0\r\n")

	head.WriteString("Host: ")
	head.WriteString(r.HeaderHost)
	head.WriteString("\r\n")

	if r.Body != nil {
		head.WriteString("Content-Length: ")
		head.WriteString(strconv.Itoa(len(r.Body)))
		head.WriteString("\r\n")
	}
	for _, line := range r.Headers {
		head.WriteString(line)
		head.WriteString("\r\n")
	}
	if r.Method == "POST" && r.ContentType != "" {
		head.WriteString("Content-Type: ")
		head.WriteString(r.ContentType)
		head.WriteString("\r\n")
	}
	if _, err := head.WriteString("\r\n"); err != nil {
		return err
	}
	if err := head.Flush(); err != nil {
		return err
	}
	if r.Body != nil {
		if _, err := w.Write(r.Body); err != nil {
			return err
		}
	}
	return nil
}

// readLine reads one CRLF-terminated line, failing (not truncating) when
// it exceeds the header line bound.
func (e *Exchange) readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		return "", fmt.Errorf("%w: header line exceeds %d bytes", ErrProtocolParse, e.Limits.MaxHeaderLine)
	}
	if err != nil {
		if err == io.EOF {
			return "", fmt.Errorf("%w: unexpected end of header", ErrProtocolParse)
		}
		return "", err
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

func (e *Exchange) readHead(br *bufio.Reader) (*model.Response, error) {
	line, err := e.readLine(br)
	if err != nil {
		return nil, err
	}
	resp := &model.Response{ContentLength: -1}
	resp.StatusCode, resp.Reason, err = ParseStatusLine(line)
	if err != nil {
		return nil, err
	}

	resp.Header = make(map[string][]string)
	for {
		line, err := e.readLine(br)
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.TrimRight(name, " \t") != name {
			return nil, fmt.Errorf("%w: header line %q", ErrProtocolParse, line)
		}
		key := textproto.CanonicalMIMEHeaderKey(name)
		resp.Header[key] = append(resp.Header[key], strings.TrimSpace(value))
	}

	if err := resolveContentLength(resp); err != nil {
		return nil, err
	}
	resp.ContentType = resp.Header.Get("Content-Type")
	return resp, nil
}

// ParseStatusLine splits "HTTP/1.x CODE reason" into code and reason.
func ParseStatusLine(line string) (int, string, error) {
	proto, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return 0, "", fmt.Errorf("%w: status line %q", ErrProtocolParse, line)
	}
	status, reason, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
	if len(status) != 3 {
		return 0, "", fmt.Errorf("%w: status code %q", ErrProtocolParse, status)
	}
	code, err := strconv.Atoi(status)
	if err != nil || code < 100 {
		return 0, "", fmt.Errorf("%w: status code %q", ErrProtocolParse, status)
	}
	return code, reason, nil
}

// resolveContentLength validates the declared length. Multiple
// Content-Length headers with differing values are rejected outright, the
// standard request-smuggling hardening.
func resolveContentLength(resp *model.Response) error {
	values := resp.Header["Content-Length"]
	if len(values) == 0 {
		return nil
	}
	first := textproto.TrimString(values[0])
	for _, v := range values[1:] {
		if textproto.TrimString(v) != first {
			return fmt.Errorf("%w: multiple Content-Length values %q", ErrProtocolParse, values)
		}
	}
	n, err := strconv.ParseUint(first, 10, 63)
	if err != nil {
		return fmt.Errorf("%w: Content-Length %q", ErrProtocolParse, first)
	}
	resp.ContentLength = int64(n)
	return nil
}

// resolveLength reconciles the declared header length with the body's
// self-described length, before a single body byte is consumed. It
// returns the exact number of bytes to read, or -1 for read-until-EOF
// bounded by the response maximum.
func (e *Exchange) resolveLength(br *bufio.Reader, resp *model.Response) (int64, error) {
	declared := resp.ContentLength
	if declared >= 0 && declared > e.Limits.MaxResponse {
		return 0, fmt.Errorf("%w: declared length %d exceeds maximum %d",
			ErrLengthMismatch, declared, e.Limits.MaxResponse)
	}
	if !e.Limits.SelfLengthBody {
		return declared, nil
	}

	selfLen, err := e.peekSelfLength(br)
	if err != nil {
		return 0, err
	}
	if declared >= 0 && selfLen != declared {
		return 0, fmt.Errorf("%w: declared %d but value describes %d",
			ErrLengthMismatch, declared, selfLen)
	}
	if selfLen > e.Limits.MaxResponse {
		return 0, fmt.Errorf("%w: self-described length %d exceeds maximum %d",
			ErrLengthMismatch, selfLen, e.Limits.MaxResponse)
	}
	return selfLen, nil
}

// peekSelfLength grows a non-consuming window over the body start until
// the codec can size the value. DER needs at most 2+8 header octets.
func (e *Exchange) peekSelfLength(br *bufio.Reader) (int64, error) {
	const maxPrefix = 16
	for n := 2; n <= maxPrefix; n++ {
		prefix, err := br.Peek(n)
		if len(prefix) >= 2 || err == nil {
			length, ok, cerr := e.Codec.PeekLength(prefix)
			if cerr != nil {
				return 0, cerr
			}
			if ok {
				return length, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return 0, fmt.Errorf("%w: body ends inside length prefix", ErrProtocolParse)
			}
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: unreadable length prefix", ErrProtocolParse)
}

func (e *Exchange) readBody(br *bufio.Reader, resp *model.Response, length int64) error {
	if length == 0 {
		resp.Body = []byte{}
		return nil
	}
	if length > 0 {
		body := make([]byte, length)
		if _, err := io.ReadFull(br, body); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return fmt.Errorf("%w: body shorter than its length", ErrProtocolParse)
			}
			return err
		}
		resp.Body = body
		return nil
	}

	// length unknown: stream until EOF, failing the instant the
	// cumulative size passes the maximum
	max := e.Limits.MaxResponse
	body := make([]byte, 0, 512)
	buf := make([]byte, 4096)
	for {
		n, err := br.Read(buf)
		if int64(len(body))+int64(n) > max {
			return fmt.Errorf("%w: body exceeds maximum %d", ErrTooLarge, max)
		}
		body = append(body, buf[:n]...)
		if err == io.EOF {
			resp.Body = body
			return nil
		}
		if err != nil {
			return err
		}
	}
}
