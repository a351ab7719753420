package model

import (
	"io"
	"os"
	"time"
)

// Conn is the abstract byte stream requests are written to and responses
// are read from. *[net.Conn] satisfies it; tests substitute in-memory
// streams through [StreamConn].
//
// The engine closes only connections it dialed itself. Caller-supplied
// handles stay in the caller's care on every exit path.
type Conn interface {
	io.ReadWriter
	SetDeadline(t time.Time) error
}

type streamConn struct {
	w        io.Writer
	r        io.Reader
	deadline time.Time
}

// StreamConn adapts a plain read/write stream into a [Conn]. The adapter
// cannot interrupt an in-flight operation, so the deadline is checked
// before each read and write instead.
func StreamConn(rw io.ReadWriter) Conn {
	return &streamConn{w: rw, r: rw}
}

// PairConn builds a [Conn] from separate write and read streams, for
// callers that hold the two directions as distinct handles.
func PairConn(w io.Writer, r io.Reader) Conn {
	return &streamConn{w: w, r: r}
}

func (c *streamConn) SetDeadline(t time.Time) error {
	c.deadline = t
	return nil
}

func (c *streamConn) expired() bool {
	return !c.deadline.IsZero() && !c.deadline.After(time.Now())
}

func (c *streamConn) Read(p []byte) (int, error) {
	if c.expired() {
		return 0, os.ErrDeadlineExceeded
	}
	return c.r.Read(p)
}

func (c *streamConn) Write(p []byte) (int, error) {
	if c.expired() {
		return 0, os.ErrDeadlineExceeded
	}
	return c.w.Write(p)
}
