package model

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrTimeout is returned whenever the call deadline passes at any I/O
// point, including an already-expired deadline at call start.
var ErrTimeout = errors.New("fetch: deadline exceeded")

// Deadline is the absolute point in time after which every blocking
// operation of one call must abort. It is derived once at call start and
// never reset mid-call.
type Deadline struct {
	at   time.Time
	none bool
}

// NewDeadline derives a deadline from a relative timeout. A positive
// timeout yields now+timeout, zero means wait indefinitely, and a negative
// timeout yields an already-expired deadline so that every I/O attempt
// fails immediately.
func NewDeadline(timeout time.Duration) Deadline {
	if timeout == 0 {
		return Deadline{none: true}
	}
	return Deadline{at: time.Now().Add(timeout)}
}

// Earlier returns the deadline clamped to t. A zero t leaves d unchanged.
func (d Deadline) Earlier(t time.Time) Deadline {
	if t.IsZero() {
		return d
	}
	if d.none || t.Before(d.at) {
		return Deadline{at: t}
	}
	return d
}

func (d Deadline) Expired() bool {
	return !d.none && !d.at.After(time.Now())
}

// Time returns the absolute deadline, or the zero time when there is none,
// matching the [net.Conn.SetDeadline] convention.
func (d Deadline) Time() time.Time {
	if d.none {
		return time.Time{}
	}
	return d.at
}

// Arm applies the deadline to a transport handle.
func (d Deadline) Arm(c Conn) error {
	return c.SetDeadline(d.Time())
}

// WrapIOError maps deadline failures surfaced by the net layer onto
// ErrTimeout and leaves every other error untouched.
func WrapIOError(err error) error {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
