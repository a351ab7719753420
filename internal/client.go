package internal

import (
	"context"
	"io"

	"github.com/valder/go-fetch/internal/codec"
	"github.com/valder/go-fetch/internal/dialer"
	"github.com/valder/go-fetch/internal/model"
	"github.com/valder/go-fetch/internal/transport"
	"github.com/valder/go-fetch/internal/urlparse"
)

// Client is the transfer engine's entry surface. The zero value dials
// directly, uses the default limits and speaks DER for structured bodies.
//
// A Client holds no per-call state: concurrent calls are independent,
// each with its own connection and deadline.
type Client struct {
	Dialer *dialer.CoreDialer
	Limits model.Limits
	Codec  codec.Codec
}

func (c *Client) dialer() *dialer.CoreDialer {
	if c.Dialer != nil {
		return c.Dialer
	}
	return &dialer.CoreDialer{}
}

func (c *Client) codec() codec.Codec {
	if c.Codec != nil {
		return c.Codec
	}
	return codec.DER{}
}

// deadline is derived once at call start and shared read-only by every
// step of the call. An earlier context deadline clamps it.
func (c *Client) deadline(ctx context.Context) model.Deadline {
	dl := model.NewDeadline(c.Limits.Timeout)
	if t, ok := ctx.Deadline(); ok {
		dl = dl.Earlier(t)
	}
	return dl
}

// Do runs one exchange over a connection the engine dials itself. The
// connection is torn down on every exit path, with the upgrade hook's
// disconnect half invoked first.
func (c *Client) Do(ctx context.Context, req *model.Request) (*model.Response, error) {
	return c.do(ctx, req, c.Limits.WithDefaults())
}

func (c *Client) do(ctx context.Context, req *model.Request, limits model.Limits) (*model.Response, error) {
	dl := c.deadline(ctx)
	u, err := urlparse.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	useTLS := u.IsTLS || req.TLS

	d, err := c.dialer().Dial(ctx, u, useTLS, dl)
	if err != nil {
		return nil, err
	}
	pr, err := req.Prepare(u, d.ViaProxy)
	if err != nil {
		d.Close(false)
		return nil, err
	}
	ex := &transport.Exchange{Limits: limits, Deadline: dl, Codec: c.codec()}
	resp, err := ex.Do(d.Conn, pr)
	d.Close(err == nil)
	return resp, err
}

// DoConn runs one exchange over a caller-supplied handle used for both
// directions. No dialing happens, the upgrade hook is not invoked and
// closing the handle stays the caller's responsibility.
func (c *Client) DoConn(ctx context.Context, conn model.Conn, req *model.Request) (*model.Response, error) {
	return c.doSupplied(ctx, conn, req)
}

// DoPair is DoConn for callers holding the two directions as separate
// streams.
func (c *Client) DoPair(ctx context.Context, w io.Writer, r io.Reader, req *model.Request) (*model.Response, error) {
	return c.doSupplied(ctx, model.PairConn(w, r), req)
}

func (c *Client) doSupplied(ctx context.Context, conn model.Conn, req *model.Request) (*model.Response, error) {
	dl := c.deadline(ctx)
	u, err := urlparse.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	pr, err := req.Prepare(u, false)
	if err != nil {
		return nil, err
	}
	ex := &transport.Exchange{Limits: c.Limits.WithDefaults(), Deadline: dl, Codec: c.codec()}
	return ex.Do(conn, pr)
}

// Get fetches url and returns the body bytes.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Do(ctx, &model.Request{URL: url})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// GetValue fetches url, sizes the body by its own length prefix and
// decodes it into v.
func (c *Client) GetValue(ctx context.Context, url string, v interface{}) error {
	limits := c.Limits.WithDefaults()
	limits.SelfLengthBody = true
	resp, err := c.do(ctx, &model.Request{URL: url}, limits)
	if err != nil {
		return err
	}
	return c.codec().Decode(resp.Body, v)
}

// PostValue encodes in, posts it to url under contentType and decodes the
// self-length response body into out. A nil out skips decoding.
func (c *Client) PostValue(ctx context.Context, url, contentType string, in, out interface{}) error {
	body, err := c.codec().Encode(in)
	if err != nil {
		return err
	}
	limits := c.Limits.WithDefaults()
	limits.SelfLengthBody = true
	resp, err := c.do(ctx, &model.Request{URL: url, Body: body, ContentType: contentType}, limits)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return c.codec().Decode(resp.Body, out)
}
