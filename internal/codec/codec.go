// Package codec defines the structured-value codec the engine hands
// payload bytes to, and ships the DER implementation used for
// certificate, CRL and OCSP-style exchanges.
package codec

import "errors"

// ErrCodec is the kind every encode/decode failure wraps.
var ErrCodec = errors.New("fetch: codec failure")

// Codec encodes and decodes the structured binary payloads exchanged over
// HTTP. PeekLength is the length-prefix peek the engine uses to size a
// self-describing body before consuming it.
type Codec interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte, v interface{}) error

	// PeekLength reports the total encoded length of the value whose
	// first bytes are prefix, header included. ok is false when prefix is
	// too short to tell yet; err reports a prefix that can never begin a
	// valid value.
	PeekLength(prefix []byte) (n int64, ok bool, err error)
}
