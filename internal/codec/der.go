package codec

import (
	"encoding/asn1"
	"fmt"
	"math"

	"golang.org/x/crypto/cryptobyte"
)

// DER is the default [Codec]: ASN.1 DER values with a definite-length
// encoding, as used by OCSP requests/responses and CRLs.
type DER struct{}

func (DER) Encode(v interface{}) ([]byte, error) {
	b, err := asn1.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return b, nil
}

func (DER) Decode(data []byte, v interface{}) error {
	rest, err := asn1.Unmarshal(data, v)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: %d trailing bytes after value", ErrCodec, len(rest))
	}
	return nil
}

// PeekLength parses the leading TLV header: one identifier octet followed
// by a short-form or long-form definite length. Indefinite lengths and
// high-tag-number identifiers are rejected, DER forbids the former and
// the wire formats this engine carries never use the latter.
func (DER) PeekLength(prefix []byte) (int64, bool, error) {
	s := cryptobyte.String(prefix)
	var tag, lb uint8
	if !s.ReadUint8(&tag) || !s.ReadUint8(&lb) {
		return 0, false, nil
	}
	if tag&0x1f == 0x1f {
		return 0, false, fmt.Errorf("%w: high-tag-number identifier 0x%02x", ErrCodec, tag)
	}
	if lb < 0x80 {
		return 2 + int64(lb), true, nil
	}
	n := int(lb & 0x7f)
	if n == 0 {
		return 0, false, fmt.Errorf("%w: indefinite length is not DER", ErrCodec)
	}
	if n > 8 {
		return 0, false, fmt.Errorf("%w: %d-octet length", ErrCodec, n)
	}
	var length uint64
	for i := 0; i < n; i++ {
		var b uint8
		if !s.ReadUint8(&b) {
			return 0, false, nil
		}
		length = length<<8 | uint64(b)
	}
	if length > math.MaxInt64-int64OverheadGuard {
		return 0, false, fmt.Errorf("%w: length %d overflows", ErrCodec, length)
	}
	return int64(2+n) + int64(length), true, nil
}

// headroom for the header octets when converting the content length
const int64OverheadGuard = 16
