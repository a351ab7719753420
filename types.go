package fetch

import (
	"github.com/valder/go-fetch/internal/codec"
	"github.com/valder/go-fetch/internal/model"
	"github.com/valder/go-fetch/internal/urlparse"
)

// Conn is the abstract transport handle exchanges run over. net.Conn
// satisfies it; StreamConn and PairConn adapt plain byte streams.
type Conn = model.Conn

var StreamConn = model.StreamConn
var PairConn = model.PairConn

// Deadline is the absolute bound every blocking operation of one call
// observes.
type Deadline = model.Deadline

var NewDeadline = model.NewDeadline

// Codec is the structured-value codec collaborator; DER is the default
// implementation.
type Codec = codec.Codec
type DER = codec.DER

// URL is the parsed form of a target.
type URL = urlparse.URL

// ParseURL splits [scheme://]host[:port][/path] into connection
// parameters, accepting mnemonic service ports.
var ParseURL = urlparse.Parse

// ParseURLNumeric is ParseURL with a numeric-port requirement.
var ParseURLNumeric = urlparse.ParseNumeric
