// Package msg implements the BGP-4 wire codec: the 19-byte message header
// and the four message bodies this speaker exchanges (OPEN, UPDATE,
// NOTIFICATION, KEEPALIVE). It deliberately tracks RFC 4271 for 2-byte ASNs
// only — no capability negotiation, no multiprotocol extensions.
package msg

import (
	"bytes"

	"github.com/routerd/bgpd/binary"
)

// Type is a BGP message type, per the 1-byte header field.
type Type uint8

const (
	OPEN         Type = 1
	UPDATE       Type = 2
	NOTIFICATION Type = 3
	KEEPALIVE    Type = 4
)

func (t Type) String() string {
	switch t {
	case OPEN:
		return "OPEN"
	case UPDATE:
		return "UPDATE"
	case NOTIFICATION:
		return "NOTIFICATION"
	case KEEPALIVE:
		return "KEEPALIVE"
	default:
		return "UNKNOWN"
	}
}

const (
	// HeaderLen is the fixed BGP message header length: marker(16) + length(2) + type(1).
	HeaderLen = 19

	// MaxLen is the largest BGP message length UnpackHeader accepts. Pack
	// does not check it.
	MaxLen = 4096
)

var marker = [16]byte{
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
}

var msb = binary.Msb

// Header is a decoded BGP message header.
type Header struct {
	Length uint16 // total message length, including the header
	Type   Type
}

// Pack frames payload as a complete BGP message of the given type.
func Pack(typ Type, payload []byte) []byte {
	buf := make([]byte, 0, HeaderLen+len(payload))
	buf = append(buf, marker[:]...)
	buf = msb.AppendUint16(buf, uint16(HeaderLen+len(payload)))
	buf = append(buf, byte(typ))
	buf = append(buf, payload...)
	return buf
}

// UnpackHeader reads the fixed 19-byte header from the front of buf.
// buf must be at least HeaderLen bytes; the payload follows at buf[HeaderLen:].
func UnpackHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderLen {
		return Header{}, ErrShort
	}
	if !bytes.Equal(buf[:16], marker[:]) {
		return Header{}, ErrMarker
	}

	length := msb.Uint16(buf[16:18])
	if length < HeaderLen || length > MaxLen {
		return Header{}, ErrLength
	}

	return Header{Length: length, Type: Type(buf[18])}, nil
}
