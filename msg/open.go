package msg

import "net/netip"

// OpenMinLen is the fixed portion of an OPEN payload, before optional parameters.
const OpenMinLen = 10

// OpenVersion is the only BGP version this speaker understands.
const OpenVersion = 4

// Open represents a BGP OPEN message body.
type Open struct {
	Version    byte
	ASN        uint16
	HoldTime   uint16
	Identifier netip.Addr // router ID, carried as an IPv4 address

	// Params holds raw Optional Parameters bytes, if any were received.
	// This speaker never emits any (opt_params_len = 0) and ignores
	// anything it receives here.
	Params []byte
}

// Marshal encodes o as an OPEN payload (without the message header).
func (o *Open) Marshal() []byte {
	buf := make([]byte, 0, OpenMinLen+1)
	buf = append(buf, OpenVersion)
	buf = msb.AppendUint16(buf, o.ASN)
	buf = msb.AppendUint16(buf, o.HoldTime)

	id := o.Identifier.As4()
	buf = append(buf, id[:]...)

	buf = append(buf, 0) // opt_params_len = 0, no capabilities
	return buf
}

// Unmarshal parses buf (an OPEN payload, message header already stripped) into o.
func (o *Open) Unmarshal(buf []byte) error {
	if len(buf) < OpenMinLen {
		return ErrShort
	}

	o.Version = buf[0]
	if o.Version != OpenVersion {
		return ErrVersion
	}
	o.ASN = msb.Uint16(buf[1:3])
	o.HoldTime = msb.Uint16(buf[3:5])
	o.Identifier = netip.AddrFrom4([4]byte(buf[5:9]))

	plen := int(buf[9])
	rest := buf[10:]
	if plen > len(rest) {
		return ErrLength
	}
	o.Params = rest[:plen]
	return nil
}
