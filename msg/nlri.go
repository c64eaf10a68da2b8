package msg

import "net/netip"

// EncodeNLRI appends the wire encoding of prefixes to dst: for each prefix,
// one length byte followed by ceil(len/8) high-order bytes of the address.
func EncodeNLRI(dst []byte, prefixes []netip.Prefix) []byte {
	for _, p := range prefixes {
		bits := p.Bits()
		dst = append(dst, byte(bits))

		addr := p.Addr().As4()
		nbytes := (bits + 7) / 8
		dst = append(dst, addr[:nbytes]...)
	}
	return dst
}

// DecodeNLRI parses a run of wire-encoded IPv4 prefixes from buf.
func DecodeNLRI(buf []byte) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for len(buf) > 0 {
		bits := int(buf[0])
		buf = buf[1:]
		if bits > 32 {
			return nil, ErrLength
		}

		nbytes := (bits + 7) / 8
		if nbytes > len(buf) {
			return nil, ErrShort
		}

		var addr [4]byte
		copy(addr[:], buf[:nbytes])
		buf = buf[nbytes:]

		out = append(out, netip.PrefixFrom(netip.AddrFrom4(addr), bits))
	}
	return out, nil
}
