package msg

import "net/netip"

// Update represents a BGP UPDATE message body.
type Update struct {
	Withdrawn []netip.Prefix
	Attrs     Attrs
	NLRI      []netip.Prefix
}

// MarshalUpdate encodes an UPDATE advertising nlri with the given path
// attributes, and no withdrawn routes. This speaker never withdraws.
func MarshalUpdate(origin Origin, asPath []uint16, nextHop netip.Addr, nlri []netip.Prefix) []byte {
	attrs := MarshalAttrs(origin, asPath, nextHop)

	buf := make([]byte, 0, 4+len(attrs)+len(nlri)*5)
	buf = msb.AppendUint16(buf, 0) // withdrawn routes length = 0
	buf = msb.AppendUint16(buf, uint16(len(attrs)))
	buf = append(buf, attrs...)
	buf = EncodeNLRI(buf, nlri)
	return buf
}

// Unmarshal parses buf (an UPDATE payload) into u.
func (u *Update) Unmarshal(buf []byte) error {
	if len(buf) < 2 {
		return ErrShort
	}
	wlen := int(msb.Uint16(buf[:2]))
	buf = buf[2:]
	if wlen > len(buf) {
		return ErrLength
	}

	withdrawn, err := DecodeNLRI(buf[:wlen])
	if err != nil {
		return err
	}
	u.Withdrawn = withdrawn
	buf = buf[wlen:]

	if len(buf) < 2 {
		return ErrShort
	}
	palen := int(msb.Uint16(buf[:2]))
	buf = buf[2:]
	if palen > len(buf) {
		return ErrLength
	}

	u.Attrs = ParseAttrs(buf[:palen])
	buf = buf[palen:]

	nlri, err := DecodeNLRI(buf)
	if err != nil {
		return err
	}
	u.NLRI = nlri

	return nil
}
