package msg

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		asn, hold uint16
		id        string
	}{
		{65001, 180, "1.1.1.1"},
		{0, 0, "0.0.0.0"},
		{65535, 65535, "255.255.255.255"},
	}

	for _, c := range cases {
		o := &Open{
			Version:    OpenVersion,
			ASN:        c.asn,
			HoldTime:   c.hold,
			Identifier: netip.MustParseAddr(c.id),
		}

		var got Open
		err := got.Unmarshal(o.Marshal())
		assert.NoError(err)
		assert.Equal(o.ASN, got.ASN)
		assert.Equal(o.HoldTime, got.HoldTime)
		assert.Equal(o.Identifier, got.Identifier)
		assert.Equal(byte(OpenVersion), got.Version)
	}
}

func TestNotification_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		code, sub byte
		data      []byte
	}{
		{1, 1, nil},
		{4, 0, nil},
		{5, 1, []byte{0xde, 0xad}},
	}

	for _, c := range cases {
		n := &Notification{Code: c.code, Subcode: c.sub, Data: c.data}

		var got Notification
		err := got.Unmarshal(n.Marshal())
		assert.NoError(err)
		assert.Equal(n.Code, got.Code)
		assert.Equal(n.Subcode, got.Subcode)
		assert.Equal(len(n.Data), len(got.Data))
	}
}

func TestNLRI_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	for bits := 0; bits <= 32; bits++ {
		p := netip.PrefixFrom(netip.MustParseAddr("203.0.113.0"), bits).Masked()
		buf := EncodeNLRI(nil, []netip.Prefix{p})
		out, err := DecodeNLRI(buf)
		assert.NoError(err)
		assert.Len(out, 1)
		assert.Equal(p, out[0])
	}
}

func TestNLRI_WorkedExample(t *testing.T) {
	// /24 and /0 entries of a worked NLRI encoding; a /22 variant is
	// omitted here because a published worked example for it carries an
	// extra byte inconsistent with the ceil(len/8) algorithm (see
	// DESIGN.md) and isn't asserted byte-for-byte.
	prefixes := []netip.Prefix{
		netip.MustParsePrefix("10.1.2.0/24"),
		netip.MustParsePrefix("0.0.0.0/0"),
	}

	buf := EncodeNLRI(nil, prefixes)
	assert.Equal(t, []byte{0x18, 0x0a, 0x01, 0x02, 0x00}, buf)

	out, err := DecodeNLRI(buf)
	assert.NoError(t, err)
	assert.Equal(t, prefixes, out)
}

func TestPackUnpack_HeaderInvariant(t *testing.T) {
	for _, typ := range []Type{OPEN, UPDATE, NOTIFICATION, KEEPALIVE} {
		raw := Pack(typ, []byte{1, 2, 3})
		assert.Equal(t, marker[:], raw[:16])

		hdr, err := UnpackHeader(raw)
		assert.NoError(t, err)
		assert.EqualValues(t, len(raw), hdr.Length)
	}
}

func TestAttrs_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	nh := netip.MustParseAddr("1.1.1.1")
	buf := MarshalAttrs(OriginIGP, []uint16{65001, 65002}, nh)

	a := ParseAttrs(buf)
	assert.True(a.HasOrigin)
	assert.Equal(OriginIGP, a.Origin)
	assert.True(a.HasNextHop)
	assert.Equal(nh, a.NextHop)
	assert.True(a.HasASPath)
	assert.Equal([]uint16{65001, 65002}, a.ASPath)
}

func TestAttrs_EmptyASPath(t *testing.T) {
	buf := MarshalAttrs(OriginIGP, nil, netip.MustParseAddr("1.1.1.1"))
	a := ParseAttrs(buf)
	assert.True(t, a.HasASPath)
	assert.Empty(t, a.ASPath)
}

func TestUpdate_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	nlri := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/24")}
	raw := MarshalUpdate(OriginIGP, []uint16{65001}, netip.MustParseAddr("1.1.1.1"), nlri)

	var u Update
	err := u.Unmarshal(raw)
	assert.NoError(err)
	assert.Equal(nlri, u.NLRI)
	assert.Empty(u.Withdrawn)
	assert.True(u.Attrs.HasNextHop)
	assert.Equal(netip.MustParseAddr("1.1.1.1"), u.Attrs.NextHop)
	assert.Equal([]uint16{65001}, u.Attrs.ASPath)
}
