package session

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/routerd/bgpd/fsm"
	"github.com/routerd/bgpd/msg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(originated []netip.Prefix) Options {
	return Options{
		LocalASN:           65000,
		LocalID:            netip.MustParseAddr("10.0.0.1"),
		OriginatedPrefixes: originated,
	}
}

// readMsg reads one framed message off conn and returns its type and payload.
func readMsg(t *testing.T, conn net.Conn) (msg.Type, []byte) {
	t.Helper()
	hdr := make([]byte, msg.HeaderLen)
	_, err := readFull(conn, hdr)
	require.NoError(t, err)

	h, err := msg.UnpackHeader(hdr)
	require.NoError(t, err)

	payload := make([]byte, int(h.Length)-msg.HeaderLen)
	if len(payload) > 0 {
		_, err = readFull(conn, payload)
		require.NoError(t, err)
	}
	return h.Type, payload
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

func writeMsg(t *testing.T, conn net.Conn, typ msg.Type, payload []byte) {
	t.Helper()
	_, err := conn.Write(msg.Pack(typ, payload))
	require.NoError(t, err)
}

func TestSession_SendsOpenOnAttach(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	s := New(netip.MustParseAddr("192.0.2.1"), 180, testOptions(nil))
	go s.Attach(local)

	typ, payload := readMsg(t, remote)
	assert.Equal(t, msg.OPEN, typ)

	var o msg.Open
	require.NoError(t, o.Unmarshal(payload))
	assert.EqualValues(t, 65000, o.ASN)
	assert.EqualValues(t, 180, o.HoldTime)

	s.Close()
}

func TestSession_EstablishesOnKeepaliveAfterOpen(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	s := New(netip.MustParseAddr("192.0.2.1"), 0, testOptions(nil))
	done := make(chan struct{})
	go func() {
		s.Attach(local)
		close(done)
	}()

	readMsg(t, remote) // OPEN from us

	peerOpen := msg.Open{Version: 4, ASN: 65001, HoldTime: 0, Identifier: netip.MustParseAddr("10.0.0.2")}
	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())

	typ, _ := readMsg(t, remote) // KEEPALIVE from us, replying to OPEN
	assert.Equal(t, msg.KEEPALIVE, typ)
	assert.Equal(t, fsm.OPEN_CONFIRM, s.State())

	writeMsg(t, remote, msg.KEEPALIVE, nil)

	require.Eventually(t, func() bool {
		return s.State() == fsm.ESTABLISHED
	}, time.Second, 5*time.Millisecond)

	s.Close()
	<-done
}

func TestSession_SendsOriginatedUpdateOnEstablish(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	prefixes := []netip.Prefix{netip.MustParsePrefix("198.51.100.0/24")}
	s := New(netip.MustParseAddr("192.0.2.1"), 0, testOptions(prefixes))
	go s.Attach(local)

	readMsg(t, remote) // OPEN from us

	peerOpen := msg.Open{Version: 4, ASN: 65001, HoldTime: 0, Identifier: netip.MustParseAddr("10.0.0.2")}
	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())
	readMsg(t, remote) // KEEPALIVE from us

	writeMsg(t, remote, msg.KEEPALIVE, nil)

	typ, payload := readMsg(t, remote) // originated UPDATE
	assert.Equal(t, msg.UPDATE, typ)

	var u msg.Update
	require.NoError(t, u.Unmarshal(payload))
	require.Len(t, u.NLRI, 1)
	assert.Equal(t, "198.51.100.0/24", u.NLRI[0].String())

	s.Close()
}

func TestSession_StoresReceivedRoutesInRIB(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	s := New(netip.MustParseAddr("192.0.2.1"), 0, testOptions(nil))
	go s.Attach(local)

	readMsg(t, remote)
	peerOpen := msg.Open{Version: 4, ASN: 65001, HoldTime: 0, Identifier: netip.MustParseAddr("10.0.0.2")}
	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())
	readMsg(t, remote)
	writeMsg(t, remote, msg.KEEPALIVE, nil)

	require.Eventually(t, func() bool {
		return s.State() == fsm.ESTABLISHED
	}, time.Second, 5*time.Millisecond)

	nlri := []netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")}
	raw := msg.MarshalUpdate(msg.OriginIGP, []uint16{65001}, netip.MustParseAddr("10.0.0.2"), nlri)
	writeMsg(t, remote, msg.UPDATE, raw)

	require.Eventually(t, func() bool {
		return len(s.RoutesReceived()) == 1
	}, time.Second, 5*time.Millisecond)

	routes := s.RoutesReceived()
	assert.Equal(t, "203.0.113.0/24", routes[0].Prefix)
	assert.Equal(t, "10.0.0.2", routes[0].NextHop)

	s.Close()
}

func TestSession_UnexpectedOpenInOpenConfirmSendsFSMError(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	s := New(netip.MustParseAddr("192.0.2.1"), 0, testOptions(nil))
	go s.Attach(local)

	readMsg(t, remote)
	peerOpen := msg.Open{Version: 4, ASN: 65001, HoldTime: 0, Identifier: netip.MustParseAddr("10.0.0.2")}
	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())
	readMsg(t, remote) // KEEPALIVE
	require.Equal(t, fsm.OPEN_CONFIRM, s.State())

	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())

	typ, payload := readMsg(t, remote)
	require.Equal(t, msg.NOTIFICATION, typ)
	var n msg.Notification
	require.NoError(t, n.Unmarshal(payload))
	assert.EqualValues(t, msg.NotifyFSM, n.Code)

	require.Eventually(t, func() bool {
		return s.State() == fsm.IDLE
	}, time.Second, 5*time.Millisecond)
}

func TestSession_UnexpectedOpenInEstablishedIsIgnored(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	s := New(netip.MustParseAddr("192.0.2.1"), 0, testOptions(nil))
	go s.Attach(local)

	readMsg(t, remote)
	peerOpen := msg.Open{Version: 4, ASN: 65001, HoldTime: 0, Identifier: netip.MustParseAddr("10.0.0.2")}
	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())
	readMsg(t, remote) // KEEPALIVE
	writeMsg(t, remote, msg.KEEPALIVE, nil)

	require.Eventually(t, func() bool {
		return s.State() == fsm.ESTABLISHED
	}, time.Second, 5*time.Millisecond)

	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())

	// Unlike the OPEN_CONFIRM case, the session must stay up and keep
	// processing messages normally instead of sending a NOTIFICATION.
	nlri := []netip.Prefix{netip.MustParsePrefix("203.0.113.0/24")}
	raw := msg.MarshalUpdate(msg.OriginIGP, []uint16{65001}, netip.MustParseAddr("10.0.0.2"), nlri)
	writeMsg(t, remote, msg.UPDATE, raw)

	require.Eventually(t, func() bool {
		return len(s.RoutesReceived()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, fsm.ESTABLISHED, s.State())

	s.Close()
}

func TestSession_HoldTimerExpiryClosesSession(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	opts := testOptions(nil)
	s := New(netip.MustParseAddr("192.0.2.1"), 3, opts)
	go s.Attach(local)

	readMsg(t, remote)
	peerOpen := msg.Open{Version: 4, ASN: 65001, HoldTime: 3, Identifier: netip.MustParseAddr("10.0.0.2")}
	writeMsg(t, remote, msg.OPEN, peerOpen.Marshal())
	readMsg(t, remote) // KEEPALIVE
	writeMsg(t, remote, msg.KEEPALIVE, nil)

	require.Eventually(t, func() bool {
		return s.State() == fsm.ESTABLISHED
	}, time.Second, 5*time.Millisecond)

	// Negotiated hold is 3s; starve it of further input and expect a
	// NOTIFICATION(4,0) followed by a return to IDLE.
	typ, payload := readMsg(t, remote)
	for typ == msg.KEEPALIVE {
		typ, payload = readMsg(t, remote)
	}
	require.Equal(t, msg.NOTIFICATION, typ)
	var n msg.Notification
	require.NoError(t, n.Unmarshal(payload))
	assert.EqualValues(t, msg.NotifyHoldExpired, n.Code)

	require.Eventually(t, func() bool {
		return s.State() == fsm.IDLE
	}, time.Second, 5*time.Millisecond)
}
