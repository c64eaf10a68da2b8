package transport

import (
	"context"
	"net"
	"net/netip"

	"github.com/rs/zerolog"
)

// Listener accepts inbound TCP connections on the BGP port and hands each
// one to a fresh Session. Unknown peer IPs and IPs that already have a
// tracked session are closed without ceremony.
type Listener struct {
	Log *zerolog.Logger

	// Addr is the local bind address, e.g. "0.0.0.0:179".
	Addr string

	// HoldTimes maps each configured peer IP to its configured hold
	// time. An IP absent from this map is not a configured peer.
	HoldTimes map[netip.Addr]uint16

	Table      SessionTable
	NewSession NewSessionFunc
}

// Run binds Addr and accepts connections until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.Addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	l.log().Info().Str("addr", l.Addr).Msg("listener up")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.log().Debug().Err(err).Msg("accept failed")
			continue
		}
		go l.handle(conn)
	}
}

func (l *Listener) handle(conn net.Conn) {
	peerIP, ok := peerAddr(conn)
	if !ok {
		conn.Close()
		return
	}

	hold, known := l.HoldTimes[peerIP]
	if !known {
		l.log().Debug().Str("peer", peerIP.String()).Msg("connection from unconfigured peer, closing")
		conn.Close()
		return
	}

	if _, exists := l.Table.Get(peerIP); exists {
		l.log().Debug().Str("peer", peerIP.String()).Msg("session already exists, closing new connection")
		conn.Close()
		return
	}

	sess := l.NewSession(peerIP, hold)
	if !l.Table.Insert(peerIP, sess) {
		conn.Close()
		return
	}
	defer l.Table.Remove(peerIP, sess)

	sess.Attach(conn)
}

func (l *Listener) log() *zerolog.Logger {
	if l.Log != nil {
		return l.Log
	}
	nop := zerolog.Nop()
	return &nop
}

// peerAddr extracts the remote IP from conn, ignoring the port.
func peerAddr(conn net.Conn) (netip.Addr, bool) {
	ap, err := netip.ParseAddrPort(conn.RemoteAddr().String())
	if err != nil {
		return netip.Addr{}, false
	}
	return ap.Addr(), true
}
