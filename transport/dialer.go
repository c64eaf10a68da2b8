package transport

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/routerd/bgpd/fsm"
	"github.com/rs/zerolog"
)

// DefaultRetryInterval is how long a Dialer waits between connect attempts
// and between polls of an occupied session slot.
const DefaultRetryInterval = 5 * time.Second

// Dialer repeatedly attempts an outbound connection to one configured peer
// until it successfully hands off a Session, then exits. It does not
// re-enter the retry loop after that session tears down.
type Dialer struct {
	Log *zerolog.Logger

	PeerIP   netip.Addr
	PeerPort uint16
	HoldTime uint16

	Table      SessionTable
	NewSession NewSessionFunc

	// RetryInterval defaults to DefaultRetryInterval when zero.
	RetryInterval time.Duration
}

// Run drives the retry loop until a session is handed off or ctx is
// cancelled.
func (d *Dialer) Run(ctx context.Context) {
	interval := d.RetryInterval
	if interval == 0 {
		interval = DefaultRetryInterval
	}

	for {
		if ctx.Err() != nil {
			return
		}

		if sess, exists := d.Table.Get(d.PeerIP); exists && sess.State() != fsm.IDLE {
			if !sleepCtx(ctx, interval) {
				return
			}
			continue
		}

		addr := netip.AddrPortFrom(d.PeerIP, d.PeerPort).String()
		var nd net.Dialer
		conn, err := nd.DialContext(ctx, "tcp", addr)
		if err != nil {
			d.log().Debug().Err(err).Str("peer", d.PeerIP.String()).Msg("dial failed, retrying")
			if !sleepCtx(ctx, interval) {
				return
			}
			continue
		}

		if _, exists := d.Table.Get(d.PeerIP); exists {
			conn.Close() // accept won the race
			if !sleepCtx(ctx, interval) {
				return
			}
			continue
		}

		sess := d.NewSession(d.PeerIP, d.HoldTime)
		if !d.Table.Insert(d.PeerIP, sess) {
			conn.Close()
			if !sleepCtx(ctx, interval) {
				return
			}
			continue
		}

		sess.Attach(conn)
		d.Table.Remove(d.PeerIP, sess)
		return
	}
}

func (d *Dialer) log() *zerolog.Logger {
	if d.Log != nil {
		return d.Log
	}
	nop := zerolog.Nop()
	return &nop
}
