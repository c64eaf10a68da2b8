// Package transport owns the TCP side of peering: the inbound Listener and
// the per-peer outbound Dialer. Both consult a SessionTable rather than a
// concrete supervisor type, so collision avoidance lives in exactly one
// place regardless of which side won the race.
package transport

import (
	"context"
	"net/netip"
	"time"

	"github.com/routerd/bgpd/session"
)

// SessionTable is the subset of the supervisor's peer table that Listener
// and Dialer need: look up, insert-if-absent, and remove.
type SessionTable interface {
	// Get returns the session for peer, if one is currently tracked.
	Get(peer netip.Addr) (*session.Session, bool)

	// Insert adds s for peer and reports true, unless a session for peer
	// is already tracked, in which case it reports false and leaves the
	// table unchanged.
	Insert(peer netip.Addr, s *session.Session) bool

	// Remove drops peer's entry, if s is still the tracked session.
	Remove(peer netip.Addr, s *session.Session)
}

// NewSessionFunc builds a fresh, unattached Session for peerIP using the
// supervisor's local identity and per-peer hold time.
type NewSessionFunc func(peerIP netip.Addr, holdTime uint16) *session.Session

// sleepCtx sleeps for d, returning false early if ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
