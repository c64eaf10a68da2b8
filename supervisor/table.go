package supervisor

import (
	"net/netip"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/routerd/bgpd/fsm"
	"github.com/routerd/bgpd/mgmt"
	"github.com/routerd/bgpd/session"
)

// Table is the single peer-indexed session table shared by the listener,
// every dialer, and the management endpoint. Each session runs as its own
// goroutine, so the table needs a concurrency-safe map; xsync.MapOf gives
// lock-free reads for the common Get/ListSessions paths.
type Table struct {
	sessions *xsync.MapOf[netip.Addr, *session.Session]
}

// NewTable returns an empty session table.
func NewTable() *Table {
	return &Table{sessions: xsync.NewMapOf[netip.Addr, *session.Session]()}
}

// Get implements transport.SessionTable.
func (t *Table) Get(peer netip.Addr) (*session.Session, bool) {
	return t.sessions.Load(peer)
}

// Insert implements transport.SessionTable: it succeeds only if peer had no
// tracked session, enforcing at most one session per peer IP at the one
// point where two goroutines (listener, dialer) can race to create one.
func (t *Table) Insert(peer netip.Addr, s *session.Session) bool {
	_, loaded := t.sessions.LoadOrStore(peer, s)
	return !loaded
}

// Remove implements transport.SessionTable. It only deletes the entry if s
// is still the tracked session for peer, so a stale caller can never evict
// a session that replaced it.
func (t *Table) Remove(peer netip.Addr, s *session.Session) {
	cur, ok := t.sessions.Load(peer)
	if ok && cur == s {
		t.sessions.Delete(peer)
	}
}

// ListSessions implements mgmt.SessionLister: a consistent, independent
// snapshot of every tracked session, safe to build while sessions run.
func (t *Table) ListSessions() []mgmt.SessionView {
	var out []mgmt.SessionView
	t.sessions.Range(func(peer netip.Addr, s *session.Session) bool {
		snap := s.Snapshot()
		out = append(out, mgmt.SessionView{
			PeerIP:       snap.PeerIP,
			RemoteASN:    snap.RemoteASN,
			State:        snap.State.String(),
			Established:  snap.State == fsm.ESTABLISHED,
			StartTime:    snap.StartTime,
			MsgsSent:     snap.MsgsSent,
			MsgsReceived: snap.MsgsReceived,
			Routes:       s.RoutesReceived(),
		})
		return true
	})
	return out
}
