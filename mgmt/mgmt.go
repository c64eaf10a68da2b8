// Package mgmt implements the read-only management IPC endpoint: a
// Unix-domain stream socket answering one JSON request with one JSON
// response per connection.
package mgmt

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/routerd/bgpd/rib"
	"github.com/rs/zerolog"
)

// SessionView is the read-only, point-in-time view of one session that the
// management endpoint renders into responses. It never touches a live
// Session directly; the caller (supervisor) builds these from
// session.Session.Snapshot() plus session.Session.RoutesReceived().
type SessionView struct {
	PeerIP       netip.Addr
	RemoteASN    uint16
	State        string
	Established  bool
	StartTime    time.Time
	MsgsSent     uint64
	MsgsReceived uint64
	Routes       []rib.Route
}

// SessionLister supplies the current set of sessions to render. The
// supervisor's table implements this directly.
type SessionLister interface {
	ListSessions() []SessionView
}

// Server answers management queries over a Unix-domain socket.
type Server struct {
	Log *zerolog.Logger

	SocketPath string

	// LocalID is this speaker's own router ID. show_neighbors reports it
	// in the peer_ip field instead of the actual peer address — a known
	// quirk preserved for compatibility.
	LocalID netip.Addr

	OriginatedPrefixes []string

	Sessions SessionLister
}

// Run removes any stale socket file, binds SocketPath, and serves
// connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := os.Remove(s.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("mgmt: removing stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("mgmt: listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.log().Info().Str("socket", s.SocketPath).Msg("management endpoint up")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log().Debug().Err(err).Msg("mgmt accept failed")
			continue
		}
		go s.handleConn(conn)
	}
}

// handleConn reads one newline-delimited JSON request, dispatches it, and
// writes one newline-delimited JSON response before closing.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	line, _ := bufio.NewReader(conn).ReadBytes('\n')
	line = bytes.TrimSpace(line)

	resp := s.safeDispatch(line)
	resp = append(resp, '\n')
	conn.Write(resp)
}

// safeDispatch never lets a handler panic escape to the accept loop; any
// recovered panic becomes an error response instead.
func (s *Server) safeDispatch(req []byte) (resp []byte) {
	defer func() {
		if r := recover(); r != nil {
			resp = errorResponse(fmt.Sprint(r))
		}
	}()
	return s.dispatch(req)
}

func (s *Server) log() *zerolog.Logger {
	if s.Log != nil {
		return s.Log
	}
	nop := zerolog.Nop()
	return &nop
}
