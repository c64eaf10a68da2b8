// Package supervisor owns the peer-indexed session table and the lifecycle
// of the listener, one dialer per configured peer, and the management
// endpoint.
package supervisor

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"github.com/routerd/bgpd/config"
	"github.com/routerd/bgpd/mgmt"
	"github.com/routerd/bgpd/session"
	"github.com/routerd/bgpd/transport"
	"github.com/rs/zerolog"
)

// Supervisor wires one running instance of the speaker together: config in,
// a session table, and the three goroutine groups (listener, dialers,
// management) that populate and read it.
type Supervisor struct {
	Log    *zerolog.Logger
	Config *config.Config
	Table  *Table
}

// New returns a Supervisor ready to Run.
func New(cfg *config.Config, log *zerolog.Logger) *Supervisor {
	return &Supervisor{
		Log:    log,
		Config: cfg,
		Table:  NewTable(),
	}
}

// Run spawns the management endpoint, listener, and one dialer per
// configured peer, and blocks until ctx is cancelled. There is no graceful
// shutdown sequence beyond that.
func (sv *Supervisor) Run(ctx context.Context) error {
	newSession := sv.newSessionFunc()

	holdTimes := make(map[netip.Addr]uint16, len(sv.Config.Peers))
	for _, p := range sv.Config.Peers {
		holdTimes[p.IP] = p.HoldTime
	}

	mgmtSrv := &mgmt.Server{
		Log:                sv.Log,
		SocketPath:         sv.Config.Local.MgmtSocketPath,
		LocalID:            sv.Config.Local.RouterID,
		OriginatedPrefixes: prefixStrings(sv.Config.OriginatedPrefixes),
		Sessions:           sv.Table,
	}

	listener := &transport.Listener{
		Log:        sv.Log,
		Addr:       fmt.Sprintf("0.0.0.0:%d", sv.Config.Local.ListenPort),
		HoldTimes:  holdTimes,
		Table:      sv.Table,
		NewSession: newSession,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := mgmtSrv.Run(ctx); err != nil {
			sv.log().Error().Err(err).Msg("management endpoint stopped")
		}
	}()
	go func() {
		defer wg.Done()
		if err := listener.Run(ctx); err != nil {
			sv.log().Error().Err(err).Msg("listener stopped")
		}
	}()

	for _, peer := range sv.Config.Peers {
		peer := peer
		dialer := &transport.Dialer{
			Log:        sv.Log,
			PeerIP:     peer.IP,
			PeerPort:   peer.Port,
			HoldTime:   peer.HoldTime,
			Table:      sv.Table,
			NewSession: newSession,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			dialer.Run(ctx)
		}()
	}

	sv.log().Info().
		Int("peers", len(sv.Config.Peers)).
		Uint16("listen_port", sv.Config.Local.ListenPort).
		Msg("supervisor up")

	wg.Wait()
	return nil
}

func (sv *Supervisor) newSessionFunc() transport.NewSessionFunc {
	return func(peerIP netip.Addr, holdTime uint16) *session.Session {
		opts := session.DefaultOptions
		opts.Logger = sv.Log
		opts.LocalASN = sv.Config.Local.ASN
		opts.LocalID = sv.Config.Local.RouterID
		opts.OriginatedPrefixes = sv.Config.OriginatedPrefixes
		return session.New(peerIP, holdTime, opts)
	}
}

func (sv *Supervisor) log() *zerolog.Logger {
	if sv.Log != nil {
		return sv.Log
	}
	nop := zerolog.Nop()
	return &nop
}

func prefixStrings(prefixes []netip.Prefix) []string {
	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		out[i] = p.String()
	}
	return out
}
