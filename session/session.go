// Package session implements one peer's BGP FSM instance: the receive loop,
// KeepAlive/Hold timers, and Adj-RIB-In. One Session exists per peer IP,
// created on first TCP association and destroyed on teardown.
package session

import (
	"context"
	"io"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/routerd/bgpd/fsm"
	"github.com/routerd/bgpd/msg"
	"github.com/routerd/bgpd/rib"
	"github.com/rs/zerolog"
)

// Session is a per-peer BGP session instance. The zero value is not usable;
// call New.
type Session struct {
	log *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	LocalASN      uint16
	LocalID       netip.Addr
	PeerIP        netip.Addr
	HoldTime      uint16 // configured, from peer config
	originated    []netip.Prefix

	mu             sync.Mutex
	state          fsm.State
	remoteASN      uint16
	negotiatedHold uint16
	startTime      time.Time
	timerCancel    context.CancelFunc

	conn     net.Conn
	writeMu  sync.Mutex
	closeOnce sync.Once

	holdReset chan struct{}

	msgsSent     atomic.Uint64
	msgsReceived atomic.Uint64

	RIB rib.AdjRIBIn
}

// New returns a Session for peerIP, not yet attached to any TCP stream.
func New(peerIP netip.Addr, holdTime uint16, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())

	log := opts.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	return &Session{
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		LocalASN:   opts.LocalASN,
		LocalID:    opts.LocalID,
		PeerIP:     peerIP,
		HoldTime:   holdTime,
		originated: opts.OriginatedPrefixes,
		state:      fsm.IDLE,
		holdReset:  make(chan struct{}, 1),
	}
}

// Snapshot is a read-only copy of the fields the management endpoint exposes.
type Snapshot struct {
	PeerIP       netip.Addr
	RemoteASN    uint16
	State        fsm.State
	StartTime    time.Time
	MsgsSent     uint64
	MsgsReceived uint64
}

// Snapshot returns a consistent, point-in-time copy of the session's
// observable fields. Safe to call concurrently with an active session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		PeerIP:       s.PeerIP,
		RemoteASN:    s.remoteASN,
		State:        s.state,
		StartTime:    s.startTime,
		MsgsSent:     s.msgsSent.Load(),
		MsgsReceived: s.msgsReceived.Load(),
	}
}

// State returns the current FSM state.
func (s *Session) State() fsm.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st fsm.State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// RoutesReceived returns a snapshot of this session's Adj-RIB-In.
func (s *Session) RoutesReceived() []rib.Route {
	return s.RIB.Snapshot()
}

// Attach takes ownership of conn, sends the opening OPEN message, and runs
// the receive loop until the session tears down. It returns once the
// session is back in IDLE.
func (s *Session) Attach(conn net.Conn) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}

	s.mu.Lock()
	if s.state != fsm.IDLE {
		s.mu.Unlock()
		return ErrAlreadyAttached
	}
	s.conn = conn
	s.startTime = time.Now()
	s.state, _ = fsm.Next(fsm.IDLE, fsm.EvTCPEstablished)
	s.mu.Unlock()

	s.log.Info().Str("peer", s.PeerIP.String()).Msg("session up")

	s.sendOpen()
	s.recvLoop()
	return nil
}

// Close tears the session down: cancels timers, closes the stream, and
// returns the FSM to IDLE. Idempotent; safe from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.timerCancel != nil {
			s.timerCancel()
		}
		s.conn.Close()
		s.state = fsm.IDLE
		s.mu.Unlock()

		s.cancel()
		s.log.Info().Str("peer", s.PeerIP.String()).Msg("session down")
	})
}

// send frames and writes one message, counting it on success. Message
// grain is atomic under writeMu: the receive loop's replies and the
// KeepAlive/Hold goroutines' writes never interleave bytes.
func (s *Session) send(typ msg.Type, payload []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	buf := msg.Pack(typ, payload)
	if _, err := s.conn.Write(buf); err != nil {
		s.log.Debug().Err(err).Str("peer", s.PeerIP.String()).Msg("write failed")
		return
	}
	s.msgsSent.Add(1)
}

func (s *Session) sendOpen() {
	o := msg.Open{
		Version:    msg.OpenVersion,
		ASN:        s.LocalASN,
		HoldTime:   s.HoldTime,
		Identifier: s.LocalID,
	}
	s.send(msg.OPEN, o.Marshal())
}

func (s *Session) sendKeepalive() {
	s.send(msg.KEEPALIVE, nil)
}

func (s *Session) sendNotification(code, sub byte) {
	n := msg.Notification{Code: code, Subcode: sub}
	s.send(msg.NOTIFICATION, n.Marshal())
	s.log.Warn().
		Str("peer", s.PeerIP.String()).
		Uint8("code", code).Uint8("subcode", sub).
		Msg("NOTIFICATION sent")
}

func (s *Session) sendOriginatedUpdate() {
	if len(s.originated) == 0 {
		return
	}
	asPath := []uint16{s.LocalASN}
	raw := msg.MarshalUpdate(msg.OriginIGP, asPath, s.LocalID, s.originated)
	s.send(msg.UPDATE, raw)
}

// recvLoop repeatedly reads one full BGP message and dispatches it, until
// the stream fails or the session is closed.
func (s *Session) recvLoop() {
	defer s.Close()

	hdr := make([]byte, msg.HeaderLen)
	for {
		if _, err := io.ReadFull(s.conn, hdr); err != nil {
			return
		}

		h, err := msg.UnpackHeader(hdr)
		if err != nil {
			s.sendNotification(msg.NotifyHeader, msg.NotifyHeaderSync)
			return
		}

		payload := make([]byte, h.Length-msg.HeaderLen)
		if len(payload) > 0 {
			if _, err := io.ReadFull(s.conn, payload); err != nil {
				return
			}
		}

		s.msgsReceived.Add(1)
		s.resetHold()

		if !s.handle(h.Type, payload) {
			return // session torn down by the handler
		}
	}
}

// handle dispatches one decoded message to the FSM. It returns false once
// the session has been closed, so recvLoop can stop reading.
func (s *Session) handle(typ msg.Type, payload []byte) bool {
	switch typ {
	case msg.OPEN:
		return s.onOpen(payload)
	case msg.KEEPALIVE:
		return s.onKeepalive()
	case msg.UPDATE:
		return s.onUpdate(payload)
	case msg.NOTIFICATION:
		return s.onNotification(payload)
	default:
		return s.onOther()
	}
}

func (s *Session) onOpen(payload []byte) bool {
	if s.State() == fsm.ESTABLISHED {
		s.log.Warn().Str("peer", s.PeerIP.String()).Msg("unexpected OPEN in ESTABLISHED, ignored")
		return true
	}
	if s.State() != fsm.OPEN_SENT {
		return s.fsmError()
	}

	var ro msg.Open
	if err := ro.Unmarshal(payload); err != nil {
		return s.fsmError()
	}

	negotiated := negotiateHold(s.HoldTime, ro.HoldTime)

	s.mu.Lock()
	s.remoteASN = ro.ASN
	s.negotiatedHold = negotiated
	s.state, _ = fsm.Next(fsm.OPEN_SENT, fsm.EvRecvOpen)
	s.mu.Unlock()

	s.log.Info().
		Str("peer", s.PeerIP.String()).
		Uint16("remote_as", ro.ASN).
		Uint16("hold", negotiated).
		Msg("received OPEN")

	if negotiated > 0 {
		s.armTimers(negotiated)
	}
	s.sendKeepalive()
	return true
}

func (s *Session) onKeepalive() bool {
	switch s.State() {
	case fsm.OPEN_CONFIRM:
		s.setState(fsm.ESTABLISHED)
		s.log.Info().Str("peer", s.PeerIP.String()).Msg("session established")
		s.sendOriginatedUpdate()
		return true
	case fsm.ESTABLISHED:
		return true // hold already reset by the caller
	default:
		return s.fsmError()
	}
}

func (s *Session) onUpdate(payload []byte) bool {
	if s.State() != fsm.ESTABLISHED {
		return s.fsmError()
	}

	var u msg.Update
	if err := u.Unmarshal(payload); err != nil {
		s.log.Debug().Err(err).Str("peer", s.PeerIP.String()).Msg("malformed UPDATE ignored")
		return true
	}

	nextHop := ""
	if u.Attrs.HasNextHop {
		nextHop = u.Attrs.NextHop.String()
	}

	for _, p := range u.NLRI {
		s.RIB.Append(rib.Route{
			Prefix:  p.String(),
			NextHop: nextHop,
			ASPath:  nil, // parsed but not stored
			Origin:  rib.OriginIGP,
		})
	}

	s.log.Debug().
		Str("peer", s.PeerIP.String()).
		Int("nlri", len(u.NLRI)).
		Msg("UPDATE received")
	return true
}

func (s *Session) onNotification(payload []byte) bool {
	var n msg.Notification
	_ = n.Unmarshal(payload)
	s.log.Warn().
		Str("peer", s.PeerIP.String()).
		Uint8("code", n.Code).Uint8("subcode", n.Subcode).
		Msg("NOTIFICATION received")
	s.Close()
	return false
}

func (s *Session) onOther() bool {
	if s.State() == fsm.ESTABLISHED {
		s.log.Warn().Str("peer", s.PeerIP.String()).Msg("unexpected message in ESTABLISHED, ignored")
		return true
	}
	return s.fsmError()
}

// fsmError sends NOTIFICATION(5,1) (FSM error) and tears the session down.
func (s *Session) fsmError() bool {
	s.sendNotification(msg.NotifyFSM, 1)
	s.Close()
	return false
}

// resetHold signals the Hold watchdog, if armed. Non-blocking: the channel
// is a one-slot, level-triggered primitive.
func (s *Session) resetHold() {
	select {
	case s.holdReset <- struct{}{}:
	default:
	}
}

// armTimers starts the KeepAlive emitter and Hold watchdog goroutines.
// Both are cancelled together, exactly once, on Close.
func (s *Session) armTimers(negotiatedHold uint16) {
	ctx, cancel := context.WithCancel(s.ctx)

	s.mu.Lock()
	s.timerCancel = cancel
	s.mu.Unlock()

	hold := time.Duration(negotiatedHold) * time.Second
	keepalive := hold / 3

	go s.keepaliveEmitter(ctx, keepalive)
	go s.holdWatchdog(ctx, hold)
}

func (s *Session) keepaliveEmitter(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sendKeepalive()
		}
	}
}

func (s *Session) holdWatchdog(ctx context.Context, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.holdReset:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(timeout)
		case <-timer.C:
			s.log.Warn().Str("peer", s.PeerIP.String()).Msg("hold timer expired")
			s.sendNotification(msg.NotifyHoldExpired, 0)
			s.Close()
			return
		}
	}
}

// negotiateHold picks the smaller of the two proposed hold times, or 0
// (no timers) if either side proposed 0.
func negotiateHold(local, remote uint16) uint16 {
	if local == 0 || remote == 0 {
		return 0
	}
	if local < remote {
		return local
	}
	return remote
}
