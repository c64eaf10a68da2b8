// Package fsm enumerates the BGP session states and events this speaker
// implements, and the legal transitions between them. It knows nothing
// about sockets, timers, or messages — only the shape of the machine.
package fsm

// State is a BGP session state.
type State int

const (
	IDLE State = iota
	CONNECT
	ACTIVE
	OPEN_SENT
	OPEN_CONFIRM
	ESTABLISHED
)

func (s State) String() string {
	switch s {
	case IDLE:
		return "IDLE"
	case CONNECT:
		return "CONNECT"
	case ACTIVE:
		return "ACTIVE"
	case OPEN_SENT:
		return "OPEN_SENT"
	case OPEN_CONFIRM:
		return "OPEN_CONFIRM"
	case ESTABLISHED:
		return "ESTABLISHED"
	default:
		return "UNKNOWN"
	}
}

// Event is a BGP FSM event this speaker reacts to. CONNECT/ACTIVE-only
// events from RFC 4271 (ConnectRetry, etc) are omitted: this simplified
// speaker skips the CONNECT and ACTIVE states entirely.
type Event int

const (
	EvTCPEstablished Event = iota // either direction: accepted or dialed
	EvTCPFail                     // read error, reset, or peer close
	EvRecvOpen
	EvRecvKeepalive
	EvRecvUpdate
	EvRecvNotification
	EvRecvOther // any message type not legal in the current state
	EvHoldExpires
	EvKeepaliveExpires
)

// Next reports the state reached from "from" on event "ev", and whether
// that transition is one this speaker implements. Callers still decide what
// side effect (send OPEN, send NOTIFICATION, ...) accompanies a transition;
// fsm only says whether it is legal and where it leads.
func Next(from State, ev Event) (to State, ok bool) {
	switch from {
	case IDLE:
		if ev == EvTCPEstablished {
			return OPEN_SENT, true
		}

	case OPEN_SENT:
		switch ev {
		case EvRecvOpen:
			return OPEN_CONFIRM, true
		case EvRecvNotification, EvRecvOther, EvTCPFail:
			return IDLE, true
		}

	case OPEN_CONFIRM:
		switch ev {
		case EvRecvKeepalive:
			return ESTABLISHED, true
		case EvRecvOpen, EvRecvNotification, EvRecvOther, EvTCPFail:
			return IDLE, true
		case EvKeepaliveExpires:
			return OPEN_CONFIRM, true
		case EvHoldExpires:
			return IDLE, true
		}

	case ESTABLISHED:
		switch ev {
		case EvRecvKeepalive, EvRecvUpdate, EvKeepaliveExpires:
			return ESTABLISHED, true
		case EvRecvNotification, EvTCPFail, EvHoldExpires:
			return IDLE, true
		case EvRecvOther:
			return ESTABLISHED, true // unexpected message: logged, no state change
		}
	}

	return from, false
}
