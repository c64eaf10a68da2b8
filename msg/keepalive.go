package msg

// Keepalive represents a BGP KEEPALIVE message. Its wire payload is always
// empty; the type exists only to keep the message kinds symmetrical.
type Keepalive struct{}

// Marshal always returns an empty payload.
func (Keepalive) Marshal() []byte { return nil }
