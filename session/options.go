package session

import (
	"net/netip"

	"github.com/rs/zerolog"
)

// DefaultOptions is a ready-to-use zero value with logging disabled.
var DefaultOptions = Options{
	Logger: nil,
}

// Options configure a Session. Set before calling New; do not modify after.
type Options struct {
	Logger *zerolog.Logger // nil disables logging

	LocalASN uint16
	LocalID  netip.Addr

	// OriginatedPrefixes are advertised in a single UPDATE once the
	// session reaches ESTABLISHED.
	OriginatedPrefixes []netip.Prefix
}
