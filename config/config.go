// Package config loads and validates the YAML configuration document that
// an operator hands to the daemon at startup.
package config

import "net/netip"

// Defaults applied to any field left unset in the configuration document.
const (
	DefaultListenPort      = 179
	DefaultHoldTimeSeconds = 180
	DefaultMgmtSocketPath  = "/tmp/bgp_agent.sock"
)

// Config is the fully validated, immutable-after-load configuration.
type Config struct {
	Local Local
	Peers []PeerConfig

	OriginatedPrefixes []netip.Prefix
}

// Local describes this speaker's own identity and listening endpoints.
type Local struct {
	ASN            uint16
	RouterID       netip.Addr
	ListenPort     uint16
	MgmtSocketPath string
}

// PeerConfig describes one configured peering session.
type PeerConfig struct {
	IP        netip.Addr
	Port      uint16
	RemoteASN uint16
	HoldTime  uint16
}
