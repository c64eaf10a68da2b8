// Package rib holds the per-session Adjacency RIB-In: routes received from
// one peer, stored in receipt order, before any policy or decision process
// (this speaker implements neither).
package rib

import "sync"

// Origin mirrors msg.Origin as a string for the management/JSON surface.
type Origin string

const (
	OriginIGP        Origin = "IGP"
	OriginEGP        Origin = "EGP"
	OriginIncomplete Origin = "INCOMPLETE"
)

// Route is one entry received in an UPDATE's NLRI.
type Route struct {
	Prefix  string   // "a.b.c.d/len"
	NextHop string   // IPv4 dotted-quad
	ASPath  []uint16 // left empty: parsed from the wire but not stored
	Origin  Origin
}

// AdjRIBIn is an append-only, insertion-ordered list of routes received
// from one peer. Growth is unbounded; nothing ever evicts an entry.
type AdjRIBIn struct {
	mu     sync.Mutex
	routes []Route
}

// Append adds route to the end of the RIB.
func (r *AdjRIBIn) Append(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Snapshot returns a copy of the current routes, preserving insertion order.
func (r *AdjRIBIn) Snapshot() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}
