package mgmt

import (
	"strconv"
	"strings"
	"time"

	"github.com/routerd/bgpd/json"
)

// dispatch parses req's "command" field and renders the matching response.
// Any unrecognized command, or a request that fails to parse at all,
// produces the same {"status":"error","message":"Unknown command"} shape.
func (s *Server) dispatch(req []byte) []byte {
	cmd, err := json.GetString(req, "command")
	if err != nil {
		return errorResponse("Unknown command")
	}

	switch cmd {
	case "show_neighbors":
		return s.showNeighbors()
	case "show_routes_received":
		return s.showRoutesReceived()
	case "show_routes_advertised":
		return s.showRoutesAdvertised()
	default:
		return errorResponse("Unknown command")
	}
}

func successEnvelope(data []byte) []byte {
	buf := make([]byte, 0, len(data)+32)
	buf = append(buf, `{"status":"success","data":`...)
	buf = append(buf, data...)
	return append(buf, '}')
}

func errorResponse(message string) []byte {
	buf := append([]byte(nil), `{"status":"error","message":`...)
	buf = json.String(buf, message)
	return append(buf, '}')
}

func (s *Server) showNeighbors() []byte {
	sessions := s.Sessions.ListSessions()

	buf := []byte{'['}
	for i, sv := range sessions {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '{')
		buf = append(buf, `"peer_ip":`...)
		buf = json.String(buf, s.LocalID.String()) // preserved quirk, see Server.LocalID
		buf = append(buf, `,"remote_as":`...)
		buf = json.Uint(buf, uint64(sv.RemoteASN))
		buf = append(buf, `,"state":`...)
		buf = json.String(buf, sv.State)
		buf = append(buf, `,"uptime":`...)
		buf = json.String(buf, uptime(sv))
		buf = append(buf, `,"msgs_sent":`...)
		buf = json.Uint(buf, sv.MsgsSent)
		buf = append(buf, `,"msgs_received":`...)
		buf = json.Uint(buf, sv.MsgsReceived)
		buf = append(buf, '}')
	}
	buf = append(buf, ']')

	return successEnvelope(buf)
}

// uptime formats the wall-clock delta since a session's start_time as
// H:MM:SS, only while ESTABLISHED.
func uptime(sv SessionView) string {
	if !sv.Established {
		return "N/A"
	}
	total := int64(time.Since(sv.StartTime).Seconds())
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return strconv.FormatInt(h, 10) + ":" + pad2(m) + ":" + pad2(sec)
}

func pad2(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func (s *Server) showRoutesReceived() []byte {
	sessions := s.Sessions.ListSessions()

	buf := []byte{'['}
	first := true
	for _, sv := range sessions {
		for _, r := range sv.Routes {
			if !first {
				buf = append(buf, ',')
			}
			first = false

			buf = append(buf, '{')
			buf = append(buf, `"prefix":`...)
			buf = json.String(buf, r.Prefix)
			buf = append(buf, `,"next_hop":`...)
			buf = json.String(buf, r.NextHop)
			buf = append(buf, `,"as_path":`...)
			buf = json.String(buf, stringifyASPath(r.ASPath))
			buf = append(buf, `,"origin":`...)
			buf = json.String(buf, string(r.Origin))
			buf = append(buf, `,"remote_as":`...)
			buf = json.Uint(buf, uint64(sv.RemoteASN))
			buf = append(buf, `,"received_from":`...)
			buf = json.String(buf, s.LocalID.String()) // preserved quirk, same as peer_ip above
			buf = append(buf, '}')
		}
	}
	buf = append(buf, ']')

	return successEnvelope(buf)
}

// stringifyASPath renders an AS_PATH as its bracketed, comma-separated
// text form. Always "[]" today: Route.ASPath is parsed from the wire but
// never populated.
func stringifyASPath(path []uint16) string {
	if len(path) == 0 {
		return "[]"
	}
	parts := make([]string, len(path))
	for i, asn := range path {
		parts[i] = strconv.FormatUint(uint64(asn), 10)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (s *Server) showRoutesAdvertised() []byte {
	return successEnvelope(json.Strings(nil, s.OriginatedPrefixes))
}
