package config

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// rawConfig mirrors the YAML shape but leaves numeric fields as interface{}
// so cast can coerce whichever scalar representation the document used
// (e.g. `port: 179` vs `port: "179"`).
type rawConfig struct {
	Local struct {
		ASN            interface{} `yaml:"asn"`
		RouterID       string      `yaml:"router_id"`
		ListenPort     interface{} `yaml:"listen_port"`
		MgmtSocketPath string      `yaml:"mgmt_socket_path"`
	} `yaml:"local"`

	Peers []struct {
		IP        string      `yaml:"ip"`
		Port      interface{} `yaml:"port"`
		RemoteASN interface{} `yaml:"remote_as"`
		HoldTime  interface{} `yaml:"hold_time_s"`
	} `yaml:"peers"`

	OriginatedPrefixes []string `yaml:"originated_prefixes"`
}

// Load reads, parses, and validates the configuration document at path,
// applying defaults for any field left unset. A load failure is fatal at
// startup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return normalize(raw)
}

func normalize(raw rawConfig) (*Config, error) {
	cfg := &Config{}

	asn, err := cast.ToUint16E(raw.Local.ASN)
	if err != nil {
		return nil, fmt.Errorf("%w: local.asn: %v", ErrInvalid, err)
	}
	cfg.Local.ASN = asn

	routerID, err := netip.ParseAddr(raw.Local.RouterID)
	if err != nil {
		return nil, fmt.Errorf("%w: local.router_id %q: %v", ErrInvalid, raw.Local.RouterID, err)
	}
	cfg.Local.RouterID = routerID

	cfg.Local.ListenPort = DefaultListenPort
	if raw.Local.ListenPort != nil {
		port, err := cast.ToUint16E(raw.Local.ListenPort)
		if err != nil {
			return nil, fmt.Errorf("%w: local.listen_port: %v", ErrInvalid, err)
		}
		cfg.Local.ListenPort = port
	}

	cfg.Local.MgmtSocketPath = DefaultMgmtSocketPath
	if raw.Local.MgmtSocketPath != "" {
		cfg.Local.MgmtSocketPath = raw.Local.MgmtSocketPath
	}

	for i, rp := range raw.Peers {
		ip, err := netip.ParseAddr(rp.IP)
		if err != nil {
			return nil, fmt.Errorf("%w: peers[%d].ip %q: %v", ErrInvalid, i, rp.IP, err)
		}

		port := uint16(DefaultListenPort)
		if rp.Port != nil {
			port, err = cast.ToUint16E(rp.Port)
			if err != nil {
				return nil, fmt.Errorf("%w: peers[%d].port: %v", ErrInvalid, i, err)
			}
		}

		remoteASN, err := cast.ToUint16E(rp.RemoteASN)
		if err != nil {
			return nil, fmt.Errorf("%w: peers[%d].remote_as: %v", ErrInvalid, i, err)
		}

		hold := uint16(DefaultHoldTimeSeconds)
		if rp.HoldTime != nil {
			hold, err = cast.ToUint16E(rp.HoldTime)
			if err != nil {
				return nil, fmt.Errorf("%w: peers[%d].hold_time_s: %v", ErrInvalid, i, err)
			}
		}

		cfg.Peers = append(cfg.Peers, PeerConfig{
			IP:        ip,
			Port:      port,
			RemoteASN: remoteASN,
			HoldTime:  hold,
		})
	}

	for _, p := range raw.OriginatedPrefixes {
		prefix, err := netip.ParsePrefix(p)
		if err != nil {
			return nil, fmt.Errorf("%w: originated_prefixes %q: %v", ErrInvalid, p, err)
		}
		cfg.OriginatedPrefixes = append(cfg.OriginatedPrefixes, prefix)
	}

	return cfg, nil
}
