package devsession

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// Host types stored in .expo/settings.json.
const (
	HostTypeLAN       = "lan"
	HostTypeLocalhost = "localhost"
	HostTypeTunnel    = "tunnel"
)

// PackagerInfo is the .expo/packager-info.json file written by the
// running dev servers. Zero ports mean the server is not running.
type PackagerInfo struct {
	PackagerPort      int    `json:"packagerPort,omitempty"`
	WebpackServerPort int    `json:"webpackServerPort,omitempty"`
	ExpoServerPort    int    `json:"expoServerPort,omitempty"`
	PackagerNgrokURL  string `json:"packagerNgrokUrl,omitempty"`
}

// ProjectSettings is the .expo/settings.json file.
type ProjectSettings struct {
	HostType string `json:"hostType,omitempty"`
	Scheme   string `json:"scheme,omitempty"`
	HTTPS    bool   `json:"https,omitempty"`
	Dev      bool   `json:"dev"`
	Minify   bool   `json:"minify"`
}

func defaultSettings() ProjectSettings {
	return ProjectSettings{HostType: HostTypeLAN, Dev: true}
}

// ReadPackagerInfo reads {projectRoot}/.expo/packager-info.json. A
// missing file yields the zero value.
func ReadPackagerInfo(projectRoot string) (PackagerInfo, error) {
	var info PackagerInfo
	err := readDotExpo(projectRoot, "packager-info.json", &info)
	return info, err
}

// ReadSettings reads {projectRoot}/.expo/settings.json over the
// defaults. A missing file yields the defaults.
func ReadSettings(projectRoot string) (ProjectSettings, error) {
	s := defaultSettings()
	if err := readDotExpo(projectRoot, "settings.json", &s); err != nil {
		return s, err
	}
	if s.HostType == "" {
		s.HostType = HostTypeLAN
	}
	return s, nil
}

func readDotExpo(projectRoot, name string, v any) error {
	path := filepath.Join(projectRoot, ".expo", name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// lanAddress returns the first non-loopback IPv4 address of an up
// interface, falling back to loopback.
func lanAddress() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "127.0.0.1"
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "127.0.0.1"
}
