// Network probe — normalizes per-interface primary addresses.
// Uses gopsutil for cross-platform interface enumeration.
package probe

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v3/net"

	"github.com/syswatch-app/syswatch/internal/models"
)

type psutilNetworkProbe struct{}

// Collect gathers each interface's primary address. Interfaces without a
// parseable address are omitted, not treated as an error.
func (p *psutilNetworkProbe) Collect(ctx context.Context) (map[string]models.InterfaceInfo, error) {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string]models.InterfaceInfo)
	for _, iface := range ifaces {
		addrs := make([]string, 0, len(iface.Addrs))
		for _, a := range iface.Addrs {
			addrs = append(addrs, a.Addr)
		}
		ip := primaryAddress(addrs)
		if ip == "" {
			continue
		}
		result[iface.Name] = models.InterfaceInfo{IP: ip}
	}

	return result, nil
}

// primaryAddress picks the first IPv4 address from a list of CIDR strings,
// falling back to the first address of any family. The mask suffix is
// stripped; unparseable entries are ignored.
func primaryAddress(addrs []string) string {
	var fallback string
	for _, addr := range addrs {
		ip := strings.SplitN(addr, "/", 2)[0]
		if ip == "" {
			continue
		}
		if strings.Count(ip, ".") == 3 {
			return ip
		}
		if fallback == "" {
			fallback = ip
		}
	}
	return fallback
}
