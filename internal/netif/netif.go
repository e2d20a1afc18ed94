package netif

import (
	"fmt"
	"net"
	"net/netip"
)

// Interface is an IPv4 address bound to a local network interface.
type Interface struct {
	Name string
	IP   net.IP
	Mask net.IPMask
}

// Broadcast returns the directed broadcast address: ip | ^mask. The result is
// invalid unless the interface has an IPv4 address and a 4- or 16-byte mask.
func (i Interface) Broadcast() netip.Addr {
	ip := i.IP.To4()
	mask := i.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	if ip == nil || len(mask) != net.IPv4len {
		return netip.Addr{}
	}
	var b [4]byte
	for k := 0; k < 4; k++ {
		b[k] = ip[k] | ^mask[k]
	}
	return netip.AddrFrom4(b)
}

func (i Interface) String() string {
	ones, _ := i.Mask.Size()
	return fmt.Sprintf("%s %s/%d", i.Name, i.IP, ones)
}

// List returns every IPv4 address of the interfaces that are up.
// Loopback is kept only when includeLoopback is set.
func List(includeLoopback bool) ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("error getting interfaces: %w", err)
	}

	var out []Interface
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 {
			continue
		}
		if ifc.Flags&net.FlagLoopback != 0 && !includeLoopback {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			return nil, fmt.Errorf("error getting ips of %s: %w", ifc.Name, err)
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			out = append(out, Interface{Name: ifc.Name, IP: ipNet.IP.To4(), Mask: ipNet.Mask})
		}
	}
	return out, nil
}

// Select keeps the interfaces whose name is in names. An empty names keeps all.
func Select(ifaces []Interface, names []string) []Interface {
	if len(names) == 0 {
		return ifaces
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	var out []Interface
	for _, i := range ifaces {
		if _, ok := want[i.Name]; ok {
			out = append(out, i)
		}
	}
	return out
}

// FindIPInRange finds the first local IPv4 address inside cidr.
// It returns nil without error when no interface matches.
func FindIPInRange(cidr string) (net.IP, error) {
	_, cidrNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("bad address range %q: %w", cidr, err)
	}
	address, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("error getting ips: %w", err)
	}

	for _, addr := range address {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.To4() == nil {
			continue
		}
		if cidrNet.Contains(ipNet.IP) {
			return ipNet.IP.To4(), nil
		}
	}

	return nil, nil
}
