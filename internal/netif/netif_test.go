package netif

import (
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcast(t *testing.T) {
	tests := []struct {
		ip, mask string
		want     string
	}{
		{"192.168.1.17", "255.255.255.0", "192.168.1.255"},
		{"10.1.2.3", "255.0.0.0", "10.255.255.255"},
		{"172.16.5.4", "255.255.240.0", "172.16.15.255"},
		{"127.0.0.1", "255.255.255.255", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			i := Interface{IP: net.ParseIP(tt.ip), Mask: net.IPMask(net.ParseIP(tt.mask).To4())}
			assert.Equal(t, netip.MustParseAddr(tt.want), i.Broadcast())
		})
	}
}

func TestBroadcastSixteenByteMask(t *testing.T) {
	i := Interface{IP: net.ParseIP("192.168.6.9"), Mask: net.CIDRMask(120, 128)}
	assert.Equal(t, netip.MustParseAddr("192.168.6.255"), i.Broadcast())
}

func TestBroadcastWithoutIPv4(t *testing.T) {
	tests := map[string]Interface{
		"ipv6 link-local": {IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
		"nil mask":        {IP: net.ParseIP("192.168.1.17")},
		"nil ip":          {Mask: net.CIDRMask(24, 32)},
		"short mask":      {IP: net.ParseIP("192.168.1.17"), Mask: net.IPMask{255, 255}},
	}
	for name, i := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, i.Broadcast().IsValid())
			})
		})
	}
}

func TestSelect(t *testing.T) {
	all := []Interface{{Name: "eth0"}, {Name: "wlan0"}, {Name: "eth1"}}
	assert.Equal(t, all, Select(all, nil))
	assert.Equal(t, []Interface{{Name: "eth0"}, {Name: "eth1"}}, Select(all, []string{"eth1", "eth0"}))
	assert.Empty(t, Select(all, []string{"nope"}))
}

func TestListIncludesLoopback(t *testing.T) {
	ifaces, err := List(true)
	require.NoError(t, err)
	for _, i := range ifaces {
		require.NotNil(t, i.IP.To4(), i.String())
	}
}

func TestFindIPInRangeBadCIDR(t *testing.T) {
	_, err := FindIPInRange("not-a-cidr")
	require.Error(t, err)
}

func TestFindIPInRangeLoopback(t *testing.T) {
	ip, err := FindIPInRange("127.0.0.0/8")
	require.NoError(t, err)
	if ip != nil {
		assert.True(t, ip.IsLoopback())
	}
}
