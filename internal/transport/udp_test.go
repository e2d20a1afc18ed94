package transport

import (
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loopback = netip.MustParseAddr("127.0.0.1")

func TestUDPSendReceive(t *testing.T) {
	a, err := Listen(netip.AddrPortFrom(loopback, 0))
	require.NoError(t, err)
	defer a.Close()
	b, err := Listen(netip.AddrPortFrom(loopback, 0))
	require.NoError(t, err)
	defer b.Close()

	n, err := a.SendTo([]byte("DM\x01\x00"), b.LocalAddr())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	buf := make([]byte, 16)
	n, from, err := b.ReceiveFrom(buf, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "DM\x01\x00", string(buf[:n]))
	assert.Equal(t, a.LocalAddr(), from)
}

func TestUDPReceiveTimeout(t *testing.T) {
	c, err := Listen(netip.AddrPortFrom(loopback, 0))
	require.NoError(t, err)
	defer c.Close()

	start := time.Now()
	_, _, err = c.ReceiveFrom(make([]byte, 4), 50*time.Millisecond)
	require.True(t, errors.Is(err, ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestUDPBroadcastFlag(t *testing.T) {
	c, err := Listen(netip.AddrPortFrom(loopback, 0))
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SetBroadcast(true))
	require.NoError(t, c.SetBroadcast(false))
}

func TestUDPRejectsOversizedDatagram(t *testing.T) {
	c, err := Listen(netip.AddrPortFrom(loopback, 0))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.SendTo(make([]byte, MaxDatagram+1), c.LocalAddr())
	require.Error(t, err)
}

func TestDrainDiscardsQueued(t *testing.T) {
	a, err := Listen(netip.AddrPortFrom(loopback, 0))
	require.NoError(t, err)
	defer a.Close()
	b, err := Listen(netip.AddrPortFrom(loopback, 0))
	require.NoError(t, err)
	defer b.Close()

	for i := 0; i < 3; i++ {
		_, err = a.SendTo([]byte{'D', 'M', 0x01, 0x11}, b.LocalAddr())
		require.NoError(t, err)
	}
	dropped := 0
	require.Eventually(t, func() bool {
		dropped += Drain(b)
		return dropped == 3
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, Drain(b))

	_, err = a.SendTo([]byte{'D', 'M', 0x01, 0x00}, b.LocalAddr())
	require.NoError(t, err)
	buf := make([]byte, 16)
	n, _, err := b.ReceiveFrom(buf, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{'D', 'M', 0x01, 0x00}, buf[:n])
}

// chatty never runs dry.
type chatty struct{ Conn }

func (chatty) ReceiveFrom(b []byte, _ time.Duration) (int, netip.AddrPort, error) {
	return copy(b, "DM\x01\x01"), netip.AddrPortFrom(loopback, 8089), nil
}

func TestDrainIsBounded(t *testing.T) {
	assert.Equal(t, maxDrain, Drain(chatty{}))
}
