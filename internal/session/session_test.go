package session

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"showbridge/internal/bridge"
	"showbridge/internal/logger"
	"showbridge/internal/netif"
	"showbridge/internal/protocol"
	"showbridge/internal/protocol/protocoltest"
	"showbridge/internal/transport/transporttest"
)

var (
	bridgeAddr = netip.MustParseAddr("192.168.1.40")
	dirHost    = netip.MustParseAddrPort("192.168.1.50:8099")
	eth0       = netif.Interface{Name: "eth0", IP: net.IPv4(192, 168, 1, 10), Mask: net.CIDRMask(24, 32)}
)

// fixture wires a session to fake bridge and directory sockets.
type fixture struct {
	s         *Session
	bridge    *transporttest.Conn
	dir       *transporttest.Conn
	listener  *transporttest.Listener
	frameCode protocol.Command
	status    uint8
	ports     []uint16
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{frameCode: protocol.CmdFrameAck, status: 1, ports: []uint16{10001, 10002}}
	from := netip.AddrPortFrom(bridgeAddr, bridge.DefaultCommandPort)
	f.bridge = &transporttest.Conn{Respond: func(d transporttest.Datagram) []transporttest.Datagram {
		cmd := protocol.Command(d.Data[3])
		switch cmd {
		case protocol.CmdScan:
			return []transporttest.Datagram{{Addr: from, Data: protocol.Encode(protocol.CmdScanReply, []byte{2, 30})}}
		case protocol.CmdFrame:
			return []transporttest.Datagram{{Addr: from, Data: protocol.Encode(f.frameCode, nil)}}
		}
		return []transporttest.Datagram{{Addr: from, Data: protocol.Encode(cmd.Reply(), nil)}}
	}}
	f.dir = &transporttest.Conn{Respond: func(d transporttest.Datagram) []transporttest.Datagram {
		q, err := protocol.DecodeQuery(d.Data)
		if err != nil {
			return nil
		}
		r := protocol.Result{Status: [4]uint8{f.status}, Query: q}
		switch q.Kind {
		case protocol.QueryList:
			r.Content = protocol.ShowList{Count: uint8(len(f.ports)), Endian: protocol.LittleEndian, Ports: f.ports}
		case protocol.QueryInfo:
			r.Content = protocol.Show{ID: int16(q.ShowIndex), Port: f.ports[q.ShowIndex], Name: "show"}
		}
		return []transporttest.Datagram{{Addr: dirHost, Data: protocoltest.EncodeResult(r, protocol.OrderFor(protocol.LittleEndian))}}
	}}
	f.listener = &transporttest.Listener{Conns: []*transporttest.Conn{f.bridge, f.dir}}
	f.s = New(f.listener, logger.Discard(), Options{
		BridgeLocalPort: bridge.DefaultClientPort,
		Directory:       dirHost,
	})
	return f
}

func (f *fixture) scanned(t *testing.T) {
	t.Helper()
	require.NoError(t, f.s.Bind())
	n, err := f.s.Scan([]netif.Interface{eth0})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestOperationsBeforeBind(t *testing.T) {
	s := New(&transporttest.Listener{}, logger.Discard(), Options{})
	assert.Equal(t, Uninitialized, s.State())

	_, err := s.Scan(nil)
	assert.True(t, errors.Is(err, protocol.ErrNotInitialized))
	_, err = s.ShowList()
	assert.True(t, errors.Is(err, protocol.ErrNotInitialized))
	assert.True(t, errors.Is(s.SelectBridge(0), protocol.ErrNotInitialized))
	assert.True(t, errors.Is(s.SelectShow(0), protocol.ErrNotInitialized))
	assert.True(t, errors.Is(s.SendFrame(protocol.Frame{}), protocol.ErrNotInitialized))
	assert.True(t, errors.Is(s.SendPointsToShow(protocol.Frame{}), protocol.ErrNotInitialized))
	assert.True(t, errors.Is(s.Play(), protocol.ErrNotInitialized))
	assert.True(t, errors.Is(s.SendDMX(0, [512]byte{}), protocol.ErrNotInitialized))
	_, err = s.ShowInfo(0)
	assert.True(t, errors.Is(err, protocol.ErrNotInitialized))
	_, err = s.BridgeInfo(0)
	assert.True(t, errors.Is(err, protocol.ErrNotInitialized))
}

func TestBindFailureLeavesStateUnchanged(t *testing.T) {
	l := &transporttest.Listener{Err: errors.New("address already in use")}
	s := New(l, logger.Discard(), Options{})
	err := s.Bind()
	require.True(t, errors.Is(err, protocol.ErrSocketBind))
	assert.Equal(t, Uninitialized, s.State())
}

func TestBindUsesConfiguredPorts(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Bind())
	assert.Equal(t, Bound, f.s.State())
	require.Len(t, f.listener.Bound, 2)
	assert.Equal(t, uint16(8099), f.listener.Bound[0].Port())
	assert.Equal(t, uint16(0), f.listener.Bound[1].Port())

	// second bind is a no-op
	require.NoError(t, f.s.Bind())
	assert.Len(t, f.listener.Bound, 2)
}

func TestScanSelectStream(t *testing.T) {
	f := newFixture(t)
	f.scanned(t)
	assert.Equal(t, Scanned, f.s.State())

	err := f.s.SendFrame(protocol.Frame{})
	require.True(t, errors.Is(err, protocol.ErrNotSelected))

	require.True(t, errors.Is(f.s.SelectBridge(1), protocol.ErrIndexOutOfRange))
	assert.Equal(t, Scanned, f.s.State())

	require.NoError(t, f.s.SelectBridge(0))
	assert.Equal(t, Selected, f.s.State())
	b, err := f.s.SelectedBridge()
	require.NoError(t, err)
	assert.Equal(t, 30000, b.MaxPPS)

	require.NoError(t, f.s.SendFrame(protocol.Frame{Points: make([]protocol.Point, 4)}))
	assert.Equal(t, Streaming, f.s.State())

	f.frameCode = protocol.CmdFrameAck + 1
	err = f.s.SendFrame(protocol.Frame{Points: make([]protocol.Point, 4)})
	require.True(t, errors.Is(err, protocol.ErrMalformedResponse))
	assert.Equal(t, Selected, f.s.State())
}

func TestRescanDropsSelection(t *testing.T) {
	f := newFixture(t)
	f.scanned(t)
	require.NoError(t, f.s.SelectBridge(0))

	_, err := f.s.Scan(nil)
	require.NoError(t, err)
	assert.Equal(t, Scanned, f.s.State())
	require.True(t, errors.Is(f.s.Play(), protocol.ErrNotSelected))
}

func TestControlNeedsSelectedBridge(t *testing.T) {
	f := newFixture(t)
	f.scanned(t)
	sent := f.bridge.SentCount()
	require.True(t, errors.Is(f.s.Stop(), protocol.ErrNotSelected))
	require.True(t, errors.Is(f.s.SetPPS(20000), protocol.ErrNotSelected))
	assert.Equal(t, sent, f.bridge.SentCount())

	require.NoError(t, f.s.SelectBridge(0))
	require.NoError(t, f.s.Play())
	require.NoError(t, f.s.Pause())
	require.NoError(t, f.s.Resume())
	require.NoError(t, f.s.SetPPS(20000))
	last := f.bridge.Sent[len(f.bridge.Sent)-1]
	assert.Equal(t, netip.AddrPortFrom(bridgeAddr, bridge.DefaultCommandPort), last.Addr)
	assert.Equal(t, byte(protocol.CmdSetPPS), last.Data[3])
}

func TestShowSelectionAndPoints(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Bind())

	require.True(t, errors.Is(f.s.SelectShow(0), protocol.ErrIndexOutOfRange))

	list, err := f.s.ShowList()
	require.NoError(t, err)
	assert.Equal(t, uint8(2), list.Count)
	assert.Equal(t, Scanned, f.s.State())
	assert.False(t, f.s.Swapped())

	require.True(t, errors.Is(f.s.SendPointsToShow(protocol.Frame{}), protocol.ErrNotSelected))
	require.True(t, errors.Is(f.s.SelectShow(2), protocol.ErrIndexOutOfRange))
	require.NoError(t, f.s.SelectShow(1))
	assert.Equal(t, Selected, f.s.State())

	require.NoError(t, f.s.SendPointsToShow(protocol.Frame{Points: make([]protocol.Point, 3)}))
	assert.Equal(t, Streaming, f.s.State())
	last := f.dir.Sent[len(f.dir.Sent)-1]
	assert.Equal(t, netip.AddrPortFrom(dirHost.Addr(), 10002), last.Addr)

	show, err := f.s.ShowInfo(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(10002), show.Port)

	// a fresh list drops the show selection
	_, err = f.s.ShowList()
	require.NoError(t, err)
	assert.Equal(t, Scanned, f.s.State())
}

func TestRejectedListKeepsSelection(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.Bind())
	_, err := f.s.ShowList()
	require.NoError(t, err)
	require.NoError(t, f.s.SelectShow(0))

	f.status = 0
	_, err = f.s.ShowList()
	require.True(t, errors.Is(err, protocol.ErrRejected))
	assert.Equal(t, Selected, f.s.State())
}

func TestCloseReleasesSockets(t *testing.T) {
	f := newFixture(t)
	f.scanned(t)
	require.NoError(t, f.s.SelectBridge(0))
	require.NoError(t, f.s.Close())
	assert.True(t, f.bridge.Closed)
	assert.True(t, f.dir.Closed)
	assert.Equal(t, Uninitialized, f.s.State())
	assert.Empty(t, f.s.Bridges())
	require.True(t, errors.Is(f.s.Play(), protocol.ErrNotInitialized))
}
