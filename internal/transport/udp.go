package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"
)

// DefaultTimeout bounds a receive when the caller does not override it.
const DefaultTimeout = 5 * time.Second

// MaxDatagram is the largest UDP payload accepted by IPv4.
const MaxDatagram = 65507

// ErrTimeout is returned when a receive window elapses without data.
var ErrTimeout = errors.New("transport: receive timeout")

const (
	// DrainTimeout bounds each read while discarding queued datagrams.
	DrainTimeout = time.Millisecond
	maxDrain     = 64
)

// Drain discards datagrams already queued on c, such as replies that missed
// their receive window, and returns how many were dropped.
func Drain(c Conn) int {
	buf := make([]byte, MaxDatagram)
	n := 0
	for ; n < maxDrain; n++ {
		if _, _, err := c.ReceiveFrom(buf, DrainTimeout); err != nil {
			break
		}
	}
	return n
}

// Conn is a datagram socket with one bounded receive per call.
type Conn interface {
	SendTo(b []byte, to netip.AddrPort) (int, error)
	ReceiveFrom(b []byte, timeout time.Duration) (int, netip.AddrPort, error)
	SetBroadcast(on bool) error
	LocalAddr() netip.AddrPort
	Close() error
}

// Listener opens Conns. It lets sessions be built over fakes in tests.
type Listener interface {
	Listen(local netip.AddrPort) (Conn, error)
}

// UDPListener opens real UDP sockets.
type UDPListener struct{}

func (UDPListener) Listen(local netip.AddrPort) (Conn, error) {
	return Listen(local)
}

// UDP is an IPv4 UDP socket.
type UDP struct {
	conn *net.UDPConn
}

// Listen binds a UDP socket on local. The zero address binds all interfaces.
func Listen(local netip.AddrPort) (*UDP, error) {
	lc := net.ListenConfig{Control: controlSocket}
	addr := local.String()
	if !local.Addr().IsValid() {
		addr = fmt.Sprintf("0.0.0.0:%d", local.Port())
	}
	pc, err := lc.ListenPacket(context.Background(), "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	return &UDP{conn: pc.(*net.UDPConn)}, nil
}

func (u *UDP) SendTo(b []byte, to netip.AddrPort) (int, error) {
	if len(b) > MaxDatagram {
		return 0, fmt.Errorf("datagram of %d bytes exceeds %d", len(b), MaxDatagram)
	}
	return u.conn.WriteToUDPAddrPort(b, to)
}

// ReceiveFrom waits at most timeout for one datagram.
func (u *UDP) ReceiveFrom(b []byte, timeout time.Duration) (int, netip.AddrPort, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := u.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, netip.AddrPort{}, err
	}
	n, from, err := u.conn.ReadFromUDPAddrPort(b)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return 0, netip.AddrPort{}, ErrTimeout
		}
		return 0, netip.AddrPort{}, err
	}
	return n, netip.AddrPortFrom(from.Addr().Unmap(), from.Port()), nil
}

func (u *UDP) SetBroadcast(on bool) error {
	raw, err := u.conn.SyscallConn()
	if err != nil {
		return err
	}
	if err := setBroadcast(raw, on); err != nil {
		return fmt.Errorf("set broadcast: %w", err)
	}
	return nil
}

func (u *UDP) LocalAddr() netip.AddrPort {
	ap := u.conn.LocalAddr().(*net.UDPAddr).AddrPort()
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

func (u *UDP) Close() error {
	return u.conn.Close()
}
