// Package transporttest provides an in-memory transport.Conn.
package transporttest

import (
	"net/netip"
	"sync"
	"time"

	"showbridge/internal/transport"
)

// Datagram is one packet seen by the fake.
type Datagram struct {
	Addr netip.AddrPort
	Data []byte
}

// Conn records sent datagrams and serves replies produced by Respond.
type Conn struct {
	mu sync.Mutex

	Local     netip.AddrPort
	Respond   func(d Datagram) []Datagram
	SendErr   error
	Sent      []Datagram
	Timeouts  []time.Duration
	Broadcast bool
	Closed    bool

	queue []Datagram
}

var _ transport.Conn = (*Conn)(nil)

func (c *Conn) SendTo(b []byte, to netip.AddrPort) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return 0, c.SendErr
	}
	d := Datagram{Addr: to, Data: append([]byte(nil), b...)}
	c.Sent = append(c.Sent, d)
	if c.Respond != nil {
		c.queue = append(c.queue, c.Respond(d)...)
	}
	return len(b), nil
}

// ReceiveFrom pops the next queued reply or times out immediately.
func (c *Conn) ReceiveFrom(b []byte, timeout time.Duration) (int, netip.AddrPort, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Timeouts = append(c.Timeouts, timeout)
	if len(c.queue) == 0 {
		return 0, netip.AddrPort{}, transport.ErrTimeout
	}
	d := c.queue[0]
	c.queue = c.queue[1:]
	return copy(b, d.Data), d.Addr, nil
}

// Push queues an unsolicited datagram.
func (c *Conn) Push(d Datagram) {
	c.mu.Lock()
	c.queue = append(c.queue, d)
	c.mu.Unlock()
}

func (c *Conn) SetBroadcast(on bool) error {
	c.mu.Lock()
	c.Broadcast = on
	c.mu.Unlock()
	return nil
}

func (c *Conn) LocalAddr() netip.AddrPort {
	return c.Local
}

func (c *Conn) Close() error {
	c.mu.Lock()
	c.Closed = true
	c.mu.Unlock()
	return nil
}

// Queued returns how many datagrams wait to be received.
func (c *Conn) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// SentCount returns how many datagrams were sent.
func (c *Conn) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}

// Listener hands out prepared Conns in order.
type Listener struct {
	Conns []*Conn
	Err   error
	Bound []netip.AddrPort
}

func (l *Listener) Listen(local netip.AddrPort) (transport.Conn, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.Bound = append(l.Bound, local)
	if len(l.Conns) == 0 {
		return &Conn{Local: local}, nil
	}
	c := l.Conns[0]
	l.Conns = l.Conns[1:]
	c.Local = local
	return c, nil
}
