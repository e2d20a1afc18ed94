package bridge

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"showbridge/internal/logger"
	"showbridge/internal/netif"
	"showbridge/internal/protocol"
	"showbridge/internal/transport"
)

const (
	// DefaultCommandPort is where bridges listen for commands and scans.
	DefaultCommandPort = 8089
	// DefaultClientPort is the local port the bridge socket binds to.
	DefaultClientPort = 8099
	// DefaultScanTimeout is the silence that ends a scan.
	DefaultScanTimeout = 2000 * time.Millisecond
	// DefaultCommandTimeout bounds the wait for a command reply.
	DefaultCommandTimeout = 100 * time.Millisecond

	scanBufferSize = 1024
)

// Options tunes a Client. Zero values fall back to the defaults.
type Options struct {
	CommandPort    int
	ScanTimeout    time.Duration
	CommandTimeout time.Duration
	// WireEndian is the byte order of multi-byte fields on the wire.
	WireEndian protocol.Endian
}

// Client speaks the bridge dialect over one socket.
type Client struct {
	conn           transport.Conn
	log            logger.Logger
	port           uint16
	order          protocol.Order
	scanTimeout    time.Duration
	commandTimeout time.Duration
}

// NewClient конструктор.
func NewClient(conn transport.Conn, log logger.Logger, opts Options) *Client {
	c := &Client{
		conn:           conn,
		log:            log,
		port:           DefaultCommandPort,
		order:          protocol.OrderFor(opts.WireEndian),
		scanTimeout:    DefaultScanTimeout,
		commandTimeout: DefaultCommandTimeout,
	}
	if opts.CommandPort > 0 {
		c.port = uint16(opts.CommandPort)
	}
	if opts.ScanTimeout > 0 {
		c.scanTimeout = opts.ScanTimeout
	}
	if opts.CommandTimeout > 0 {
		c.commandTimeout = opts.CommandTimeout
	}
	return c
}

// Scan broadcasts a discovery request on every interface and records each
// distinct responder in reg, which is reset first. Receiving stops at the
// first receive that times out. It returns the number of bridges recorded;
// the error is ErrRegistryFull when responders had to be dropped.
func (c *Client) Scan(ifaces []netif.Interface, reg *Registry) (int, error) {
	log := c.log.Module("bridge")
	reg.Reset()

	request := protocol.Encode(protocol.CmdScan, nil)
	for _, ifc := range ifaces {
		bcast := ifc.Broadcast()
		if !bcast.IsValid() {
			log.Warnf("interface %s has no IPv4 broadcast address, skipped", ifc)
			continue
		}
		to := netip.AddrPortFrom(bcast, c.port)
		if err := c.conn.SetBroadcast(true); err != nil {
			log.Warnf("interface %s: %v", ifc, err)
			continue
		}
		if _, err := c.conn.SendTo(request, to); err != nil {
			log.Warnf("scan via %s to %s failed: %v", ifc, to, err)
			continue
		}
		log.Debugf("scan sent via %s to %s", ifc, to)
	}

	var overflow error
	buf := make([]byte, scanBufferSize)
	for {
		n, from, err := c.conn.ReceiveFrom(buf, c.scanTimeout)
		if err != nil {
			if !errors.Is(err, transport.ErrTimeout) {
				log.Warnf("scan receive stopped: %v", err)
			}
			break
		}
		b, err := protocol.ParseScanReply(buf[:n], from.Addr())
		if err != nil {
			log.Debugf("ignoring datagram from %s: %v", from, err)
			continue
		}
		added, err := reg.Add(b)
		if err != nil {
			overflow = err
			continue
		}
		if added {
			log.Infof("found show bridge %s", b)
		}
	}

	if overflow != nil {
		log.Warnf("registry full, %d replies dropped", reg.Dropped())
	}
	log.Debugf("scan complete, %d show bridges", reg.Len())
	return reg.Len(), overflow
}

// exchange sends cmd with payload to addr and waits for a reply carrying
// exactly replyLen payload bytes and the paired reply code.
func (c *Client) exchange(addr netip.Addr, cmd protocol.Command, payload []byte, replyLen int) ([]byte, error) {
	to := netip.AddrPortFrom(addr, c.port)
	// a late ack carries no sequence number and would pass for ours
	if n := transport.Drain(c.conn); n > 0 {
		c.log.Module("bridge").Warnf("dropped %d stale datagrams before %s", n, cmd)
	}
	if _, err := c.conn.SendTo(protocol.Encode(cmd, payload), to); err != nil {
		return nil, fmt.Errorf("%w: send %s to %s: %v", protocol.ErrNoResponse, cmd, to, err)
	}

	want := protocol.HeaderSize + replyLen
	buf := make([]byte, want+1)
	n, from, err := c.conn.ReceiveFrom(buf, c.commandTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %s to %s: %v", protocol.ErrNoResponse, cmd, to, err)
	}
	if from.Addr() != addr {
		return nil, fmt.Errorf("%w: %s reply from %s, want %s", protocol.ErrMalformedResponse, cmd, from, addr)
	}
	if n != want {
		return nil, fmt.Errorf("%w: %s reply of %d bytes, want %d", protocol.ErrMalformedResponse, cmd, n, want)
	}
	reply, err := protocol.Decode(buf[:n], cmd.Reply())
	if err != nil {
		return nil, err
	}
	c.log.Module("bridge").Debugf("%s to %s acknowledged", cmd, to)
	return reply, nil
}

func (c *Client) simple(addr netip.Addr, cmd protocol.Command, payload []byte) error {
	_, err := c.exchange(addr, cmd, payload, 0)
	return err
}

// SendFrame encodes f into a new datagram and waits for the frame ack.
// f itself is never modified.
func (c *Client) SendFrame(addr netip.Addr, f protocol.Frame) error {
	payload, err := protocol.EncodeFrame(c.order, f)
	if err != nil {
		return err
	}
	return c.simple(addr, protocol.CmdFrame, payload)
}

func (c *Client) Play(addr netip.Addr) error {
	return c.simple(addr, protocol.CmdPlay, nil)
}

func (c *Client) Stop(addr netip.Addr) error {
	return c.simple(addr, protocol.CmdStop, nil)
}

func (c *Client) Pause(addr netip.Addr) error {
	return c.simple(addr, protocol.CmdPause, nil)
}

// Resume continues output after Pause.
func (c *Client) Resume(addr netip.Addr) error {
	return c.simple(addr, protocol.CmdResume, nil)
}

// SetPPS sends the output rate. Pacing frames is up to the caller.
func (c *Client) SetPPS(addr netip.Addr, pps int) error {
	return c.simple(addr, protocol.CmdSetPPS, c.int32Payload(pps))
}

func (c *Client) SetOutputScale(addr netip.Addr, x, y float32) error {
	return c.simple(addr, protocol.CmdSetOutputScale, c.floatPairPayload(x, y))
}

func (c *Client) SetOutputOffset(addr netip.Addr, x, y float32) error {
	return c.simple(addr, protocol.CmdSetOutputOffset, c.floatPairPayload(x, y))
}

func (c *Client) SetColorMap(addr netip.Addr, m [protocol.ColorMapSize]byte) error {
	return c.simple(addr, protocol.CmdSetColorMap, m[:])
}

func (c *Client) SetBlankingDelay(addr netip.Addr, delay int) error {
	return c.simple(addr, protocol.CmdSetBlankDelay, c.int32Payload(delay))
}

func (c *Client) SetOutputMode(addr netip.Addr, mode int) error {
	return c.simple(addr, protocol.CmdSetOutputMode, c.int32Payload(mode))
}

func (c *Client) SetSafetyZone(addr netip.Addr, z protocol.SafetyZone) error {
	return c.simple(addr, protocol.CmdSetSafetyZone, protocol.EncodeSafetyZone(c.order, z))
}

func (c *Client) GetSafetyZone(addr netip.Addr) (protocol.SafetyZone, error) {
	reply, err := c.exchange(addr, protocol.CmdGetSafetyZone, nil, protocol.SafetyZoneSize)
	if err != nil {
		return protocol.SafetyZone{}, err
	}
	return protocol.DecodeSafetyZone(c.order, reply)
}

func (c *Client) SetOutputName(addr netip.Addr, name string) error {
	return c.simple(addr, protocol.CmdSetOutputName, protocol.EncodeOutputName(name))
}

func (c *Client) GetOutputName(addr netip.Addr) (string, error) {
	reply, err := c.exchange(addr, protocol.CmdGetOutputName, nil, protocol.OutputNameSize)
	if err != nil {
		return "", err
	}
	return protocol.DecodeOutputName(reply), nil
}

func (c *Client) Reboot(addr netip.Addr) error {
	return c.simple(addr, protocol.CmdReboot, nil)
}

func (c *Client) int32Payload(v int) []byte {
	buf := make([]byte, 4)
	c.order.PutInt32(buf, int32(v))
	return buf
}

func (c *Client) floatPairPayload(x, y float32) []byte {
	buf := make([]byte, 8)
	c.order.PutFloat32(buf[0:4], x)
	c.order.PutFloat32(buf[4:8], y)
	return buf
}
