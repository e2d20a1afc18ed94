package directory

import (
	"fmt"
	"net/netip"
	"time"

	"showbridge/internal/logger"
	"showbridge/internal/protocol"
	"showbridge/internal/transport"
)

const (
	// DefaultPort is where a controller host answers directory queries.
	DefaultPort = 8099
	// DefaultTimeout bounds the wait for a result.
	DefaultTimeout = time.Second
)

// Directory queries one controller host for its shows. It owns the last show
// list and the byte order resolved from it.
type Directory struct {
	conn    transport.Conn
	log     logger.Logger
	target  netip.AddrPort
	timeout time.Duration

	seq   uint16
	list  protocol.ShowList
	order protocol.Order
}

// New конструктор.
func New(conn transport.Conn, log logger.Logger, target netip.AddrPort, timeout time.Duration) *Directory {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Directory{
		conn:    conn,
		log:     log,
		target:  target,
		timeout: timeout,
		order:   protocol.OrderFor(protocol.HostEndian()),
	}
}

// Target is the controller host being queried.
func (d *Directory) Target() netip.AddrPort {
	return d.target
}

// List returns the last fetched show list. Count is 0 before the first fetch.
func (d *Directory) List() protocol.ShowList {
	return d.list
}

// Swapped reports whether the controller's byte order differs from the host's.
func (d *Directory) Swapped() bool {
	return d.order.Swapped()
}

// ShowList fetches the list of active shows and resolves the session byte
// order from it. On failure the previous list is kept.
func (d *Directory) ShowList() (protocol.ShowList, error) {
	r, err := d.exchange(protocol.Query{Kind: protocol.QueryList, ShowIndex: protocol.AllShows})
	if err != nil {
		return protocol.ShowList{}, err
	}
	list, ok := r.Content.(protocol.ShowList)
	if !ok {
		return protocol.ShowList{}, fmt.Errorf("%w: list result without show list", protocol.ErrMalformedResponse)
	}

	d.list = list
	d.order = protocol.OrderFor(list.Endian)
	d.log.Module("directory").Infof("%d shows on %s, %s endian (swap %v)", list.Count, d.target.Addr(), list.Endian, d.order.Swapped())
	return list, nil
}

// ShowInfo returns the metadata of show i.
func (d *Directory) ShowInfo(i int) (protocol.Show, error) {
	if err := d.checkIndex(i); err != nil {
		return protocol.Show{}, err
	}
	r, err := d.exchange(protocol.Query{Kind: protocol.QueryInfo, ShowIndex: uint8(i)})
	if err != nil {
		return protocol.Show{}, err
	}
	show, ok := r.Content.(protocol.Show)
	if !ok {
		return protocol.Show{}, fmt.Errorf("%w: info result without show", protocol.ErrMalformedResponse)
	}
	return show, nil
}

func (d *Directory) OptimizerSetting(i int) (protocol.OptimizerSetting, error) {
	if err := d.checkIndex(i); err != nil {
		return protocol.OptimizerSetting{}, err
	}
	r, err := d.exchange(protocol.Query{Kind: protocol.QueryGetOptimizerSetting, ShowIndex: uint8(i)})
	if err != nil {
		return protocol.OptimizerSetting{}, err
	}
	s, ok := r.Content.(protocol.OptimizerSetting)
	if !ok {
		return protocol.OptimizerSetting{}, fmt.Errorf("%w: optimizer result without setting", protocol.ErrMalformedResponse)
	}
	return s, nil
}

func (d *Directory) SetOptimizerSetting(i int, s protocol.OptimizerSetting) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	_, err := d.exchange(protocol.Query{
		Kind:      protocol.QuerySetOptimizerSetting,
		ShowIndex: uint8(i),
		Data:      protocol.OptimizerQueryData(s),
	})
	return err
}

// SetExternMode hands show i over to external frame streaming, or takes it back.
func (d *Directory) SetExternMode(i int, on bool) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	kind := protocol.QueryStopExternMode
	if on {
		kind = protocol.QueryStartExternMode
	}
	_, err := d.exchange(protocol.Query{Kind: kind, ShowIndex: uint8(i)})
	return err
}

// SendDMX sends one 512-channel DMX universe to show i.
func (d *Directory) SendDMX(i int, data [protocol.QueryDataSize]byte) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	_, err := d.exchange(protocol.Query{Kind: protocol.QueryDMX, ShowIndex: uint8(i), Data: data})
	return err
}

// SendPoints streams a frame straight to the UDP port of show i. Only shows on
// external streaming ports accept frames. Nothing is awaited after the send.
func (d *Directory) SendPoints(i int, f protocol.Frame) error {
	if err := d.checkIndex(i); err != nil {
		return err
	}
	port := d.list.Port(i)
	if port <= protocol.ExternalPortBase {
		return fmt.Errorf("%w: show %d on port %d", protocol.ErrPortNotExternal, i, port)
	}

	f.Status = 0
	buf, err := protocol.EncodeFrame(d.order, f)
	if err != nil {
		return err
	}
	to := netip.AddrPortFrom(d.target.Addr(), port)
	n, err := d.conn.SendTo(buf, to)
	if err != nil {
		return fmt.Errorf("%w: frame to %s: %v", protocol.ErrNoResponse, to, err)
	}
	if n != len(buf) {
		return fmt.Errorf("%w: short write %d of %d", protocol.ErrNoResponse, n, len(buf))
	}
	return nil
}

func (d *Directory) checkIndex(i int) error {
	if i < 0 || i >= int(d.list.Count) {
		return fmt.Errorf("%w: show %d of %d", protocol.ErrIndexOutOfRange, i, d.list.Count)
	}
	return nil
}

func (d *Directory) exchange(q protocol.Query) (protocol.Result, error) {
	log := d.log.Module("directory")
	d.seq++
	q.Seq = d.seq

	if n := transport.Drain(d.conn); n > 0 {
		log.Warnf("dropped %d stale datagrams before %s query", n, q.Kind)
	}
	if _, err := d.conn.SendTo(protocol.EncodeQuery(q), d.target); err != nil {
		return protocol.Result{}, fmt.Errorf("%w: %s query to %s: %v", protocol.ErrNoResponse, q.Kind, d.target, err)
	}

	buf := make([]byte, protocol.ResultSize+1)
	n, from, err := d.conn.ReceiveFrom(buf, d.timeout)
	if err != nil {
		return protocol.Result{}, fmt.Errorf("%w: %s query to %s: %v", protocol.ErrNoResponse, q.Kind, d.target, err)
	}
	if from.Addr() != d.target.Addr() {
		return protocol.Result{}, fmt.Errorf("%w: %s result from %s", protocol.ErrMalformedResponse, q.Kind, from)
	}
	r, err := protocol.DecodeResult(buf[:n], q.Kind, d.order)
	if err != nil {
		return protocol.Result{}, err
	}
	if r.Query.Kind != q.Kind || r.Query.Seq != q.Seq {
		return protocol.Result{}, fmt.Errorf("%w: result echoes %s seq %d, want %s seq %d",
			protocol.ErrMalformedResponse, r.Query.Kind, r.Query.Seq, q.Kind, q.Seq)
	}
	if !r.OK() {
		return protocol.Result{}, fmt.Errorf("%w: %s query status %d", protocol.ErrRejected, q.Kind, r.Status[0])
	}
	log.Debugf("%s query seq %d for show %d ok", q.Kind, q.Seq, q.ShowIndex)
	return r, nil
}
