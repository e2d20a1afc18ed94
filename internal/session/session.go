package session

import (
	"fmt"
	"net/netip"
	"sync"
	"time"

	"showbridge/internal/bridge"
	"showbridge/internal/directory"
	"showbridge/internal/logger"
	"showbridge/internal/netif"
	"showbridge/internal/protocol"
	"showbridge/internal/transport"
)

// State is the position of a Session in its lifecycle.
type State int

const (
	Uninitialized State = iota
	Bound
	Scanned
	Selected
	Streaming
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Bound:
		return "bound"
	case Scanned:
		return "scanned"
	case Selected:
		return "selected"
	case Streaming:
		return "streaming"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options describes the sockets and peers of a Session.
type Options struct {
	// LocalIP is the address both sockets bind to. Invalid means all interfaces.
	LocalIP            netip.Addr
	BridgeLocalPort    int
	DirectoryLocalPort int
	// Directory is the controller host answering show queries.
	Directory        netip.AddrPort
	DirectoryTimeout time.Duration
	Bridge           bridge.Options
	RegistryCapacity int
}

// Session owns the sockets, the bridge registry, the show directory and the
// current selection. Selections are indices into the registry and show list;
// a rescan or a new list drops them. All methods are safe for concurrent use
// and run one exchange at a time.
type Session struct {
	mu       sync.Mutex
	log      logger.Logger
	listener transport.Listener
	opts     Options

	state      State
	bridgeConn transport.Conn
	dirConn    transport.Conn
	bridges    *bridge.Client
	registry   *bridge.Registry
	directory  *directory.Directory

	bridgeIndex int
	showIndex   int
	scanned     bool
}

// New конструктор. Nothing is bound until Bind.
func New(listener transport.Listener, log logger.Logger, opts Options) *Session {
	if listener == nil {
		listener = transport.UDPListener{}
	}
	if opts.Directory.Port() == 0 {
		opts.Directory = netip.AddrPortFrom(opts.Directory.Addr(), directory.DefaultPort)
	}
	return &Session{
		log:         log,
		listener:    listener,
		opts:        opts,
		registry:    bridge.NewRegistry(opts.RegistryCapacity),
		bridgeIndex: -1,
		showIndex:   -1,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Bind opens the bridge and directory sockets. Binding a bound session is a no-op.
func (s *Session) Bind() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.log.Module("session")

	if s.state != Uninitialized {
		return nil
	}

	bc, err := s.listener.Listen(netip.AddrPortFrom(s.opts.LocalIP, uint16(s.opts.BridgeLocalPort)))
	if err != nil {
		return fmt.Errorf("%w: bridge socket: %v", protocol.ErrSocketBind, err)
	}
	dc, err := s.listener.Listen(netip.AddrPortFrom(s.opts.LocalIP, uint16(s.opts.DirectoryLocalPort)))
	if err != nil {
		_ = bc.Close()
		return fmt.Errorf("%w: directory socket: %v", protocol.ErrSocketBind, err)
	}

	s.bridgeConn, s.dirConn = bc, dc
	s.bridges = bridge.NewClient(bc, s.log, s.opts.Bridge)
	s.directory = directory.New(dc, s.log, s.opts.Directory, s.opts.DirectoryTimeout)
	s.state = Bound
	log.Infof("bound bridge socket %s, directory socket %s", bc.LocalAddr(), dc.LocalAddr())
	return nil
}

// Close releases both sockets and forgets every selection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Uninitialized {
		return nil
	}
	err := s.bridgeConn.Close()
	if derr := s.dirConn.Close(); err == nil {
		err = derr
	}
	s.bridgeConn, s.dirConn = nil, nil
	s.bridges, s.directory = nil, nil
	s.registry.Reset()
	s.bridgeIndex, s.showIndex = -1, -1
	s.scanned = false
	s.state = Uninitialized
	return err
}

// Scan discovers show bridges through ifaces and replaces the registry.
// The bridge selection is dropped even when nothing answers.
func (s *Session) Scan(ifaces []netif.Interface) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return 0, err
	}
	n, err := s.bridges.Scan(ifaces, s.registry)
	s.bridgeIndex = -1
	s.scanned = true
	s.settle()
	return n, err
}

// Bridges returns the bridges found by the last scan.
func (s *Session) Bridges() []protocol.ShowBridge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.List()
}

func (s *Session) BridgeInfo(i int) (protocol.ShowBridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return protocol.ShowBridge{}, err
	}
	return s.registry.Get(i)
}

// SelectBridge makes bridge i the target of frames and control commands.
func (s *Session) SelectBridge(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return err
	}
	b, err := s.registry.Get(i)
	if err != nil {
		return err
	}
	s.bridgeIndex = i
	s.state = Selected
	s.log.Module("session").Infof("selected show bridge %d: %s", i, b.Addr)
	return nil
}

// SelectedBridge returns the selected bridge, re-validated against the registry.
func (s *Session) SelectedBridge() (protocol.ShowBridge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedBridge()
}

// ShowList fetches the show list from the directory host. On success the show
// selection is dropped and the session byte order follows the new list.
func (s *Session) ShowList() (protocol.ShowList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return protocol.ShowList{}, err
	}
	list, err := s.directory.ShowList()
	if err != nil {
		return protocol.ShowList{}, err
	}
	s.showIndex = -1
	s.scanned = true
	s.settle()
	return list, nil
}

// Swapped reports whether directory traffic is byte-swapped.
func (s *Session) Swapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.directory != nil && s.directory.Swapped()
}

// SelectShow makes show i the target of SendPointsToShow.
func (s *Session) SelectShow(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return err
	}
	if count := int(s.directory.List().Count); i < 0 || i >= count {
		return fmt.Errorf("%w: show %d of %d", protocol.ErrIndexOutOfRange, i, count)
	}
	s.showIndex = i
	s.state = Selected
	return nil
}

func (s *Session) ShowInfo(i int) (protocol.Show, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return protocol.Show{}, err
	}
	return s.directory.ShowInfo(i)
}

func (s *Session) OptimizerSetting(i int) (protocol.OptimizerSetting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return protocol.OptimizerSetting{}, err
	}
	return s.directory.OptimizerSetting(i)
}

func (s *Session) SetOptimizerSetting(i int, setting protocol.OptimizerSetting) error {
	return s.withDirectory(func(d *directory.Directory) error {
		return d.SetOptimizerSetting(i, setting)
	})
}

func (s *Session) SetExternMode(i int, on bool) error {
	return s.withDirectory(func(d *directory.Directory) error {
		return d.SetExternMode(i, on)
	})
}

// SendDMX sends a DMX universe to show i.
func (s *Session) SendDMX(i int, data [protocol.QueryDataSize]byte) error {
	return s.withDirectory(func(d *directory.Directory) error {
		return d.SendDMX(i, data)
	})
}

// SendFrame streams f to the selected bridge and waits for the frame ack.
func (s *Session) SendFrame(f protocol.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return err
	}
	b, err := s.selectedBridge()
	if err != nil {
		return err
	}
	return s.streamed(s.bridges.SendFrame(b.Addr, f))
}

// SendPointsToShow streams f to the UDP port of the selected show.
func (s *Session) SendPointsToShow(f protocol.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return err
	}
	if s.showIndex < 0 || s.showIndex >= int(s.directory.List().Count) {
		return fmt.Errorf("%w: no show selected", protocol.ErrNotSelected)
	}
	return s.streamed(s.directory.SendPoints(s.showIndex, f))
}

func (s *Session) Play() error   { return s.withBridge(s.bridgesPlay) }
func (s *Session) Stop() error   { return s.withBridge(s.bridgesStop) }
func (s *Session) Pause() error  { return s.withBridge(s.bridgesPause) }
func (s *Session) Resume() error { return s.withBridge(s.bridgesResume) }
func (s *Session) Reboot() error { return s.withBridge(s.bridgesReboot) }

func (s *Session) SetPPS(pps int) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetPPS(a, pps) })
}

func (s *Session) SetOutputScale(x, y float32) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetOutputScale(a, x, y) })
}

func (s *Session) SetOutputOffset(x, y float32) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetOutputOffset(a, x, y) })
}

func (s *Session) SetColorMap(m [protocol.ColorMapSize]byte) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetColorMap(a, m) })
}

func (s *Session) SetBlankingDelay(delay int) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetBlankingDelay(a, delay) })
}

func (s *Session) SetOutputMode(mode int) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetOutputMode(a, mode) })
}

func (s *Session) SetSafetyZone(z protocol.SafetyZone) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetSafetyZone(a, z) })
}

func (s *Session) GetSafetyZone() (protocol.SafetyZone, error) {
	var z protocol.SafetyZone
	err := s.withBridge(func(a netip.Addr) error {
		var err error
		z, err = s.bridges.GetSafetyZone(a)
		return err
	})
	return z, err
}

func (s *Session) SetOutputName(name string) error {
	return s.withBridge(func(a netip.Addr) error { return s.bridges.SetOutputName(a, name) })
}

func (s *Session) GetOutputName() (string, error) {
	var name string
	err := s.withBridge(func(a netip.Addr) error {
		var err error
		name, err = s.bridges.GetOutputName(a)
		return err
	})
	return name, err
}

func (s *Session) bridgesPlay(a netip.Addr) error   { return s.bridges.Play(a) }
func (s *Session) bridgesStop(a netip.Addr) error   { return s.bridges.Stop(a) }
func (s *Session) bridgesPause(a netip.Addr) error  { return s.bridges.Pause(a) }
func (s *Session) bridgesResume(a netip.Addr) error { return s.bridges.Resume(a) }
func (s *Session) bridgesReboot(a netip.Addr) error { return s.bridges.Reboot(a) }

func (s *Session) withBridge(fn func(netip.Addr) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return err
	}
	b, err := s.selectedBridge()
	if err != nil {
		return err
	}
	return fn(b.Addr)
}

func (s *Session) withDirectory(fn func(*directory.Directory) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireBound(); err != nil {
		return err
	}
	return fn(s.directory)
}

func (s *Session) requireBound() error {
	if s.state == Uninitialized {
		return protocol.ErrNotInitialized
	}
	return nil
}

func (s *Session) selectedBridge() (protocol.ShowBridge, error) {
	if s.bridgeIndex < 0 {
		return protocol.ShowBridge{}, fmt.Errorf("%w: no show bridge selected", protocol.ErrNotSelected)
	}
	b, err := s.registry.Get(s.bridgeIndex)
	if err != nil {
		return protocol.ShowBridge{}, fmt.Errorf("%w: %v", protocol.ErrNotSelected, err)
	}
	return b, nil
}

// streamed moves between Selected and Streaming after a frame attempt.
func (s *Session) streamed(err error) error {
	if err == nil {
		s.state = Streaming
		return nil
	}
	if s.state == Streaming {
		s.state = Selected
	}
	return err
}

// settle recomputes the state after a selection was dropped.
func (s *Session) settle() {
	switch {
	case s.bridgeIndex >= 0 || s.showIndex >= 0:
		s.state = Selected
	case s.scanned:
		s.state = Scanned
	default:
		s.state = Bound
	}
}
