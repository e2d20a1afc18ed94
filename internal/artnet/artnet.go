package artnet

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Haba1234/go-artnet"
	"showbridge/internal/clientmqtt"
	"showbridge/internal/logger"
	"showbridge/internal/netif"
)

// sender is the part of the go-artnet controller the relay drives.
type sender interface {
	Start() error
	Stop()
	SendDMXToAddress(dmx [512]byte, address artnet.Address)
}

// Options configures the Art-Net mirror.
type Options struct {
	Mirror       bool   // Mirror - дублировать вселенные в Art-Net.
	AddressRange string // AddressRange - сеть, в которой ищется свой IP.
	MaxFPS       int
}

// Relay keeps a DMX universe per show and forwards every change to the show
// through the sink. With the mirror enabled the same universe goes out as
// Art-Net to the address derived from the show index.
type Relay struct {
	logger      logger.Logger
	sink        Sink
	sender      sender
	state       *State
	sendTrigger chan int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelay конструктор. The Art-Net controller is created only when the mirror is on.
func NewRelay(log logger.Logger, sink Sink, opts Options) (*Relay, error) {
	if !opts.Mirror {
		return newRelay(log, sink, nil), nil
	}

	ip, err := netif.FindIPInRange(opts.AddressRange)
	if err != nil {
		return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
	}
	if len(ip) == 0 {
		return nil, errors.New("failed to find the art-net IP: No interface found")
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}
	host = strings.ToLower(strings.Split(host, ".")[0])
	log.Module("art-net").Infof("Using ArtNet IP %s and hostname %s", ip.String(), host)

	fps := opts.MaxFPS
	if fps <= 0 {
		fps = 1
	}
	senderLogger := artnet.NewDefaultLogger("info")
	return newRelay(log, sink, artnet.NewController(host, ip, senderLogger, artnet.MaxFPS(fps))), nil
}

func newRelay(log logger.Logger, sink Sink, s sender) *Relay {
	return &Relay{
		logger:      log,
		sink:        sink,
		sender:      s,
		state:       NewState(),
		sendTrigger: make(chan int, 100),
	}
}

// Start the relay. Channel updates are read from dmxDataCh until ctx is done
// or Stop is called.
func (r *Relay) Start(ctx context.Context, dmxDataCh <-chan clientmqtt.DataCh) error {
	if r.sender != nil {
		if err := r.sender.Start(); err != nil {
			return fmt.Errorf("failed to start Controller: %w", err)
		}
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(2)
	go r.sendBackground(ctx)
	go r.dataProcessing(ctx, dmxDataCh)
	if ctrl, ok := r.sender.(*artnet.Controller); ok {
		r.wg.Add(1)
		go r.debugDevices(ctx, ctrl)
	}
	return nil
}

// Stop the relay and wait for its goroutines.
func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	if r.sender != nil {
		r.sender.Stop()
	}
}

func (r *Relay) SetDMXChannelValue(ctx context.Context, value ChannelValue) {
	if r.state.SetChannel(value.Show, value.Channel, value.Value) {
		r.triggerSend(ctx, value.Show)
	}
}

func (r *Relay) SetDMXChannelValues(ctx context.Context, values []ChannelValue) {
	for _, show := range r.state.SetChannelValues(values) {
		r.triggerSend(ctx, show)
	}
}

func (r *Relay) triggerSend(ctx context.Context, show int) {
	r.logger.Module("art-net").Debugf("DMX. Отправка в канал, шоу %d", show)
	select {
	case r.sendTrigger <- show:
	case <-ctx.Done():
	}
}

func (r *Relay) sendBackground(ctx context.Context) {
	defer r.wg.Done()
	log := r.logger.Module("art-net")
	for {
		select {
		case <-ctx.Done():
			return
		case show := <-r.sendTrigger:
			// всегда отправляется последнее состояние вселенной.
			dmx := r.state.Universe(show)
			if err := r.sink.SendDMX(show, dmx); err != nil {
				log.Warnf("DMX to show %d failed: %v", show, err)
			}
			if r.sender != nil {
				log.Debugf("DMX. Отправка в контроллер по адресу %v", universeToAddress(uint16(show)))
				r.sender.SendDMXToAddress(dmx, universeToAddress(uint16(show)))
			}
		}
	}
}

func (r *Relay) dataProcessing(ctx context.Context, dmxDataCh <-chan clientmqtt.DataCh) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-dmxDataCh:
			if !ok {
				return
			}
			dmxData := make([]ChannelValue, len(d.Data))
			for i, v := range d.Data {
				dmxData[i] = ChannelValue{Show: d.Show, Channel: v.Channel, Value: v.Value}
			}
			r.logger.Module("art-net").Debugf("DMX. Данные пришли с MQTT для шоу %d", d.Show)
			r.SetDMXChannelValues(ctx, dmxData)
		}
	}
}

// universeToAddress converts a show index to an art-net address:
// старший байт - Net, младший байт - SubUni.
func universeToAddress(universe uint16) artnet.Address {
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, universe)

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}
}

// nodeInfo returns a description of the given Node.
func nodeInfo(n *artnet.ControlledNode) NodeInfo {
	info := NodeInfo{Name: n.Node.Name, Address: n.UDPAddress.String()}
	for _, p := range n.Node.OutputPorts {
		info.Outputs = append(info.Outputs, fmt.Sprintf("%s: %s", p.Address.String(), p.Type.String()))
	}
	return info
}

func (r *Relay) debugDevices(ctx context.Context, ctrl *artnet.Controller) {
	defer r.wg.Done()
	t := time.NewTicker(30 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			nodes := make([]NodeInfo, 0, len(ctrl.Nodes))
			for _, n := range ctrl.Nodes {
				nodes = append(nodes, nodeInfo(n))
			}
			r.logger.Module("art-net").Debugf("Currently %d devices are registered: %v", len(nodes), nodes)
		}
	}
}
