package bridge

import (
	"fmt"

	"showbridge/internal/protocol"
)

// MaxBridges is the registry capacity.
const MaxBridges = 256

// Registry holds the bridges found by the last scan, in discovery order.
type Registry struct {
	bridges  []protocol.ShowBridge
	capacity int
	dropped  int
}

// NewRegistry конструктор.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = MaxBridges
	}
	return &Registry{capacity: capacity}
}

// Add records b unless a bridge with the same address is already present.
// When the registry is full b is dropped and ErrRegistryFull is returned.
func (r *Registry) Add(b protocol.ShowBridge) (bool, error) {
	if r.Contains(b) {
		return false, nil
	}
	if len(r.bridges) >= r.capacity {
		r.dropped++
		return false, fmt.Errorf("%w: capacity %d, dropped %s", protocol.ErrRegistryFull, r.capacity, b.Addr)
	}
	r.bridges = append(r.bridges, b)
	return true, nil
}

// Contains compares by address only; version and capacity are ignored.
func (r *Registry) Contains(b protocol.ShowBridge) bool {
	for _, known := range r.bridges {
		if known.Addr.Unmap() == b.Addr.Unmap() {
			return true
		}
	}
	return false
}

func (r *Registry) Len() int {
	return len(r.bridges)
}

// Get returns the bridge at index i.
func (r *Registry) Get(i int) (protocol.ShowBridge, error) {
	if i < 0 || i >= len(r.bridges) {
		return protocol.ShowBridge{}, fmt.Errorf("%w: bridge %d of %d", protocol.ErrIndexOutOfRange, i, len(r.bridges))
	}
	return r.bridges[i], nil
}

// List returns a copy of the registered bridges.
func (r *Registry) List() []protocol.ShowBridge {
	return append([]protocol.ShowBridge(nil), r.bridges...)
}

// Dropped counts replies refused for lack of room since the last Reset.
func (r *Registry) Dropped() int {
	return r.dropped
}

func (r *Registry) Reset() {
	r.bridges = r.bridges[:0]
	r.dropped = 0
}
