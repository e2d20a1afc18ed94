package artnet

// UniverseSize is the number of channels in one DMX universe.
const UniverseSize = 512

// ChannelValue defines a show and the value of one of its DMX channels.
type ChannelValue struct {
	Show    int    // Show: индекс шоу в списке.
	Channel uint16 // Channel: номер байта (канал), 0-511.
	Value   uint8  // Value: значение для канала.
}

// Universe wraps the 512 byte array for convenience.
type Universe [UniverseSize]byte

// UniverseStateMap holds the state of all used universes, keyed by show index.
type UniverseStateMap map[int]Universe

// Sink accepts a complete universe for one show.
type Sink interface {
	SendDMX(show int, data [UniverseSize]byte) error
}

// NodeInfo describes one Art-Net node seen by the mirror.
type NodeInfo struct {
	Name    string
	Address string
	Outputs []string
}
