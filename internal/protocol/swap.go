package protocol

import (
	"encoding/binary"
	"math"
	"math/bits"
)

// Endian is the byte order flag as carried on the wire (show list endian byte).
type Endian uint8

const (
	LittleEndian Endian = 0
	BigEndian    Endian = 1
)

func (e Endian) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// HostEndian returns the byte order of the local machine.
func HostEndian() Endian {
	if binary.NativeEndian.Uint16([]byte{0x01, 0x02}) == 0x0201 {
		return LittleEndian
	}
	return BigEndian
}

// Swap16 reverses the bytes of a 16-bit value.
func Swap16(v uint16) uint16 {
	return bits.ReverseBytes16(v)
}

// Swap32 reverses the bytes of a 32-bit value.
func Swap32(v uint32) uint32 {
	return bits.ReverseBytes32(v)
}

// SwapFloat32 reverses the bytes of a float32 through its bit pattern.
func SwapFloat32(v float32) float32 {
	return math.Float32frombits(Swap32(math.Float32bits(v)))
}

// Order reads and writes multi-byte fields in host order, swapping them when
// the peer uses the other byte order.
type Order struct {
	swap bool
}

// OrderFor returns the Order for talking to a peer with the given byte order.
func OrderFor(peer Endian) Order {
	return Order{swap: peer != HostEndian()}
}

// Swapped reports whether fields are byte-swapped relative to host order.
func (o Order) Swapped() bool {
	return o.swap
}

func (o Order) PutUint16(b []byte, v uint16) {
	if o.swap {
		v = Swap16(v)
	}
	binary.NativeEndian.PutUint16(b, v)
}

func (o Order) Uint16(b []byte) uint16 {
	v := binary.NativeEndian.Uint16(b)
	if o.swap {
		v = Swap16(v)
	}
	return v
}

func (o Order) PutInt16(b []byte, v int16) {
	o.PutUint16(b, uint16(v))
}

func (o Order) Int16(b []byte) int16 {
	return int16(o.Uint16(b))
}

func (o Order) PutUint32(b []byte, v uint32) {
	if o.swap {
		v = Swap32(v)
	}
	binary.NativeEndian.PutUint32(b, v)
}

func (o Order) Uint32(b []byte) uint32 {
	v := binary.NativeEndian.Uint32(b)
	if o.swap {
		v = Swap32(v)
	}
	return v
}

func (o Order) PutInt32(b []byte, v int32) {
	o.PutUint32(b, uint32(v))
}

func (o Order) Int32(b []byte) int32 {
	return int32(o.Uint32(b))
}

func (o Order) PutFloat32(b []byte, v float32) {
	o.PutUint32(b, math.Float32bits(v))
}

func (o Order) Float32(b []byte) float32 {
	return math.Float32frombits(o.Uint32(b))
}
