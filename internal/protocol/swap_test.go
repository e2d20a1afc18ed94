package protocol

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapIsSelfInverse(t *testing.T) {
	for _, v := range []uint16{0, 1, 0x0102, 0x8000, 0xFFFF, 10001} {
		assert.Equal(t, v, Swap16(Swap16(v)))
	}
	for _, v := range []uint32{0, 1, 0x01020304, 0x80000000, 0xFFFFFFFF} {
		assert.Equal(t, v, Swap32(Swap32(v)))
	}
	for _, v := range []float32{0, 1, -1, 0.5, -0.25, math.MaxFloat32, math.SmallestNonzeroFloat32} {
		assert.Equal(t, math.Float32bits(v), math.Float32bits(SwapFloat32(SwapFloat32(v))))
	}
}

func TestSwapReversesBytes(t *testing.T) {
	assert.Equal(t, uint16(0x0201), Swap16(0x0102))
	assert.Equal(t, uint32(0x04030201), Swap32(0x01020304))
}

func TestOrderMatchesExplicitByteOrder(t *testing.T) {
	buf := make([]byte, 4)

	OrderFor(LittleEndian).PutUint16(buf, 0x0102)
	assert.Equal(t, uint16(0x0102), binary.LittleEndian.Uint16(buf))

	OrderFor(BigEndian).PutUint16(buf, 0x0102)
	assert.Equal(t, uint16(0x0102), binary.BigEndian.Uint16(buf))

	OrderFor(LittleEndian).PutFloat32(buf, 0.75)
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(buf)))

	OrderFor(BigEndian).PutInt32(buf, -2)
	assert.Equal(t, int32(-2), int32(binary.BigEndian.Uint32(buf)))
	assert.Equal(t, int32(-2), OrderFor(BigEndian).Int32(buf))
}

func TestOrderForHostDoesNotSwap(t *testing.T) {
	require.False(t, OrderFor(HostEndian()).Swapped())
	other := BigEndian
	if HostEndian() == BigEndian {
		other = LittleEndian
	}
	require.True(t, OrderFor(other).Swapped())
}
