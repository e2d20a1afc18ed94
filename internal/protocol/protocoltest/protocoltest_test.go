package protocoltest

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"showbridge/internal/protocol"
)

func TestResultVariantFollowsAskedKind(t *testing.T) {
	o := protocol.OrderFor(protocol.LittleEndian)
	show := protocol.Show{
		ID:   4,
		Port: 10004,
		Dac:  protocol.DacInfo{Version: [2]uint8{1, 2}, Type: 3, Channel: 1, Serial: [4]uint8{9, 9, 9, 9}, Status: [8]uint8{1, 1}},
		Name: "main stage",
	}
	q := protocol.Query{Kind: protocol.QueryInfo, Seq: 0x0203, ShowIndex: 4}
	buf := EncodeResult(protocol.Result{Status: [4]uint8{1}, Query: q, Content: show}, o)

	r, err := protocol.DecodeResult(buf, protocol.QueryInfo, o)
	require.NoError(t, err)
	assert.Equal(t, q, r.Query)
	got, ok := r.Content.(protocol.Show)
	require.True(t, ok)
	assert.Equal(t, show, got)
	assert.True(t, got.Dac.Online())
	assert.True(t, got.Dac.ExternMode())

	// same bytes decoded as an optimizer reply yield an optimizer setting
	r, err = protocol.DecodeResult(buf, protocol.QueryGetOptimizerSetting, o)
	require.NoError(t, err)
	_, ok = r.Content.(protocol.OptimizerSetting)
	assert.True(t, ok)

	// acknowledgement kinds carry no content
	r, err = protocol.DecodeResult(buf, protocol.QueryDMX, o)
	require.NoError(t, err)
	assert.Nil(t, r.Content)
}

func TestShowSwapped(t *testing.T) {
	show := protocol.Show{ID: 1, Port: 10001, Name: "x"}
	big := protocol.OrderFor(protocol.BigEndian)
	buf := EncodeResult(protocol.Result{Status: [4]uint8{1}, Content: show}, big)
	assert.Equal(t, uint16(10001), binary.BigEndian.Uint16(buf[UnionOffset+2:]))

	r, err := protocol.DecodeResult(buf, protocol.QueryInfo, big)
	require.NoError(t, err)
	assert.Equal(t, show, r.Content)
}

func TestShowListInItsOwnOrder(t *testing.T) {
	list := protocol.ShowList{Count: 2, Endian: protocol.BigEndian, Ports: []uint16{10001, 10002}}
	buf := EncodeResult(protocol.Result{Status: [4]uint8{1}, Content: list}, protocol.OrderFor(protocol.LittleEndian))
	assert.Equal(t, uint16(10002), binary.BigEndian.Uint16(buf[UnionOffset+6:]))

	r, err := protocol.DecodeResult(buf, protocol.QueryList, protocol.OrderFor(protocol.LittleEndian))
	require.NoError(t, err)
	assert.Equal(t, list, r.Content)
}

func TestOptimizerSettingResult(t *testing.T) {
	s := protocol.OptimizerSetting{AnchorPointsLit: 4, AnchorPointsBlanked: 6, InterpDistLit: 2, InterpDistBlanked: 8}
	buf := EncodeResult(protocol.Result{Status: [4]uint8{1}, Content: s}, protocol.OrderFor(protocol.BigEndian))
	r, err := protocol.DecodeResult(buf, protocol.QueryGetOptimizerSetting, protocol.OrderFor(protocol.LittleEndian))
	require.NoError(t, err)
	assert.Equal(t, s, r.Content)
}

func TestDecodeFrameRoundTrip(t *testing.T) {
	f := protocol.Frame{Delay: 2, Points: []protocol.Point{
		{X: -1, Y: 1, Blanking: 1, R: 255},
		{X: 0.25, Y: -0.75, G: 9, B: 3},
	}}
	for _, e := range []protocol.Endian{protocol.LittleEndian, protocol.BigEndian} {
		o := protocol.OrderFor(e)
		buf, err := protocol.EncodeFrame(o, f)
		require.NoError(t, err)
		back, err := DecodeFrame(o, buf)
		require.NoError(t, err)
		assert.Equal(t, f, back, "%s endian", e)
	}
}

func TestDecodeFrameBadCount(t *testing.T) {
	buf := make([]byte, protocol.FrameHeaderSize+protocol.PointSize)
	binary.LittleEndian.PutUint16(buf, 5)
	_, err := DecodeFrame(protocol.OrderFor(protocol.LittleEndian), buf)
	require.True(t, errors.Is(err, protocol.ErrMalformedResponse))

	_, err = DecodeFrame(protocol.OrderFor(protocol.LittleEndian), buf[:2])
	require.True(t, errors.Is(err, protocol.ErrMalformedResponse))
}
