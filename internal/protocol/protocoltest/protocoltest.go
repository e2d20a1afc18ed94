// Package protocoltest packs the controller and bridge side of the wire
// structs, for tests that emulate peers.
package protocoltest

import (
	"fmt"

	"showbridge/internal/protocol"
)

const (
	queryOffset = 4
	// UnionOffset is where the result union starts in a directory result.
	UnionOffset = queryOffset + protocol.QuerySize
)

// EncodeResult packs r the way a controller host answers a query. Show lists
// are written in their own byte order, shows through o.
func EncodeResult(r protocol.Result, o protocol.Order) []byte {
	buf := make([]byte, protocol.ResultSize)
	copy(buf[:4], r.Status[:])
	copy(buf[queryOffset:UnionOffset], protocol.EncodeQuery(r.Query))

	union := buf[UnionOffset:]
	switch c := r.Content.(type) {
	case protocol.ShowList:
		union[0] = c.Count
		union[1] = byte(c.Endian)
		lo := protocol.OrderFor(c.Endian)
		for i, p := range c.Ports {
			if i >= protocol.MaxShows {
				break
			}
			lo.PutUint16(union[4+i*2:], p)
		}
	case protocol.Show:
		o.PutInt16(union[0:2], c.ID)
		o.PutUint16(union[2:4], c.Port)
		d := union[4 : 4+protocol.DacInfoSize]
		copy(d[0:2], c.Dac.Version[:])
		d[2] = c.Dac.Type
		d[3] = c.Dac.Channel
		copy(d[4:8], c.Dac.Serial[:])
		copy(d[8:16], c.Dac.Status[:])
		name := union[4+protocol.DacInfoSize : 4+protocol.DacInfoSize+protocol.MaxShowNameLen]
		copy(name[:protocol.MaxShowNameLen-1], c.Name)
	case protocol.OptimizerSetting:
		data := protocol.OptimizerQueryData(c)
		copy(union, data[:protocol.OptimizerSettingSize])
	}
	return buf
}

// DecodeFrame unpacks a frame buffer as a bridge or show port receives it.
func DecodeFrame(o protocol.Order, buf []byte) (protocol.Frame, error) {
	if len(buf) < protocol.FrameHeaderSize {
		return protocol.Frame{}, fmt.Errorf("%w: frame of %d bytes", protocol.ErrMalformedResponse, len(buf))
	}
	count := int(o.Int16(buf[0:2]))
	if count < 0 || count > protocol.MaxPoints || len(buf) < protocol.FrameHeaderSize+count*protocol.PointSize {
		return protocol.Frame{}, fmt.Errorf("%w: frame count %d", protocol.ErrMalformedResponse, count)
	}
	f := protocol.Frame{Status: buf[2], Delay: buf[3], Points: make([]protocol.Point, count)}
	for i := range f.Points {
		off := protocol.FrameHeaderSize + i*protocol.PointSize
		f.Points[i] = protocol.Point{
			X:        o.Float32(buf[off : off+4]),
			Y:        o.Float32(buf[off+4 : off+8]),
			Blanking: buf[off+8],
			R:        buf[off+9],
			G:        buf[off+10],
			B:        buf[off+11],
		}
	}
	return f, nil
}
