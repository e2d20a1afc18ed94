package protocol

import (
	"bytes"
	"fmt"
	"net/netip"
)

const (
	// MaxPoints is the point capacity of a frame buffer.
	MaxPoints = 2500
	// PointSize is the packed size of one point.
	PointSize = 12
	// FrameHeaderSize covers count, status and delay.
	FrameHeaderSize = 4
	// FrameSize is the packed size of a full frame buffer.
	FrameSize = FrameHeaderSize + MaxPoints*PointSize
	// SafetyZoneSize is the packed size of a safety zone.
	SafetyZoneSize = 8
	// OutputNameSize is the fixed length of an output name.
	OutputNameSize = 32
	// ColorMapSize is the length of a color map table.
	ColorMapSize = 256
	// DefaultMaxPoints is what every known firmware advertises.
	DefaultMaxPoints = 5000
)

// ShowBridge is one controller found by a discovery scan.
type ShowBridge struct {
	Addr      netip.Addr
	Version   uint8
	MaxPPS    int
	MaxPoints int
}

func (b ShowBridge) String() string {
	return fmt.Sprintf("%s (fw %d, max pps %d, max points %d)", b.Addr, b.Version, b.MaxPPS, b.MaxPoints)
}

// ParseScanReply decodes a scan reply received from addr.
func ParseScanReply(datagram []byte, addr netip.Addr) (ShowBridge, error) {
	payload, err := Decode(datagram, CmdScanReply)
	if err != nil {
		return ShowBridge{}, err
	}
	b := ShowBridge{Addr: addr, MaxPoints: DefaultMaxPoints}
	if len(payload) > 0 {
		b.Version = payload[0]
	}
	if len(payload) > 1 {
		b.MaxPPS = int(payload[1]) * 1000
	}
	return b, nil
}

// Point is one vertex of a frame. X and Y are in [-1.0, 1.0].
type Point struct {
	X        float32
	Y        float32
	Blanking uint8 // 0: dark point, 1: lit point
	R        uint8
	G        uint8
	B        uint8
}

// Frame is a point buffer submitted for a single render.
type Frame struct {
	Status uint8
	Delay  uint8
	Points []Point
}

// EncodeFrame packs f into the fixed-size frame buffer layout.
// Count and coordinates are written through o; color bytes are order independent.
func EncodeFrame(o Order, f Frame) ([]byte, error) {
	if len(f.Points) > MaxPoints {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(f.Points), MaxPoints)
	}
	buf := make([]byte, FrameSize)
	o.PutInt16(buf[0:2], int16(len(f.Points)))
	buf[2] = f.Status
	buf[3] = f.Delay
	for i, p := range f.Points {
		off := FrameHeaderSize + i*PointSize
		o.PutFloat32(buf[off:off+4], p.X)
		o.PutFloat32(buf[off+4:off+8], p.Y)
		buf[off+8] = p.Blanking
		buf[off+9] = p.R
		buf[off+10] = p.G
		buf[off+11] = p.B
	}
	return buf, nil
}

// SafetyZone bounds the output area.
type SafetyZone struct {
	XMin int16
	XMax int16
	YMin int16
	YMax int16
}

func EncodeSafetyZone(o Order, z SafetyZone) []byte {
	buf := make([]byte, SafetyZoneSize)
	o.PutInt16(buf[0:2], z.XMin)
	o.PutInt16(buf[2:4], z.XMax)
	o.PutInt16(buf[4:6], z.YMin)
	o.PutInt16(buf[6:8], z.YMax)
	return buf
}

func DecodeSafetyZone(o Order, buf []byte) (SafetyZone, error) {
	if len(buf) != SafetyZoneSize {
		return SafetyZone{}, fmt.Errorf("%w: safety zone of %d bytes", ErrMalformedResponse, len(buf))
	}
	return SafetyZone{
		XMin: o.Int16(buf[0:2]),
		XMax: o.Int16(buf[2:4]),
		YMin: o.Int16(buf[4:6]),
		YMax: o.Int16(buf[6:8]),
	}, nil
}

// EncodeOutputName pads or cuts name to the fixed output name field.
func EncodeOutputName(name string) []byte {
	buf := make([]byte, OutputNameSize)
	copy(buf, name)
	return buf
}

// DecodeOutputName returns the name up to the first NUL.
func DecodeOutputName(buf []byte) string {
	return cString(buf)
}

func cString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf)
}
