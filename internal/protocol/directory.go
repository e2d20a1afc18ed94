package protocol

import (
	"fmt"
)

// QueryKind selects the directory operation (SQID_*).
type QueryKind uint8

const (
	QueryList QueryKind = iota
	QueryInfo
	QueryDMX
	QueryGetOptimizerSetting
	QuerySetOptimizerSetting
	QueryStartExternMode
	QueryStopExternMode
)

func (k QueryKind) String() string {
	switch k {
	case QueryList:
		return "list"
	case QueryInfo:
		return "info"
	case QueryDMX:
		return "dmx"
	case QueryGetOptimizerSetting:
		return "get-optimizer-setting"
	case QuerySetOptimizerSetting:
		return "set-optimizer-setting"
	case QueryStartExternMode:
		return "start-extern-mode"
	case QueryStopExternMode:
		return "stop-extern-mode"
	}
	return fmt.Sprintf("query(%d)", uint8(k))
}

const (
	// QueryDataSize is the opaque payload carried by a query.
	QueryDataSize = 512
	// QuerySize is the packed size of a query.
	QuerySize = 4 + QueryDataSize
	// MaxShows bounds the show list port table.
	MaxShows = 255
	// MaxShowNameLen is the fixed size of the show name field.
	MaxShowNameLen = 255
	// ShowListSize is the packed size of a show list.
	ShowListSize = 4 + MaxShows*2
	// DacInfoSize is the packed size of the projector status block.
	DacInfoSize = 16
	// ShowInfoSize is the packed size of a show record, including tail padding.
	ShowInfoSize = 276
	// OptimizerSettingSize is the packed size of optimizer settings.
	OptimizerSettingSize = 4
	// ResultSize is the packed size of a result: status, echoed query, union.
	ResultSize = 4 + QuerySize + ShowListSize
	// AllShows is the show index used by the list query.
	AllShows uint8 = 0xFF
	// ExternalPortBase is the lowest port (exclusive) accepting external frames.
	ExternalPortBase = 10000
)

const (
	resultQueryOffset = 4
	resultUnionOffset = resultQueryOffset + QuerySize
)

// Query is the directory request envelope.
type Query struct {
	Kind      QueryKind
	Seq       uint16
	ShowIndex uint8
	Data      [QueryDataSize]byte
}

// EncodeQuery packs q. Query fields are single bytes, no swap is needed.
func EncodeQuery(q Query) []byte {
	buf := make([]byte, QuerySize)
	buf[0] = byte(q.Kind)
	buf[1] = byte(q.Seq >> 8)
	buf[2] = byte(q.Seq)
	buf[3] = q.ShowIndex
	copy(buf[4:], q.Data[:])
	return buf
}

func DecodeQuery(buf []byte) (Query, error) {
	if len(buf) != QuerySize {
		return Query{}, fmt.Errorf("%w: query of %d bytes", ErrMalformedResponse, len(buf))
	}
	q := Query{
		Kind:      QueryKind(buf[0]),
		Seq:       uint16(buf[1])<<8 | uint16(buf[2]),
		ShowIndex: buf[3],
	}
	copy(q.Data[:], buf[4:])
	return q, nil
}

// Content is the active member of a result union.
type Content interface {
	queryKind() QueryKind
}

// ShowList is the list of active shows on a controller host.
type ShowList struct {
	Count  uint8
	Endian Endian
	Ports  []uint16
}

func (ShowList) queryKind() QueryKind { return QueryList }

// Port returns the frame port of show i, or 0 when i is out of range.
func (l ShowList) Port(i int) uint16 {
	if i < 0 || i >= int(l.Count) || i >= len(l.Ports) {
		return 0
	}
	return l.Ports[i]
}

// DacInfo is the status block of the projector attached to a show.
type DacInfo struct {
	Version [2]uint8
	Type    uint8
	Channel uint8
	Serial  [4]uint8
	Status  [8]uint8
}

func (d DacInfo) Online() bool     { return d.Status[0] != 0 }
func (d DacInfo) ExternMode() bool { return d.Status[1] != 0 }

// Show describes one show.
type Show struct {
	ID   int16
	Port uint16
	Dac  DacInfo
	Name string
}

func (Show) queryKind() QueryKind { return QueryInfo }

// OptimizerSetting controls point insertion on the controller. Distances are
// in hundredths of the viewport (2 means 0.02).
type OptimizerSetting struct {
	AnchorPointsLit     uint8
	AnchorPointsBlanked uint8
	InterpDistLit       uint8
	InterpDistBlanked   uint8
}

func (OptimizerSetting) queryKind() QueryKind { return QueryGetOptimizerSetting }

func (s OptimizerSetting) bytes() []byte {
	return []byte{s.AnchorPointsLit, s.AnchorPointsBlanked, s.InterpDistLit, s.InterpDistBlanked}
}

// Result is a decoded directory response. Content is nil for query kinds that
// only acknowledge.
type Result struct {
	Status  [4]uint8
	Query   Query
	Content Content
}

// OK reports the controller's success flag.
func (r Result) OK() bool {
	return r.Status[0] > 0
}

// DecodeResult decodes a response to a query of kind asked. The union member is
// chosen by asked, never by the echoed query. Show lists carry their own byte
// order; other multi-byte fields are read through o.
func DecodeResult(buf []byte, asked QueryKind, o Order) (Result, error) {
	if len(buf) != ResultSize {
		return Result{}, fmt.Errorf("%w: result of %d bytes, want %d", ErrMalformedResponse, len(buf), ResultSize)
	}
	var r Result
	copy(r.Status[:], buf[:4])
	q, err := DecodeQuery(buf[resultQueryOffset:resultUnionOffset])
	if err != nil {
		return Result{}, err
	}
	r.Query = q

	union := buf[resultUnionOffset:]
	switch asked {
	case QueryList:
		r.Content = decodeShowList(union)
	case QueryInfo:
		r.Content = decodeShow(union, o)
	case QueryGetOptimizerSetting:
		r.Content = OptimizerSetting{
			AnchorPointsLit:     union[0],
			AnchorPointsBlanked: union[1],
			InterpDistLit:       union[2],
			InterpDistBlanked:   union[3],
		}
	}
	return r, nil
}

func decodeShowList(union []byte) ShowList {
	l := ShowList{Count: union[0], Endian: Endian(union[1])}
	lo := OrderFor(l.Endian)
	n := int(l.Count)
	if n > MaxShows {
		n = MaxShows
	}
	l.Ports = make([]uint16, n)
	for i := range l.Ports {
		l.Ports[i] = lo.Uint16(union[4+i*2:])
	}
	return l
}

func decodeShow(union []byte, o Order) Show {
	d := union[4 : 4+DacInfoSize]
	s := Show{
		ID:   o.Int16(union[0:2]),
		Port: o.Uint16(union[2:4]),
		Name: cString(union[4+DacInfoSize : 4+DacInfoSize+MaxShowNameLen]),
	}
	copy(s.Dac.Version[:], d[0:2])
	s.Dac.Type = d[2]
	s.Dac.Channel = d[3]
	copy(s.Dac.Serial[:], d[4:8])
	copy(s.Dac.Status[:], d[8:16])
	return s
}

// OptimizerQueryData places s in the payload of a set-optimizer query.
func OptimizerQueryData(s OptimizerSetting) [QueryDataSize]byte {
	var data [QueryDataSize]byte
	copy(data[:], s.bytes())
	return data
}
