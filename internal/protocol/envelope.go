package protocol

import "fmt"

// Marker opens every bridge dialect datagram: 'D', 'M', version 1.
var Marker = [3]byte{0x44, 0x4D, 0x01}

// HeaderSize is the length of the marker plus the command byte.
const HeaderSize = 4

// Command is the bridge dialect command code (byte 3 of the envelope).
type Command uint8

const (
	CmdScan            Command = 0x00
	CmdScanReply       Command = 0x01
	CmdFrame           Command = 0x10
	CmdFrameAck        Command = 0x11
	CmdPlay            Command = 0x12
	CmdPlayAck         Command = 0x13
	CmdStop            Command = 0x14
	CmdStopAck         Command = 0x15
	CmdPause           Command = 0x16
	CmdPauseAck        Command = 0x17
	CmdResume          Command = 0x18
	CmdResumeAck       Command = 0x19
	CmdSetPPS          Command = 0x1A
	CmdSetPPSAck       Command = 0x1B
	CmdSetOutputScale  Command = 0x1C
	CmdSetScaleAck     Command = 0x1D
	CmdSetOutputOffset Command = 0x1E
	CmdSetOffsetAck    Command = 0x1F
	CmdSetColorMap     Command = 0x20
	CmdSetColorMapAck  Command = 0x21
	CmdSetBlankDelay   Command = 0x22
	CmdSetBlankAck     Command = 0x23
	CmdSetOutputMode   Command = 0x24
	CmdSetModeAck      Command = 0x25
	CmdSetSafetyZone   Command = 0x26
	CmdSetZoneAck      Command = 0x27
	CmdGetSafetyZone   Command = 0x28
	CmdSafetyZone      Command = 0x29
	CmdSetOutputName   Command = 0x2A
	CmdSetNameAck      Command = 0x2B
	CmdGetOutputName   Command = 0x2C
	CmdOutputName      Command = 0x2D
	CmdReboot          Command = 0xFE
	CmdRebootAck       Command = 0xFF
)

var commandNames = map[Command]string{
	CmdScan:            "scan",
	CmdScanReply:       "scan-reply",
	CmdFrame:           "frame",
	CmdFrameAck:        "frame-ack",
	CmdPlay:            "play",
	CmdPlayAck:         "play-ack",
	CmdStop:            "stop",
	CmdStopAck:         "stop-ack",
	CmdPause:           "pause",
	CmdPauseAck:        "pause-ack",
	CmdResume:          "resume",
	CmdResumeAck:       "resume-ack",
	CmdSetPPS:          "set-pps",
	CmdSetPPSAck:       "set-pps-ack",
	CmdSetOutputScale:  "set-output-scale",
	CmdSetScaleAck:     "set-output-scale-ack",
	CmdSetOutputOffset: "set-output-offset",
	CmdSetOffsetAck:    "set-output-offset-ack",
	CmdSetColorMap:     "set-color-map",
	CmdSetColorMapAck:  "set-color-map-ack",
	CmdSetBlankDelay:   "set-blanking-delay",
	CmdSetBlankAck:     "set-blanking-delay-ack",
	CmdSetOutputMode:   "set-output-mode",
	CmdSetModeAck:      "set-output-mode-ack",
	CmdSetSafetyZone:   "set-safety-zone",
	CmdSetZoneAck:      "set-safety-zone-ack",
	CmdGetSafetyZone:   "get-safety-zone",
	CmdSafetyZone:      "safety-zone",
	CmdSetOutputName:   "set-output-name",
	CmdSetNameAck:      "set-output-name-ack",
	CmdGetOutputName:   "get-output-name",
	CmdOutputName:      "output-name",
	CmdReboot:          "reboot",
	CmdRebootAck:       "reboot-ack",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(0x%02X)", uint8(c))
}

// Reply returns the command code a bridge answers the request with.
func (c Command) Reply() Command {
	return c + 1
}

// Encode builds a datagram: marker, command, payload.
func Encode(cmd Command, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	copy(buf, Marker[:])
	buf[3] = byte(cmd)
	copy(buf[HeaderSize:], payload)
	return buf
}

// Decode checks the marker and command of a datagram and returns its payload.
func Decode(datagram []byte, expected Command) ([]byte, error) {
	if len(datagram) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedResponse, len(datagram))
	}
	if datagram[0] != Marker[0] || datagram[1] != Marker[1] || datagram[2] != Marker[2] {
		return nil, fmt.Errorf("%w: bad marker % X", ErrMalformedResponse, datagram[:3])
	}
	if got := Command(datagram[3]); got != expected {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrMalformedResponse, got, expected)
	}
	return datagram[HeaderSize:], nil
}
