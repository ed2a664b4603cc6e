package response

import (
	"context"
	"log"
	"time"

	"go.bug.st/serial"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// Response box framing.
const (
	PacketSize      = 6
	PacketHeader    = 0x6b
	DefaultBoxBaud  = 115200
	boxReadInterval = 10 * time.Millisecond
)

// ButtonBytes are the second packet bytes sent for buttons 1..4.
var ButtonBytes = [4]byte{48, 112, 176, 240}

// ByteMap maps a button byte to a key name.
type ByteMap map[byte]string

// NewByteMap assigns the four response keys to the four buttons.
func NewByteMap(keys []string) ByteMap {
	m := make(ByteMap, len(ButtonBytes))
	for i, b := range ButtonBytes {
		if i < len(keys) {
			m[b] = keys[i]
		}
	}
	return m
}

// DecodePacket returns the key for a press packet. ok is false for
// packets with the wrong size or header, or an unknown button byte.
func DecodePacket(packet []byte, m ByteMap) (key string, ok bool) {
	if len(packet) != PacketSize || packet[0] != PacketHeader {
		return "", false
	}
	key, ok = m[packet[1]]
	return key, ok
}

type boxPort interface {
	Read(p []byte) (int, error)
	ResetInputBuffer() error
	Close() error
}

// Box reads button presses from a serial response box.
type Box struct {
	name  string
	port  boxPort
	bytes ByteMap
	now   func() time.Time
}

// OpenBox opens the response box on the named port.
func OpenBox(name string, baud int, keys []string) (*Box, error) {
	if baud <= 0 {
		baud = DefaultBoxBaud
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, werrors.DeviceWrap(err, werrors.ErrDeviceOpenFailed, name, "failed to open response box")
	}
	if err := p.SetReadTimeout(boxReadInterval); err != nil {
		p.Close()
		return nil, werrors.DeviceWrap(err, werrors.ErrDeviceOpenFailed, name, "failed to configure response box")
	}
	_ = p.ResetInputBuffer()
	log.Printf("[response] Response box initialized at %s (%d baud)", name, baud)
	return newBox(name, p, NewByteMap(keys)), nil
}

func newBox(name string, p boxPort, m ByteMap) *Box {
	return &Box{name: name, port: p, bytes: m, now: time.Now}
}

// Name implements Source.
func (b *Box) Name() string { return "response_box" }

// Run implements Source. Bytes are framed into packets; a malformed or
// unknown packet flushes the device input.
func (b *Box) Run(ctx context.Context, out chan<- Event) error {
	buf := make([]byte, 64)
	var pending []byte
	for ctx.Err() == nil {
		n, err := b.port.Read(buf)
		if err != nil {
			return werrors.DeviceWrap(err, werrors.ErrDeviceReadFailed, b.name, "response box read failed")
		}
		if n == 0 {
			continue
		}
		at := b.now()
		pending = append(pending, buf[:n]...)

		for len(pending) >= PacketSize {
			packet := pending[:PacketSize]
			key, ok := DecodePacket(packet, b.bytes)
			if !ok {
				log.Printf("[response] Discarding packet % x", packet)
				pending = pending[:0]
				_ = b.port.ResetInputBuffer()
				break
			}
			pending = pending[PacketSize:]
			select {
			case out <- Event{Key: key, At: at, Source: b.Name()}:
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

// Close releases the port.
func (b *Box) Close() error {
	return b.port.Close()
}
