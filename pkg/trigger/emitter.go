package trigger

import (
	"context"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// Default serial settings for the trigger interface.
const (
	DefaultBaudRate      = 2000000
	DefaultPulseDuration = 50 * time.Millisecond
)

// Emitter sends a trigger code to the recording equipment.
type Emitter interface {
	// Pulse sets the line to code, holds it for the pulse duration and
	// resets it to 0.
	Pulse(ctx context.Context, code byte) error
	Close() error
}

// port is the part of serial.Port the emitter writes through.
type port interface {
	Write(p []byte) (int, error)
	Close() error
}

// SerialEmitter pulses codes on a serial port.
type SerialEmitter struct {
	name     string
	port     port
	duration time.Duration
	mu       sync.Mutex
}

// OpenSerial opens the named port at baud. A zero baud or duration uses
// the defaults.
func OpenSerial(name string, baud int, duration time.Duration) (*SerialEmitter, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, werrors.DeviceWrap(err, werrors.ErrDeviceOpenFailed, name, "failed to open trigger port")
	}
	log.Printf("[trigger] Opened %s at %d baud", name, baud)
	return newSerialEmitter(name, p, duration), nil
}

func newSerialEmitter(name string, p port, duration time.Duration) *SerialEmitter {
	if duration <= 0 {
		duration = DefaultPulseDuration
	}
	return &SerialEmitter{name: name, port: p, duration: duration}
}

// Pulse implements Emitter. The reset to 0 is written even if ctx is
// cancelled during the hold, so the line is never left high.
func (e *SerialEmitter) Pulse(ctx context.Context, code byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.port.Write([]byte{code}); err != nil {
		return werrors.DeviceWrap(err, werrors.ErrDeviceWriteFailed, e.name, "failed to write trigger")
	}

	timer := time.NewTimer(e.duration)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}

	if _, err := e.port.Write([]byte{0}); err != nil {
		return werrors.DeviceWrap(err, werrors.ErrDeviceWriteFailed, e.name, "failed to reset trigger")
	}
	return nil
}

// Close releases the port.
func (e *SerialEmitter) Close() error {
	return e.port.Close()
}

// LogEmitter stands in when no trigger port is available.
type LogEmitter struct{}

// Pulse implements Emitter by logging the code.
func (LogEmitter) Pulse(_ context.Context, code byte) error {
	log.Printf("[trigger] Faking serial port trigger: %d", code)
	return nil
}

// Close implements Emitter.
func (LogEmitter) Close() error { return nil }

// Open returns a SerialEmitter for name, or a LogEmitter when the trigger
// is disabled or the port cannot be opened. The open error is returned
// alongside the fallback so the caller can report it.
func Open(enabled bool, name string, baud int, duration time.Duration) (Emitter, error) {
	if !enabled {
		return LogEmitter{}, nil
	}
	e, err := OpenSerial(name, baud, duration)
	if err != nil {
		log.Printf("[trigger] Continuing without serial port (triggers will be faked)")
		return LogEmitter{}, err
	}
	return e, nil
}

// Recorder keeps every pulsed code in order.
type Recorder struct {
	mu    sync.Mutex
	codes []byte
}

// Pulse implements Emitter.
func (r *Recorder) Pulse(_ context.Context, code byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return nil
}

// Close implements Emitter.
func (r *Recorder) Close() error { return nil }

// Codes returns a copy of the recorded codes.
func (r *Recorder) Codes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.codes))
	copy(out, r.codes)
	return out
}
