package response

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	werrors "github.com/r3d91ll/asrt/pkg/errors"
)

// Keyboard reads single key presses from a terminal in raw mode.
type Keyboard struct {
	r       io.Reader
	restore func() error
	now     func() time.Time
}

// OpenKeyboard switches stdin to raw mode. Close restores it.
func OpenKeyboard() (*Keyboard, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, werrors.New(werrors.ErrKeyboardUnavailable, werrors.CategoryDevice,
			"stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, werrors.DeviceWrap(err, werrors.ErrKeyboardUnavailable, "", "failed to enter raw mode")
	}
	return &Keyboard{
		r:       os.Stdin,
		restore: func() error { return term.Restore(fd, state) },
		now:     time.Now,
	}, nil
}

// NewKeyboard reads key presses from r without touching terminal state.
func NewKeyboard(r io.Reader) *Keyboard {
	return &Keyboard{r: r, now: time.Now}
}

// Name implements Source.
func (k *Keyboard) Name() string { return "keyboard" }

// Run implements Source. A blocked read is not interrupted by ctx; the
// loop exits at the next key or when the reader is closed.
func (k *Keyboard) Run(ctx context.Context, out chan<- Event) error {
	buf := make([]byte, 16)
	for {
		n, err := k.r.Read(buf)
		at := k.now()
		if ctx.Err() != nil {
			return nil
		}
		if n > 0 {
			for _, key := range decodeKeys(buf[:n]) {
				select {
				case out <- Event{Key: key, At: at, Source: k.Name()}:
				case <-ctx.Done():
					return nil
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return werrors.DeviceWrap(err, werrors.ErrDeviceReadFailed, "stdin", "keyboard read failed")
		}
	}
}

// Close restores the terminal.
func (k *Keyboard) Close() error {
	if k.restore == nil {
		return nil
	}
	return k.restore()
}

// decodeKeys names the keys in one read. An escape sequence from an arrow
// or function key ends the read.
func decodeKeys(b []byte) []string {
	var keys []string
	for i := 0; i < len(b); i++ {
		if b[i] == 0x1b && i+1 < len(b) && (b[i+1] == '[' || b[i+1] == 'O') {
			break
		}
		if key, ok := KeyName(b[i]); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// KeyName maps a raw terminal byte to a key name. Ctrl-C counts as escape
// because raw mode swallows the interrupt signal.
func KeyName(b byte) (string, bool) {
	switch {
	case b == 0x1b || b == 0x03:
		return KeyEscape, true
	case b == ' ':
		return KeySpace, true
	case b == '\r' || b == '\n':
		return KeyReturn, true
	case b >= '!' && b <= '~':
		return strings.ToLower(string(rune(b))), true
	default:
		return "", false
	}
}
