//go:build !linux

package voice

import (
	"errors"
	"io"
)

// Open returns an error on non-Linux platforms.
func Open(device string, baud int) (io.ReadWriteCloser, error) {
	return nil, errors.New("voice: serial not supported on this platform (requires Linux)")
}
