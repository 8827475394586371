//go:build linux

package voice

import (
	"fmt"
	"io"
	"syscall"

	"github.com/schleibinger/sio"
)

var baudRates = map[int]uint32{
	9600:   syscall.B9600,
	19200:  syscall.B19200,
	38400:  syscall.B38400,
	57600:  syscall.B57600,
	115200: syscall.B115200,
}

// Open opens the serial port the voice module is attached to.
func Open(device string, baud int) (io.ReadWriteCloser, error) {
	rate, ok := baudRates[baud]
	if !ok {
		return nil, fmt.Errorf("voice: unsupported baud rate %d", baud)
	}
	port, err := sio.Open(device, rate)
	if err != nil {
		return nil, fmt.Errorf("voice: open %s: %w", device, err)
	}
	return port, nil
}
