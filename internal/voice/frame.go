// Package voice speaks the SU-03T voice module's serial protocol.
//
// Inbound frames carry one command code: AA 55 <code> 55 AA.
// Outbound frames carry one reading: AA 55 <index> <float64 LE> 55 AA.
package voice

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/sweeney/smart-home/internal/command"
)

const (
	head0 = 0xAA
	head1 = 0x55
	tail0 = 0x55
	tail1 = 0xAA
)

// ReadingFrameSize is the length of an encoded reading frame.
const ReadingFrameSize = 2 + 1 + 8 + 2

// Decoder extracts command codes from a byte stream. It slides a
// five-byte window over the input, so a corrupt or truncated frame costs
// nothing beyond itself.
type Decoder struct {
	r       *bufio.Reader
	window  [frameSize]byte
	filled  int
	corrupt int
}

const frameSize = 5

// NewDecoder wraps r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Corrupt returns how many headers were seen without a valid trailer.
func (d *Decoder) Corrupt() int {
	return d.corrupt
}

// Next blocks until a complete frame arrives and returns its code.
// It returns the underlying reader's error, e.g. io.EOF when the port closes.
func (d *Decoder) Next() (command.VoiceCode, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}
		if d.filled < frameSize {
			d.window[d.filled] = b
			d.filled++
		} else {
			if d.window[0] == head0 && d.window[1] == head1 {
				d.corrupt++
			}
			copy(d.window[:], d.window[1:])
			d.window[frameSize-1] = b
		}
		if d.filled < frameSize {
			continue
		}
		w := d.window
		if w[0] == head0 && w[1] == head1 && w[3] == tail0 && w[4] == tail1 {
			d.filled = 0
			return command.VoiceCode(w[2]), nil
		}
	}
}

// EncodeReading builds the frame that makes the module announce a reading.
// The index is the metric's code: 1 temperature, 2 humidity, 3 illuminance.
func EncodeReading(m command.Metric, value float64) []byte {
	frame := make([]byte, ReadingFrameSize)
	frame[0], frame[1] = head0, head1
	frame[2] = byte(m)
	binary.LittleEndian.PutUint64(frame[3:11], math.Float64bits(value))
	frame[11], frame[12] = tail0, tail1
	return frame
}
