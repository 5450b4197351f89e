package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/justyntemme/neuropixelscar/pkg/dsp"
)

// ErrTruncatedFrame is returned when a recording ends inside a frame
var ErrTruncatedFrame = errors.New("recording ends inside a frame")

// Reader reads a SpikeGLX-style recording: little-endian int16 samples,
// interleaved frame by frame.
type Reader struct {
	r        io.Reader
	channels int
	buf      []byte
}

// NewReader creates a reader for frames of channels samples
func NewReader(r io.Reader, channels int) *Reader {
	return &Reader{r: bufio.NewReaderSize(r, 1<<16), channels: channels}
}

// ReadBlock reads up to len(dst[0]) frames and de-interleaves them into
// dst, one row per channel. It returns the number of frames read, and
// io.EOF once the recording is exhausted.
func (r *Reader) ReadBlock(dst [][]float32) (int, error) {
	if len(dst) != r.channels {
		return 0, fmt.Errorf("read block: %d rows for %d channels", len(dst), r.channels)
	}
	if r.channels == 0 {
		return 0, io.EOF
	}
	maxFrames := len(dst[0])
	frameBytes := 2 * r.channels
	if need := maxFrames * frameBytes; cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	buf := r.buf[:maxFrames*frameBytes]

	n, err := io.ReadFull(r.r, buf)
	frames := n / frameBytes
	switch {
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		if n%frameBytes != 0 {
			err = fmt.Errorf("%w: %d trailing bytes", ErrTruncatedFrame, n%frameBytes)
		} else {
			err = nil
		}
	case err != nil:
		return 0, fmt.Errorf("read block: %w", err)
	}

	for f := 0; f < frames; f++ {
		frame := buf[f*frameBytes : (f+1)*frameBytes]
		for ch := range dst {
			dst[ch][f] = float32(int16(binary.LittleEndian.Uint16(frame[2*ch:])))
		}
	}
	return frames, err
}

// Writer writes blocks as interleaved little-endian int16 frames.
type Writer struct {
	w        *bufio.Writer
	channels int
	buf      []byte
}

// NewWriter creates a writer for frames of channels samples
func NewWriter(w io.Writer, channels int) *Writer {
	return &Writer{w: bufio.NewWriterSize(w, 1<<16), channels: channels}
}

// WriteBlock interleaves the first n samples of every row of src. Values
// are rounded to the nearest integer and saturated to the int16 range.
func (w *Writer) WriteBlock(src [][]float32, n int) error {
	if len(src) != w.channels {
		return fmt.Errorf("write block: %d rows for %d channels", len(src), w.channels)
	}
	frameBytes := 2 * w.channels
	if need := n * frameBytes; cap(w.buf) < need {
		w.buf = make([]byte, need)
	}
	buf := w.buf[:n*frameBytes]

	for f := 0; f < n; f++ {
		frame := buf[f*frameBytes : (f+1)*frameBytes]
		for ch, row := range src {
			binary.LittleEndian.PutUint16(frame[2*ch:], uint16(toInt16(row[f])))
		}
	}
	if _, err := w.w.Write(buf); err != nil {
		return fmt.Errorf("write block: %w", err)
	}
	return nil
}

// Flush writes any buffered data
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func toInt16(v float32) int16 {
	switch {
	case v != v:
		return 0
	case v >= dsp.Int16Max:
		return dsp.Int16Max
	case v <= dsp.Int16Min:
		return dsp.Int16Min
	}
	return int16(math.Round(float64(v)))
}
