package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

// DefaultMaxLineBytes bounds a single inbound request line.
const DefaultMaxLineBytes = 16 << 20

// Decoder reads newline-delimited request lines.
type Decoder struct {
	r   *bufio.Reader
	max int
}

// NewDecoder creates a decoder reading from r. A maxLine of zero or less
// selects DefaultMaxLineBytes.
func NewDecoder(r io.Reader, maxLine int) *Decoder {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	return &Decoder{r: bufio.NewReaderSize(r, 64*1024), max: maxLine}
}

// ReadLine returns the next line without its terminator. A final line with no
// trailing newline is returned before io.EOF. Lines over the limit are
// consumed and reported as ErrLineTooLong so the caller can keep reading.
func (d *Decoder) ReadLine() ([]byte, error) {
	var (
		line    []byte
		tooLong bool
	)

	for {
		chunk, err := d.r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > d.max+2 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return nil, ErrLineTooLong
			}
			return trimEOL(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return nil, ErrLineTooLong
			}
			if len(line) > 0 {
				return trimEOL(line), nil
			}
			return nil, io.EOF
		default:
			return nil, fmt.Errorf("failed to read request: %w", err)
		}
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}

// Encoder writes one JSON value per line and flushes after each.
type Encoder struct {
	mu  sync.Mutex
	w   *bufio.Writer
	enc *json.Encoder
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	return &Encoder{w: bw, enc: enc}
}

// Encode writes v as a single line and flushes it.
func (e *Encoder) Encode(v interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if err := e.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}
	return nil
}

// Marshal encodes v the way Encoder writes it, without HTML escaping and
// without the trailing newline.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
