package io

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
)

// Console provides the character and number I/O of the machine.
// It wraps an io.Reader for input and io.Writer for output. A nil Input
// behaves as an empty stream, and a nil Output discards everything.
type Console struct {
	Input  io.Reader
	Output io.Writer

	reader *bufio.Reader
}

// in returns the buffered input. Call Rewind after replacing Input.
func (con *Console) in() *bufio.Reader {
	if con.reader == nil {
		input := con.Input
		if input == nil {
			input = eofReader{}
		}
		con.reader = bufio.NewReader(input)
	}
	return con.reader
}

func (con *Console) out() io.Writer {
	if con.Output == nil {
		return io.Discard
	}
	return con.Output
}

// Rewind restarts the input, if it can seek. Buffered input is dropped.
func (con *Console) Rewind() {
	if seeker, ok := con.Input.(io.Seeker); ok {
		seeker.Seek(0, io.SeekStart)
	}
	con.reader = nil
}

// FormatFloat formats a value the way the C library does for %.17g.
func FormatFloat(value float64) string {
	switch {
	case math.IsNaN(value):
		if math.Signbit(value) {
			return "-nan"
		}
		return "nan"
	case math.IsInf(value, 1):
		return "inf"
	case math.IsInf(value, -1):
		return "-inf"
	}

	return fmt.Sprintf("%.17g", value)
}

// PrintFloat writes a value with 17 significant digits.
func (con *Console) PrintFloat(value float64) (err error) {
	_, err = io.WriteString(con.out(), FormatFloat(value))
	return
}

// PrintChar writes a single byte.
func (con *Console) PrintChar(c byte) (err error) {
	_, err = con.out().Write([]byte{c})
	return
}

// ReadFloat reads the next whitespace delimited number.
func (con *Console) ReadFloat() (value float64, err error) {
	_, err = fmt.Fscan(con.in(), &value)
	if err != nil {
		err = errors.Join(ErrReadFloat, err)
		value = 0
	}
	return
}

// ReadChar reads a single byte, returning -1 at the end of the input.
func (con *Console) ReadChar() (value float64, err error) {
	c, err := con.in().ReadByte()
	if err == io.EOF {
		return -1, nil
	}
	if err != nil {
		return
	}

	value = float64(c)
	return
}

// eofReader is an always empty input.
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
