package edgelist

import (
	"bufio"
	"io"
	"strconv"

	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// Writer writes "key\tneighbor\tweight" lines. Output is buffered; call
// [Writer.Flush] when done.
type Writer struct {
	w     *bufio.Writer
	buf   []byte
	count int
	err   error
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w), buf: make([]byte, 0, 32)}
}

// Write emits one line. After the first failure every call returns the same error.
func (w *Writer) Write(key, neighbor uint32, weight uint8) error {
	if w.err != nil {
		return w.err
	}
	w.buf = AppendLine(w.buf[:0], key, neighbor, weight)
	if _, err := w.w.Write(w.buf); err != nil {
		w.err = apperr.Wrap(apperr.ErrCodeIO, err, "write edge list")
		return w.err
	}
	w.count++
	return nil
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = apperr.Wrap(apperr.ErrCodeIO, err, "flush edge list")
	}
	return w.err
}

// Count returns the number of lines written.
func (w *Writer) Count() int { return w.count }

// AppendLine appends a newline-terminated text line to dst.
func AppendLine(dst []byte, key, neighbor uint32, weight uint8) []byte {
	dst = strconv.AppendUint(dst, uint64(key), 10)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, uint64(neighbor), 10)
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, uint64(weight), 10)
	return append(dst, '\n')
}
