package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// Record is one stored (key, neighbor, weight) triple.
type Record struct {
	Key      uint32
	Neighbor uint32
	Weight   uint8
}

// Header describes a decoded stream.
type Header struct {
	Format  Format // FormatLegacy or FormatFramed, never FormatAuto
	Version uint8  // 0 for legacy streams
	Keys    uint32 // declared totalKeyCount
}

// Decoder reads records from a binary stream lazily.
//
//	d := codec.NewDecoder(f, codec.FormatAuto)
//	for d.Next() {
//	    rec := d.Record()
//	    // ...
//	}
//	if err := d.Err(); err != nil {
//	    return err
//	}
type Decoder struct {
	r      *bufio.Reader
	format Format
	buf    [blockHeadSize]byte

	hdr     Header
	started bool

	blocks uint32 // key blocks consumed
	key    uint32
	count  uint32 // neighbors declared for the current key
	index  uint32 // neighbors consumed for the current key

	offset int64
	rec    Record
	err    error
}

// NewDecoder returns a Decoder reading from r.
// The empty format is treated as [FormatAuto].
func NewDecoder(r io.Reader, format Format) *Decoder {
	if format == "" {
		format = FormatAuto
	}
	return &Decoder{r: bufio.NewReader(r), format: format}
}

// Header reads the stream header if needed and returns it.
func (d *Decoder) Header() (Header, error) {
	if !d.started {
		d.readHeader()
	}
	return d.hdr, d.err
}

// Next advances to the next record. It returns false when every declared
// block has been read or on error; check [Decoder.Err] afterwards.
func (d *Decoder) Next() bool {
	if !d.started {
		d.readHeader()
	}
	for d.err == nil {
		if d.index < d.count {
			if !d.read(entrySize, "entry %d/%d of key %d", d.index+1, d.count, d.key) {
				return false
			}
			d.rec = Record{
				Key:      d.key,
				Neighbor: binary.LittleEndian.Uint32(d.buf[0:4]),
				Weight:   d.buf[4],
			}
			d.index++
			return true
		}
		if d.blocks == d.hdr.Keys {
			return false
		}
		if !d.read(blockHeadSize, "head of key block %d/%d", d.blocks+1, d.hdr.Keys) {
			return false
		}
		d.key = binary.LittleEndian.Uint32(d.buf[0:4])
		d.count = binary.LittleEndian.Uint32(d.buf[4:8])
		d.index = 0
		d.blocks++
	}
	return false
}

// Record returns the record produced by the last successful call to Next.
func (d *Decoder) Record() Record { return d.rec }

// Err returns the first error encountered, or nil after a complete stream.
func (d *Decoder) Err() error { return d.err }

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int64 { return d.offset }

// Blocks returns the number of key blocks started so far.
func (d *Decoder) Blocks() uint32 { return d.blocks }

func (d *Decoder) readHeader() {
	d.started = true

	format := d.format
	if format == FormatAuto {
		format = FormatLegacy
		peek, err := d.r.Peek(len(Magic))
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			d.err = apperr.Wrap(apperr.ErrCodeIO, err, "read binary graph")
			return
		}
		if bytes.Equal(peek, Magic[:]) {
			format = FormatFramed
		}
	}

	d.hdr.Format = format
	if format == FormatFramed {
		if !d.read(frameSize, "frame header") {
			return
		}
		if !bytes.Equal(d.buf[:len(Magic)], Magic[:]) {
			d.err = apperr.New(apperr.ErrCodeInvalidFormat, "missing %q frame magic", Magic[:])
			return
		}
		d.hdr.Version = d.buf[len(Magic)]
		if d.hdr.Version != Version {
			d.err = apperr.New(apperr.ErrCodeInvalidFormat, "unsupported frame version %d", d.hdr.Version)
			return
		}
	}

	if !d.read(keyCountSize, "total key count") {
		return
	}
	d.hdr.Keys = binary.LittleEndian.Uint32(d.buf[0:4])
}

// read fills d.buf[:n]. On failure it records the error, naming what was
// being read, and returns false.
func (d *Decoder) read(n int, what string, args ...any) bool {
	got, err := io.ReadFull(d.r, d.buf[:n])
	d.offset += int64(got)
	if err == nil {
		return true
	}
	desc := fmt.Sprintf(what, args...)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		d.err = apperr.Wrap(apperr.ErrCodeTruncated, io.ErrUnexpectedEOF,
			"stream ended at byte %d while reading %s", d.offset, desc)
	} else {
		d.err = apperr.Wrap(apperr.ErrCodeIO, err, "read %s", desc)
	}
	return false
}

// Decode reads every record from r and passes it to fn. It stops at the
// first error from the stream or from fn.
func Decode(r io.Reader, format Format, fn func(Record) error) (Header, error) {
	d := NewDecoder(r, format)
	for d.Next() {
		if err := fn(d.Record()); err != nil {
			return d.hdr, err
		}
	}
	return d.hdr, d.Err()
}

// DecodeAll reads every record from r into a slice.
func DecodeAll(r io.Reader, format Format) ([]Record, error) {
	var out []Record
	_, err := Decode(r, format, func(rec Record) error {
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
