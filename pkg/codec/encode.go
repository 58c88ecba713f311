package codec

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/matzehuels/adjpack/pkg/adjacency"
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// Encode writes g to w in the given format and returns the number of bytes
// written. [FormatAuto] encodes as [FormatLegacy].
//
// Keys are written in ascending order and, within a key, neighbors in
// ascending order. Write failures are returned as IO_ERROR wrapping the
// writer's error.
func Encode(w io.Writer, g *adjacency.Graph, format Format) (int64, error) {
	if uint64(g.KeyCount()) > math.MaxUint32 {
		return 0, apperr.New(apperr.ErrCodeInvalidInput, "too many keys for a uint32 count: %d", g.KeyCount())
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	buf := make([]byte, 0, blockHeadSize)

	if format == FormatFramed {
		buf = append(buf, Magic[:]...)
		buf = append(buf, Version)
		if _, err := bw.Write(buf); err != nil {
			return cw.n, ioErr(err)
		}
	}

	buf = binary.LittleEndian.AppendUint32(buf[:0], uint32(g.KeyCount()))
	if _, err := bw.Write(buf); err != nil {
		return cw.n, ioErr(err)
	}

	err := g.Each(func(key uint32, set *adjacency.NeighborSet) error {
		if uint64(set.Len()) > math.MaxUint32 {
			return apperr.New(apperr.ErrCodeInvalidInput, "key %d has too many neighbors: %d", key, set.Len())
		}
		buf = binary.LittleEndian.AppendUint32(buf[:0], key)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(set.Len()))
		if _, err := bw.Write(buf); err != nil {
			return ioErr(err)
		}
		for _, e := range set.Entries() {
			buf = binary.LittleEndian.AppendUint32(buf[:0], e.Neighbor)
			buf = append(buf, e.Weight)
			if _, err := bw.Write(buf); err != nil {
				return ioErr(err)
			}
		}
		return nil
	})
	if err != nil {
		return cw.n, err
	}

	if err := bw.Flush(); err != nil {
		return cw.n, ioErr(err)
	}
	return cw.n, nil
}

// EncodedSize returns the number of bytes Encode will write for g.
func EncodedSize(g *adjacency.Graph, format Format) int64 {
	n := int64(keyCountSize) + int64(g.KeyCount())*blockHeadSize + int64(g.EdgeCount())*entrySize
	if format == FormatFramed {
		n += int64(frameSize)
	}
	return n
}

func ioErr(err error) error {
	return apperr.Wrap(apperr.ErrCodeIO, err, "write binary graph")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
