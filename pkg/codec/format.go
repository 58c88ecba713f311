package codec

import (
	apperr "github.com/matzehuels/adjpack/pkg/errors"
)

// Format selects the binary framing.
type Format string

const (
	// FormatAuto detects the framing when decoding. Encoding treats it as legacy.
	FormatAuto Format = "auto"
	// FormatLegacy is the bare layout with no prefix.
	FormatLegacy Format = "legacy"
	// FormatFramed is the legacy layout preceded by Magic and Version.
	FormatFramed Format = "framed"
)

// Magic starts every framed stream.
var Magic = [4]byte{'A', 'D', 'J', 'B'}

// Version is the only framed version this package writes and reads.
const Version uint8 = 1

const (
	keyCountSize  = 4
	blockHeadSize = 8
	entrySize     = 5
	frameSize     = len(Magic) + 1
)

// ParseFormat converts a format name into a Format.
// The empty string maps to def.
func ParseFormat(s string, def Format) (Format, error) {
	switch Format(s) {
	case "":
		return def, nil
	case FormatAuto, FormatLegacy, FormatFramed:
		return Format(s), nil
	}
	return "", apperr.New(apperr.ErrCodeInvalidFormat, "unknown binary format %q (want auto, legacy or framed)", s)
}

func (f Format) String() string { return string(f) }
