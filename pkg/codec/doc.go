// Package codec implements the binary adjacency format.
//
// # Layout
//
// All integers are little-endian, with no padding:
//
//	totalKeyCount : uint32
//	repeated totalKeyCount times:
//	    key           : uint32
//	    neighborCount : uint32
//	    repeated neighborCount times:
//	        neighborNode : uint32
//	        weight       : uint8
//
// This bare layout is [FormatLegacy] and is what existing binaries read and
// write. [FormatFramed] prefixes it with the four magic bytes "ADJB" and a
// one-byte version. When decoding, [FormatAuto] peeks at the first four bytes
// and picks framed if they match the magic, legacy otherwise.
//
// # Decoding
//
// [Decoder] is lazy: it yields one [Record] per stored neighbor, in stored
// order, and never builds the graph. It trusts the declared counts and reads
// exactly that many blocks and entries. A stream that ends early fails with a
// TRUNCATED_INPUT error naming what was being read and the byte offset. Bytes
// after the last declared block are ignored.
package codec
