package stream

import (
	"crypto/sha256"
	"hash/crc32"

	"github.com/templexxx/xhex"

	"github.com/Neumenon/unival/unival"
)

var crcTable = crc32.MakeTable(crc32.IEEE)

// ComputeCRC computes CRC-32 IEEE of the given bytes.
func ComputeCRC(data []byte) uint32 {
	return crc32.Checksum(data, crcTable)
}

// VerifyCRC verifies that the CRC matches.
func VerifyCRC(data []byte, expected uint32) bool {
	return ComputeCRC(data) == expected
}

// Fingerprint is the SHA-256 of the compact text of v. Composites are kept
// sorted, so values with the same text have the same fingerprint. Equal
// values may still differ: 0.0 and -0.0 compare equal but print
// differently. It fails for values that cannot be printed.
func Fingerprint(v unival.Value) ([32]byte, bool) {
	text, ok := unival.AppendText(nil, v, unival.Compact)
	if !ok {
		return [32]byte{}, false
	}
	return sha256.Sum256(text), true
}

// FingerprintBytes computes SHA-256 of raw bytes.
func FingerprintBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashToHex converts a 32-byte hash to lowercase hex string.
func HashToHex(h [32]byte) string {
	var buf [64]byte
	xhex.Encode(buf[:], h[:])
	return string(buf[:])
}

// HexToHash parses a 64-character hex string to a 32-byte hash.
func HexToHash(s string) (h [32]byte, ok bool) {
	if len(s) != 64 {
		return h, false
	}
	if err := xhex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
