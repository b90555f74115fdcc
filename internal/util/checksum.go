package util

import (
	"encoding/binary"
	"hash/crc32"
)

// CRC32 (IEEE) checksums guard commit log entries against torn or
// corrupted lines. An entry whose checksum does not match is treated
// as absent during replay.

var crc32Table = crc32.MakeTable(crc32.IEEE)

// ComputeChecksum computes a CRC32 checksum for the given data.
func ComputeChecksum(data []byte) uint32 {
	return crc32.Checksum(data, crc32Table)
}

// ValidateChecksum reports whether data matches the expected checksum.
func ValidateChecksum(data []byte, expected uint32) bool {
	return ComputeChecksum(data) == expected
}

// EntryChecksum computes the checksum covering a log entry's key,
// value and timestamp. Fields are length-free concatenated with the
// timestamp encoded big-endian, which is stable across encodings.
func EntryChecksum(key, value string, timestamp int64) uint32 {
	buf := make([]byte, 0, len(key)+len(value)+8)
	buf = append(buf, key...)
	buf = append(buf, value...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp))
	return ComputeChecksum(buf)
}
