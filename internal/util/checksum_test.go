package util

import (
	"testing"
)

func TestComputeChecksum(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"simple", []byte("hello world")},
		{"binary", []byte{0x00, 0x01, 0x02, 0x03, 0xFF}},
		{"large", make([]byte, 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checksum1 := ComputeChecksum(tt.data)
			checksum2 := ComputeChecksum(tt.data)

			if checksum1 != checksum2 {
				t.Errorf("Checksums should be deterministic: %d != %d", checksum1, checksum2)
			}
		})
	}
}

func TestValidateChecksum(t *testing.T) {
	data := []byte("test data for checksum validation")
	checksum := ComputeChecksum(data)

	if !ValidateChecksum(data, checksum) {
		t.Error("Valid checksum should pass validation")
	}

	if ValidateChecksum(data, checksum+1) {
		t.Error("Invalid checksum should fail validation")
	}

	// Test with corrupted data
	corruptedData := append([]byte{}, data...)
	corruptedData[0] ^= 0xFF
	if ValidateChecksum(corruptedData, checksum) {
		t.Error("Corrupted data should fail validation")
	}
}

func TestEntryChecksum(t *testing.T) {
	sum := EntryChecksum("user:1", "alice", 1700000000000)

	if sum != EntryChecksum("user:1", "alice", 1700000000000) {
		t.Error("Entry checksum should be deterministic")
	}

	if sum == EntryChecksum("user:2", "alice", 1700000000000) {
		t.Error("Different keys should produce different checksums")
	}
	if sum == EntryChecksum("user:1", "bob", 1700000000000) {
		t.Error("Different values should produce different checksums")
	}
	if sum == EntryChecksum("user:1", "alice", 1700000000001) {
		t.Error("Different timestamps should produce different checksums")
	}
}

func TestEntryChecksumEmptyFields(t *testing.T) {
	// Empty key and value still produce a checksum over the timestamp
	a := EntryChecksum("", "", 1)
	b := EntryChecksum("", "", 2)
	if a == b {
		t.Error("Timestamp alone should distinguish checksums")
	}
}

func BenchmarkComputeChecksum(b *testing.B) {
	data := make([]byte, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeChecksum(data)
	}
}

func BenchmarkEntryChecksum(b *testing.B) {
	value := string(make([]byte, 1024))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EntryChecksum("bench-key", value, int64(i))
	}
}
