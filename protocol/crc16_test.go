package protocol

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		{data: []byte{}, expected: 0xFFFF},
		// CRC-16/MCRF4XX check value
		{data: []byte("123456789"), expected: 0x6F91},
	}

	for i, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("case %d: CRC16(%q) = 0x%04X, want 0x%04X", i, tc.data, got, tc.expected)
		}
	}
}

func TestCRC16DetectsSingleBitFlip(t *testing.T) {
	data := []byte{0x07, MessageDest, 0x01, 0x02}
	base := CRC16(data)
	for i := range data {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), data...)
			flipped[i] ^= 1 << bit
			if CRC16(flipped) == base {
				t.Errorf("flip of byte %d bit %d not detected", i, bit)
			}
		}
	}
}

func TestUpdateCRC16Incremental(t *testing.T) {
	data := []byte("123456789")
	crc := uint16(CRC16Init)
	for i := range data {
		crc = UpdateCRC16(crc, data[i:i+1])
	}
	if want := CRC16(data); crc != want {
		t.Errorf("incremental = 0x%04X, want 0x%04X", crc, want)
	}
}
