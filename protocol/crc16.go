package protocol

// CRC16Init is the CRC-16/CCITT seed Klipper frames start from.
const CRC16Init = 0xFFFF

// UpdateCRC16 folds data into crc, one byte at a time with the nibble
// shortcut the MCU side uses.
func UpdateCRC16(crc uint16, data []byte) uint16 {
	for _, b := range data {
		b ^= uint8(crc)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}

// CRC16 is the checksum of a frame's length, sequence and payload bytes.
func CRC16(data []byte) uint16 {
	return UpdateCRC16(CRC16Init, data)
}
