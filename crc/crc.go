// Package crc implements the checksum used by the ESP8266 fast-reconnect
// record kept in RTC memory.
package crc

const CRC32_POLY_04C11DB7 uint32 = 0x04c11db7
const CRC32_INIT uint32 = 0xffffffff

// Bit by bit, MSB first, no reflection and no final xor.
// Same as CRC-32/MPEG-2, kept table-less to match records written by firmware.
func CRC32_ccitt(crc uint32, data []byte) uint32 {
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			bit := uint32(b>>uint(i)) & 1
			top := crc >> 31
			crc <<= 1
			if top^bit != 0 {
				crc ^= CRC32_POLY_04C11DB7
			}
		}
	}
	return crc
}

func CRC32_ccitt_n(data []byte) uint32 {
	return CRC32_ccitt(CRC32_INIT, data)
}
