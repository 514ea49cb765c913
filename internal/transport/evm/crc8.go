// internal/transport/evm/crc8.go
package evm

// The EVM bridge trails every command with CRC-8 (poly 0x07, init 0x00,
// no reflection).

var crc8Table [256]byte

func init() {
	for i := range crc8Table {
		c := byte(i)
		for b := 0; b < 8; b++ {
			if c&0x80 != 0 {
				c = c<<1 ^ 0x07
			} else {
				c <<= 1
			}
		}
		crc8Table[i] = c
	}
}

func crc8(data []byte) byte {
	var c byte
	for _, b := range data {
		c = crc8Table[c^b]
	}
	return c
}
