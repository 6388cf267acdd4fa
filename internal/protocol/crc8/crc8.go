// Package crc8 implements the CRUMBS frame checksum: CRC-8 with polynomial
// 0x07, initial value 0x00, no reflection, no final xor (the CRC-8/SMBUS
// parameter set; check value over "123456789" is 0xF4).
package crc8

// Poly is the generator polynomial, x^8 + x^2 + x + 1.
const Poly = 0x07

var table [256]byte

func init() {
	for i := range table {
		crc := byte(i)
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ Poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
}

// Checksum returns the CRC-8 of data. It allocates nothing and has no state.
func Checksum(data []byte) byte {
	return Update(0, data)
}

// Update continues a running CRC-8 over data. Update(0, a+b) equals
// Update(Update(0, a), b).
func Update(crc byte, data []byte) byte {
	for _, b := range data {
		crc = table[crc^b]
	}
	return crc
}
