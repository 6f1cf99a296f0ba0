// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package bus

// crcPoly is the reflected polynomial the board firmware uses for its
// single-byte checksums.
const crcPoly = 0x91

// CRC returns the board checksum of msg.
func CRC(msg []byte) byte {
	var crc byte
	for _, b := range msg {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc ^= crcPoly
			}
			crc >>= 1
		}
	}
	return crc
}
