package event

import (
	"errors"
	"strings"
)

const gsm7Escape = 0x1B

// gsm7Basic is the GSM 03.38 default alphabet indexed by septet value.
var gsm7Basic = []rune("@£$¥èéùìòÇ\nØø\rÅåΔ_ΦΓΛΩΠΨΣΘΞ\x1bÆæßÉ !\"#¤%&'()*+,-./0123456789:;<=>?" +
	"¡ABCDEFGHIJKLMNOPQRSTUVWXYZÄÖÑÜ§¿abcdefghijklmnopqrstuvwxyzäöñüà")

// gsm7Extension holds the characters reachable through the escape septet.
var gsm7Extension = map[byte]rune{
	0x0A: '\f',
	0x14: '^',
	0x28: '{',
	0x29: '}',
	0x2F: '\\',
	0x3C: '[',
	0x3D: '~',
	0x3E: ']',
	0x40: '|',
	0x65: '€',
}

var errShortUserData = errors.New("user data shorter than declared length")

// unpackSeptets extracts n 7-bit values packed little-endian into data.
func unpackSeptets(data []byte, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		bit := i * 7
		idx, shift := bit/8, uint(bit%8)
		if idx >= len(data) {
			return nil, errShortUserData
		}
		v := data[idx] >> shift
		if shift > 1 {
			if idx+1 >= len(data) {
				return nil, errShortUserData
			}
			v |= data[idx+1] << (8 - shift)
		}
		out[i] = v & 0x7F
	}
	return out, nil
}

// decodeGSM7 maps septets to text. An escape followed by an unknown code
// falls back to the basic-table character, as handsets do.
func decodeGSM7(septets []byte) string {
	var b strings.Builder
	for i := 0; i < len(septets); i++ {
		s := septets[i]
		if s == gsm7Escape {
			if i+1 < len(septets) {
				i++
				if r, ok := gsm7Extension[septets[i]]; ok {
					b.WriteRune(r)
				} else {
					b.WriteRune(gsm7Basic[septets[i]])
				}
			}
			continue
		}
		b.WriteRune(gsm7Basic[s])
	}
	return b.String()
}
