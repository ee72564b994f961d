package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
)

// Data coding alphabets (3GPP TS 23.038).
const (
	alphabetGSM7 = iota
	alphabet8Bit
	alphabetUCS2
)

// pdu is a decoded SMS-DELIVER TPDU (3GPP TS 23.040).
type pdu struct {
	sender string
	sentAt time.Time
	text   string
	// seq is the concatenation sequence number, 0 for single-part messages.
	seq int
}

type pduReader struct {
	buf []byte
	off int
}

func (r *pduReader) readByte() (byte, error) {
	if r.off >= len(r.buf) {
		return 0, errors.New("truncated pdu")
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *pduReader) readN(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.buf) {
		return nil, errors.New("truncated pdu")
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func parsePDU(raw []byte) (*pdu, error) {
	r := &pduReader{buf: raw}

	smscLen, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if _, err := r.readN(int(smscLen)); err != nil {
		return nil, err
	}

	first, err := r.readByte()
	if err != nil {
		return nil, err
	}
	if mti := first & 0x03; mti != 0x00 {
		return nil, fmt.Errorf("not an SMS-DELIVER (mti=%d)", mti)
	}
	hasUDH := first&0x40 != 0

	sender, err := readAddress(r)
	if err != nil {
		return nil, err
	}

	if _, err := r.readByte(); err != nil { // TP-PID
		return nil, err
	}
	dcs, err := r.readByte()
	if err != nil {
		return nil, err
	}
	scts, err := r.readN(7)
	if err != nil {
		return nil, err
	}
	udl, err := r.readByte()
	if err != nil {
		return nil, err
	}
	ud := r.buf[r.off:]

	p := &pdu{sender: sender, sentAt: parseSCTS(scts)}

	headerLen := 0
	if hasUDH {
		if len(ud) == 0 {
			return nil, errors.New("missing user data header")
		}
		headerLen = int(ud[0]) + 1
		if headerLen > len(ud) {
			return nil, errors.New("user data header exceeds payload")
		}
		p.seq = concatSequence(ud[1:headerLen])
	}

	switch alphabet(dcs) {
	case alphabetGSM7:
		septets, err := unpackSeptets(ud, int(udl))
		if err != nil {
			return nil, err
		}
		// The header is padded to a septet boundary.
		skip := (headerLen*8 + 6) / 7
		if skip > len(septets) {
			return nil, errors.New("user data header exceeds payload")
		}
		p.text = decodeGSM7(septets[skip:])

	case alphabet8Bit:
		body, err := octetBody(ud, int(udl), headerLen)
		if err != nil {
			return nil, err
		}
		runes := make([]rune, len(body))
		for i, b := range body {
			runes[i] = rune(b)
		}
		p.text = string(runes)

	case alphabetUCS2:
		body, err := octetBody(ud, int(udl), headerLen)
		if err != nil {
			return nil, err
		}
		if len(body)%2 != 0 {
			return nil, errors.New("odd UCS2 payload length")
		}
		units := make([]uint16, len(body)/2)
		for i := range units {
			units[i] = uint16(body[2*i])<<8 | uint16(body[2*i+1])
		}
		p.text = string(utf16.Decode(units))
	}

	return p, nil
}

func octetBody(ud []byte, udl, headerLen int) ([]byte, error) {
	if udl > len(ud) || headerLen > udl {
		return nil, errShortUserData
	}
	return ud[headerLen:udl], nil
}

// readAddress decodes TP-OA. Length is counted in semi-octets.
func readAddress(r *pduReader) (string, error) {
	digits, err := r.readByte()
	if err != nil {
		return "", err
	}
	toa, err := r.readByte()
	if err != nil {
		return "", err
	}
	raw, err := r.readN((int(digits) + 1) / 2)
	if err != nil {
		return "", err
	}

	// Alphanumeric sender ids are GSM7 packed.
	if (toa>>4)&0x07 == 0x05 {
		septets, err := unpackSeptets(raw, int(digits)*4/7)
		if err != nil {
			return "", err
		}
		return decodeGSM7(septets), nil
	}

	var b strings.Builder
	if (toa>>4)&0x07 == 0x01 {
		b.WriteByte('+')
	}
	for _, o := range raw {
		for _, nib := range [2]byte{o & 0x0F, o >> 4} {
			if nib == 0x0F {
				continue
			}
			b.WriteByte(bcdDigit(nib))
		}
	}
	return b.String(), nil
}

func bcdDigit(n byte) byte {
	switch {
	case n <= 9:
		return '0' + n
	case n == 0x0A:
		return '*'
	case n == 0x0B:
		return '#'
	default:
		return 'a' + (n - 0x0C)
	}
}

func alphabet(dcs byte) int {
	switch {
	case dcs&0xC0 == 0x00:
		switch (dcs >> 2) & 0x03 {
		case 1:
			return alphabet8Bit
		case 2:
			return alphabetUCS2
		}
	case dcs&0xF0 == 0xF0:
		if dcs&0x04 != 0 {
			return alphabet8Bit
		}
	case dcs&0xF0 == 0xE0:
		return alphabetUCS2
	}
	return alphabetGSM7
}

// concatSequence returns the part number from a concatenation IE, or 0.
func concatSequence(udh []byte) int {
	for i := 0; i+1 < len(udh); {
		iei, l := udh[i], int(udh[i+1])
		data := udh[i+2:]
		if l > len(data) {
			return 0
		}
		switch {
		case iei == 0x00 && l == 3:
			return int(data[2])
		case iei == 0x08 && l == 4:
			return int(data[3])
		}
		i += 2 + l
	}
	return 0
}

func swapBCD(b byte) int {
	return int(b&0x0F)*10 + int(b>>4)
}

// parseSCTS decodes the service-centre timestamp. The zone is in quarter hours.
func parseSCTS(s []byte) time.Time {
	quarters := int(s[6]&0x07)*10 + int(s[6]>>4)
	if s[6]&0x08 != 0 {
		quarters = -quarters
	}
	loc := time.FixedZone("", quarters*15*60)
	return time.Date(2000+swapBCD(s[0]), time.Month(swapBCD(s[1])), swapBCD(s[2]),
		swapBCD(s[3]), swapBCD(s[4]), swapBCD(s[5]), 0, loc)
}
