package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// SMS fragment formats.
const (
	Format3GPP = "3gpp"
	FormatText = "text"
)

// ErrMalformedPayload is returned for events whose payload cannot be decoded.
var ErrMalformedPayload = errors.New("malformed event payload")

// Message is a decoded SMS.
type Message struct {
	From   string
	Body   string
	SentAt time.Time
}

// DecodeSMS decodes every fragment of ev and joins them into one message.
// Concatenated 3GPP parts are ordered by their sequence number; fragments
// without concatenation info keep their delivery order.
func DecodeSMS(ev SMSReceived) (Message, error) {
	if len(ev.Fragments) == 0 {
		return Message{}, fmt.Errorf("%w: no fragments", ErrMalformedPayload)
	}

	msg := Message{From: strings.TrimSpace(ev.OriginatingAddress)}

	switch strings.ToLower(ev.Format) {
	case FormatText:
		var b strings.Builder
		for i, f := range ev.Fragments {
			if !utf8.Valid(f) {
				return Message{}, fmt.Errorf("%w: fragment %d is not valid UTF-8", ErrMalformedPayload, i)
			}
			b.Write(f)
		}
		msg.Body = b.String()

	case Format3GPP, "":
		parts := make([]*pdu, 0, len(ev.Fragments))
		for i, f := range ev.Fragments {
			p, err := parsePDU(f)
			if err != nil {
				return Message{}, fmt.Errorf("%w: fragment %d: %v", ErrMalformedPayload, i, err)
			}
			parts = append(parts, p)
		}
		sort.SliceStable(parts, func(i, j int) bool { return parts[i].seq < parts[j].seq })

		var b strings.Builder
		for _, p := range parts {
			b.WriteString(p.text)
		}
		msg.Body = b.String()
		msg.SentAt = parts[0].sentAt
		if msg.From == "" {
			msg.From = parts[0].sender
		}

	default:
		return Message{}, fmt.Errorf("%w: unsupported format %q", ErrMalformedPayload, ev.Format)
	}

	if msg.From == "" {
		return Message{}, fmt.Errorf("%w: missing originating address", ErrMalformedPayload)
	}
	return msg, nil
}
