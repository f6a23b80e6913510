package term

import (
	"strings"

	uv "github.com/charmbracelet/ultraviolet"
)

// InputDecoder turns raw terminal input into events. Bracketed pastes are
// collected into a single uv.PasteEvent instead of a key per character.
// The zero value is ready to use.
type InputDecoder struct {
	decoder uv.EventDecoder

	pasting bool
	paste   strings.Builder
}

// Feed decodes every complete event in data.
func (d *InputDecoder) Feed(data []byte) []uv.Event {
	var events []uv.Event
	buf := data
	for len(buf) > 0 {
		n, ev := d.decoder.Decode(buf)
		if n == 0 {
			break
		}
		raw := buf[:n]
		buf = buf[n:]

		switch ev.(type) {
		case uv.PasteStartEvent:
			d.pasting = true
			d.paste.Reset()
			continue
		case uv.PasteEndEvent:
			if d.pasting {
				events = append(events, uv.PasteEvent{Content: d.paste.String()})
			}
			d.pasting = false
			d.paste.Reset()
			continue
		}

		if d.pasting {
			d.collect(ev, raw)
			continue
		}
		if ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func (d *InputDecoder) collect(ev uv.Event, raw []byte) {
	if kp, ok := ev.(uv.KeyPressEvent); ok && kp.Text != "" {
		d.paste.WriteString(kp.Text)
		return
	}
	for _, b := range raw {
		if b == '\r' {
			b = '\n'
		}
		d.paste.WriteByte(b)
	}
}
