package term

import (
	"testing"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeys(t *testing.T) {
	var d InputDecoder
	events := d.Feed([]byte("a\x01\r"))
	require.Len(t, events, 3)
	assert.Equal(t, uv.KeyPressEvent{Code: 'a', Text: "a"}, events[0])
	assert.Equal(t, uv.KeyPressEvent{Code: 'a', Mod: uv.ModCtrl}, events[1])
	assert.Equal(t, uv.KeyEnter, events[2].(uv.KeyPressEvent).Code)
}

func TestDecodeBracketedPaste(t *testing.T) {
	var d InputDecoder
	events := d.Feed([]byte("x\x1b[200~hi\rthere\x1b[201~y"))
	require.Len(t, events, 3)
	assert.Equal(t, "x", events[0].(uv.KeyPressEvent).Text)
	assert.Equal(t, uv.PasteEvent{Content: "hi\nthere"}, events[1])
	assert.Equal(t, "y", events[2].(uv.KeyPressEvent).Text)
}

func TestDecodePasteAcrossReads(t *testing.T) {
	var d InputDecoder
	assert.Empty(t, d.Feed([]byte("\x1b[200~one ")))
	events := d.Feed([]byte("two\x1b[201~"))
	assert.Equal(t, []uv.Event{uv.PasteEvent{Content: "one two"}}, events)
}

func TestDecodeEmpty(t *testing.T) {
	var d InputDecoder
	assert.Empty(t, d.Feed(nil))
}
