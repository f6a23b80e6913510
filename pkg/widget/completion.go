package widget

import (
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/sahilm/fuzzy"

	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
)

// CompletionSource produces candidates for a query.
type CompletionSource interface {
	Complete(query string) []node.PopupItem
}

// FuzzySource matches item labels against the query with fuzzy matching,
// best matches first. An empty query returns every item in order.
type FuzzySource struct {
	Items []node.PopupItem
}

type labelSource []node.PopupItem

func (s labelSource) String(i int) string { return s[i].Label }
func (s labelSource) Len() int            { return len(s) }

func (s FuzzySource) Complete(query string) []node.PopupItem {
	if query == "" {
		return append([]node.PopupItem(nil), s.Items...)
	}
	matches := fuzzy.FindFrom(query, labelSource(s.Items))
	items := make([]node.PopupItem, len(matches))
	for i, m := range matches {
		items[i] = s.Items[m.Index]
	}
	return items
}

// DefaultMaxVisible is the number of rows a CompletionPopup shows when
// MaxVisible is unset.
const DefaultMaxVisible = 8

// CompletionPopup is a selection list fed by a CompletionSource. While open
// it takes up, down, tab, enter and escape; everything else is left for the
// input underneath.
type CompletionPopup struct {
	Source     CompletionSource
	MaxVisible int

	SelectedStyle   node.Style
	UnselectedStyle node.Style

	// OnSelect is called with the chosen item when tab or enter is pressed.
	// The popup closes first.
	OnSelect func(item node.PopupItem)
	// OnDismiss is called when escape closes the popup.
	OnDismiss func()

	query    string
	items    []node.PopupItem
	selected int
	offset   int
	open     bool
}

// NewCompletionPopup creates a closed popup over src.
func NewCompletionPopup(src CompletionSource) *CompletionPopup {
	return &CompletionPopup{Source: src, MaxVisible: DefaultMaxVisible}
}

// SetQuery recomputes the candidates. The popup opens if there are any and
// closes otherwise.
func (p *CompletionPopup) SetQuery(query string) {
	p.query = query
	p.items = p.Source.Complete(query)
	p.selected = 0
	p.offset = 0
	p.open = len(p.items) > 0
}

func (p *CompletionPopup) Query() string { return p.query }

func (p *CompletionPopup) IsOpen() bool { return p.open }

func (p *CompletionPopup) Items() []node.PopupItem { return p.items }

// Selected returns the highlighted item.
func (p *CompletionPopup) Selected() (node.PopupItem, bool) {
	if !p.open || p.selected >= len(p.items) {
		return node.PopupItem{}, false
	}
	return p.items[p.selected], true
}

// Close hides the popup without calling any callback.
func (p *CompletionPopup) Close() {
	p.open = false
}

func (p *CompletionPopup) maxVisible() int {
	if p.MaxVisible <= 0 {
		return DefaultMaxVisible
	}
	return p.MaxVisible
}

func (p *CompletionPopup) move(delta int) {
	n := len(p.items)
	if n == 0 {
		return
	}
	p.selected = ((p.selected+delta)%n + n) % n
	mv := p.maxVisible()
	if p.selected < p.offset {
		p.offset = p.selected
	}
	if p.selected >= p.offset+mv {
		p.offset = p.selected - mv + 1
	}
}

// HandleEvent navigates and accepts while the popup is open.
func (p *CompletionPopup) HandleEvent(ev uv.Event) layer.Result {
	kp, ok := ev.(uv.KeyPressEvent)
	if !ok || !p.open {
		return layer.Ignored
	}
	k := uv.Key(kp)
	switch {
	case k.Code == uv.KeyUp, ctrl(k, 'p'):
		p.move(-1)
	case k.Code == uv.KeyDown, ctrl(k, 'n'):
		p.move(1)
	case k.Code == uv.KeyTab && k.Mod == uv.ModShift:
		p.move(-1)
	case k.Code == uv.KeyTab, k.Code == uv.KeyEnter:
		item, ok := p.Selected()
		p.open = false
		if ok && p.OnSelect != nil {
			p.OnSelect(item)
		}
	case k.Code == uv.KeyEscape:
		p.open = false
		if p.OnDismiss != nil {
			p.OnDismiss()
		}
	default:
		return layer.Ignored
	}
	return layer.Consumed
}

// View returns the popup node, or Empty when closed.
func (p *CompletionPopup) View() node.Node {
	if !p.open {
		return node.Empty{}
	}
	return node.Popup{
		Items:           p.items,
		Selected:        p.selected,
		ViewportOffset:  p.offset,
		MaxVisible:      p.maxVisible(),
		SelectedStyle:   p.SelectedStyle,
		UnselectedStyle: p.UnselectedStyle,
	}
}
