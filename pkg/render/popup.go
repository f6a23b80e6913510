package render

import (
	"strings"
	"unicode/utf8"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/node"
)

const (
	selectedMarker   = " ▸ "
	unselectedMarker = "   "

	// minDescriptionWidth is the least room a description needs before it
	// is shown at all.
	minDescriptionWidth = 10
)

// popupLines formats the visible rows of p for a popup width columns wide.
// Each row is padded to width-1 columns.
func popupLines(p node.Popup, width int) []string {
	inner := width - 2
	if inner <= 0 {
		return nil
	}

	start := min(max(0, p.ViewportOffset), len(p.Items))
	end := min(start+max(0, p.MaxVisible), len(p.Items))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		item := p.Items[i]
		st := p.UnselectedStyle
		head := unselectedMarker
		if i == p.Selected {
			st = p.SelectedStyle
			head = selectedMarker
		}
		if item.Kind != "" {
			head += item.Kind + " "
		}

		maxLabel := inner - ansitext.VisibleWidth(head) - 2
		label := item.Label
		if maxLabel > 4 && utf8.RuneCountInString(label) > maxLabel {
			label = ansitext.TruncateToChars(label, maxLabel)
		}
		head += label
		headW := ansitext.VisibleWidth(head)

		if item.Description != "" {
			if avail := inner - headW - 3; avail > minDescriptionWidth {
				desc := ansitext.TruncateToChars(item.Description, avail)
				pad := max(0, inner-headW-2-ansitext.VisibleWidth(desc))
				lines = append(lines,
					st.Apply(head+"  ")+
						st.Merge(node.Style{Dim: true}).Apply(desc+strings.Repeat(" ", pad)+" "))
				continue
			}
		}

		lines = append(lines, st.Apply(head+strings.Repeat(" ", max(0, inner-headW))+" "))
	}
	return lines
}
