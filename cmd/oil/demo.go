package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/vito/oil/pkg/ansitext"
	"github.com/vito/oil/pkg/config"
	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/widget"
)

func demoCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Try the input, completion popup, spinner and modal widgets",
		Long: `Demo is a small prompt built from the widget package. Type / to open the
command popup; /rename opens a bubbletea text input as a modal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(opts.Config)
			if err != nil {
				return err
			}
			defer s.Close()
			newDemo(s, opts.Config)
			return s.Run(cmd.Context())
		},
	}
}

var demoCommands = []node.PopupItem{
	{Label: "/help", Kind: "cmd", Description: "list commands"},
	{Label: "/clear", Kind: "cmd", Description: "forget the transcript"},
	{Label: "/rename", Kind: "cmd", Description: "rename the session in a modal"},
	{Label: "/spin", Kind: "cmd", Description: "toggle the spinner"},
	{Label: "/quit", Kind: "cmd", Description: "exit"},
}

// demo is the state behind oil demo. Everything except spinning is
// touched only on the session goroutine.
type demo struct {
	s   *session
	cfg *config.Config

	input   *widget.TextInput
	popup   *widget.CompletionPopup
	spinner *widget.Spinner
	modal   *widget.Modal[namePrompt]

	name       string
	transcript []node.Node
	spinning   atomic.Bool
}

func newDemo(s *session, cfg *config.Config) *demo {
	d := &demo{
		s:    s,
		cfg:  cfg,
		name: "oil",
	}

	d.popup = widget.NewCompletionPopup(widget.FuzzySource{Items: demoCommands})
	d.popup.MaxVisible = cfg.Popup.MaxVisible
	d.popup.SelectedStyle = cfg.Accent().Merge(node.Style{Reverse: true})
	d.popup.UnselectedStyle = cfg.Muted()
	d.popup.OnSelect = func(item node.PopupItem) {
		d.input.SetValue(item.Label)
	}

	d.input = widget.NewTextInput("> ")
	d.input.PromptStyle = cfg.Accent()
	d.input.Placeholder = "type a message or / for commands"
	d.input.SetFocused(true)
	d.input.OnChange = d.complete
	d.input.OnSubmit = d.submit

	d.spinner = widget.NewSpinner("working...", cfg.Spinner.Interval.Duration)
	d.spinner.Style = cfg.Accent()

	s.View = d.View
	s.Layers = d.Layers
	s.OnEvent = func(ev uv.Event) {
		d.input.HandleEvent(ev)
	}
	s.Go(func(ctx context.Context) error {
		return d.spinner.Run(ctx, func() {
			if d.spinning.Load() {
				s.RequestRender()
			}
		})
	})
	return d
}

// Layers gives the modal every event while it is open and the popup the
// navigation keys while it is open.
func (d *demo) Layers() layer.Stack {
	stack := layer.Stack{Popup: d.popup, Modal: d.modal}
	if d.popup.IsOpen() {
		stack.Focus = layer.FocusPopup
	}
	return stack
}

func (d *demo) complete(value string) {
	if strings.HasPrefix(value, "/") && !strings.Contains(value, " ") {
		d.popup.SetQuery(value)
	} else {
		d.popup.Close()
	}
}

func (d *demo) say(lines ...node.Node) {
	d.transcript = append(d.transcript, node.Static{
		Key:      strconv.Itoa(len(d.transcript)),
		Children: lines,
	})
}

func (d *demo) submit(value string) bool {
	d.popup.Close()
	if value == "" {
		return true
	}
	switch value {
	case "/help":
		var lines []node.Node
		for _, c := range demoCommands {
			lines = append(lines, node.Row(
				node.Col(node.Styled(c.Label, d.cfg.Accent())).WithSize(node.Fixed(10)),
				node.Styled(c.Description, d.cfg.Muted()),
			))
		}
		d.say(lines...)
	case "/clear":
		d.transcript = nil
	case "/rename":
		d.openRename()
	case "/spin":
		d.spinning.Store(!d.spinning.Load())
	case "/quit":
		d.s.Quit()
	default:
		if strings.HasPrefix(value, "/") {
			d.say(node.Styled("unknown command "+value, d.cfg.Error()))
			break
		}
		words := len(strings.Fields(value))
		d.say(
			node.Row(node.Styled(d.name+": ", d.cfg.Accent()), node.TextNode(value)),
			node.Styled(fmt.Sprintf("%d words, %d columns", words, ansitext.VisibleWidth(value)), d.cfg.Muted()),
		)
	}
	return true
}

func (d *demo) openRename() {
	ti := textinput.New()
	ti.Placeholder = "session name"
	ti.SetValue(d.name)
	_ = ti.Focus()

	prompt := namePrompt{input: ti, done: d.renamed}
	d.modal = widget.NewModal(prompt, func(fn func()) {
		d.s.Dispatch(func() {
			fn()
			d.s.RequestRender()
		})
	})
	d.modal.OnQuit(func() {
		d.modal = nil
	})
}

// renamed runs inside the modal's Update, so it must not call back into
// the modal.
func (d *demo) renamed(name string) {
	if name != "" && name != d.name {
		d.say(node.Styled(fmt.Sprintf("renamed %s to %s", d.name, name), d.cfg.Muted()))
		d.name = name
	}
	d.modal = nil
}

func (d *demo) View(width, height int) node.Node {
	root := node.Col(node.Fragment{Children: d.transcript})
	if d.spinning.Load() {
		root.Children = append(root.Children, d.spinner.View())
	}
	if d.modal != nil {
		d.modal.SetSize(max(0, width-4), 1)
		root.Children = append(root.Children,
			node.Col(d.modal.View()).
				WithBorder(node.BorderRounded).
				WithPadding(node.PadXY(1, 0)).
				WithStyle(d.cfg.Accent()),
		)
	} else {
		root.Children = append(root.Children, node.Focusable{ID: "prompt", Child: d.input.View()})
	}
	root.Children = append(root.Children, node.Styled(
		fmt.Sprintf("%s  /help for commands  ctrl+c quits", d.name),
		d.cfg.Muted(),
	))
	if d.popup.IsOpen() {
		root.Children = append(root.Children, node.Overlay{Child: d.popup.View(), FromBottom: 2})
	}
	return root
}

// namePrompt is a bubbletea model: a bubbles text input that reports the
// entered name on enter and quits on escape.
type namePrompt struct {
	input textinput.Model
	done  func(name string)
}

func (p namePrompt) Update(msg tea.Msg) (namePrompt, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "enter":
			p.done(strings.TrimSpace(p.input.Value()))
			return p, nil
		case "esc":
			return p, tea.Quit
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p namePrompt) View() string {
	return "Rename session\n" + p.input.View() + "\nenter saves, esc cancels"
}
