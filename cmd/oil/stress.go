package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/vito/oil/pkg/config"
	"github.com/vito/oil/pkg/ioctx"
	"github.com/vito/oil/pkg/node"
	"github.com/vito/oil/pkg/output"
	"github.com/vito/oil/pkg/render"
	"github.com/vito/oil/pkg/widget"
)

const stressHelp = " v=verbose c=color a/A=append d=delete o=overlay s=spinner r=force 1-9/0=continuous q=quit "

func stressCmd(opts *Options) *cobra.Command {
	var (
		lines  int
		frames int
		width  int
		height int
		seed   uint64
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Exercise every rendering path with a large scrolling log",
		Long: `Stress shows a large log with hotkeys that hit every path through the
diff renderer: off-screen changes, style-only changes, appends, deletes,
overlays, spinners, forced redraws and continuous single-line repaints.

Render stats are always recorded; summarize them with oil stats.

With --frames, no terminal is used: that many randomized frames are
rendered into a discarded buffer and a summary is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *opts.Config
			if cfg.Render.DebugLog == "" {
				cfg.Render.DebugLog = filepath.Join(os.TempDir(), "oil-render-stats.jsonl")
			}
			stderr := ioctx.StderrFromContext(cmd.Context())
			fmt.Fprintf(stderr, "Render stats → %s\n", cfg.Render.DebugLog)
			fmt.Fprintf(stderr, "Run 'oil stats %s' for a summary.\n", cfg.Render.DebugLog)

			rng := rand.New(rand.NewPCG(seed, seed))
			if frames > 0 {
				w, h := width, height
				if w <= 0 {
					w = 80
				}
				if h <= 0 {
					h = 24
				}
				return runStressHeadless(ioctx.StdoutFromContext(cmd.Context()), &cfg, rng, lines, frames, w, h)
			}
			return runStress(cmd.Context(), &cfg, rng, lines)
		},
	}
	cmd.Flags().IntVar(&lines, "lines", 200, "Initial number of log lines")
	cmd.Flags().IntVar(&frames, "frames", 0, "Render this many randomized frames without a terminal")
	cmd.Flags().IntVarP(&width, "width", "w", 0, "Viewport width for --frames (default 80)")
	cmd.Flags().IntVar(&height, "height", 0, "Viewport height for --frames (default 24)")
	cmd.Flags().Uint64Var(&seed, "seed", uint64(time.Now().UnixNano()), "Random seed")
	return cmd
}

type stressEntry struct {
	ts      time.Time
	level   string
	message string
	detail  string
}

// stressLog is the scrolling log. It is only touched on the session
// goroutine.
type stressLog struct {
	rng      *rand.Rand
	entries  []stressEntry
	verbose  bool
	colorize bool
	overlay  bool
	status   string
}

var (
	stressLevels  = []string{"INFO", "DEBUG", "WARN", "ERROR", "TRACE"}
	stressModules = []string{"oil.render", "oil.diff", "oil.overlay", "oil.input", "oil.cursor",
		"oil.layout", "oil.layer", "oil.widget", "oil.term", "oil.template"}
	stressMessages = []string{
		"processing request",
		"cache miss for key",
		"connection established",
		"rendering frame",
		"overlay composited",
		"differential update applied",
		"node tree walked",
		"escape sequence generated",
		"viewport clamped",
		"cursor repositioned",
		"event routed to layer",
		"focus changed",
		"style computation completed",
		"width calculation for line",
		"ANSI truncation applied",
	}
	stressFrames = []string{
		"main.run", "render.Render", "layout.Compute",
		"overlay.CompositeLineAt", "ansitext.TruncateToWidth", "output.(*Buffer).Render",
		"runtime.goexit", "layer.Stack.RouteEvent", "term.(*ProcessTerminal).readInput",
	}
)

func newStressLog(rng *rand.Rand, n int) *stressLog {
	l := &stressLog{rng: rng, status: stressHelp}
	base := time.Now().Add(-time.Duration(n) * 100 * time.Millisecond)
	for i := range n {
		l.entries = append(l.entries, l.randomEntry(base.Add(time.Duration(i)*100*time.Millisecond)))
	}
	return l
}

func (l *stressLog) pick(xs []string) string {
	return xs[l.rng.IntN(len(xs))]
}

func (l *stressLog) randomEntry(ts time.Time) stressEntry {
	n := 2 + l.rng.IntN(3)
	stack := make([]string, n)
	for i := range stack {
		stack[i] = l.pick(stressFrames)
	}
	return stressEntry{
		ts:    ts,
		level: l.pick(stressLevels),
		message: fmt.Sprintf("[%s] %s id=%d latency=%dµs",
			l.pick(stressModules), l.pick(stressMessages), l.rng.IntN(10000), l.rng.IntN(5000)),
		detail: fmt.Sprintf("         → stack: %s | goroutine: %d | alloc: %dKB",
			strings.Join(stack, " → "), l.rng.IntN(500), l.rng.IntN(8192)),
	}
}

func (l *stressLog) append(n int) {
	for range n {
		e := l.randomEntry(time.Now())
		e.message = fmt.Sprintf("[append] new line %d val=%d", len(l.entries), l.rng.IntN(99999))
		l.entries = append(l.entries, e)
	}
	l.status = fmt.Sprintf(" +%d lines appended ", n)
}

func (l *stressLog) delete(n int) {
	l.entries = l.entries[:max(0, len(l.entries)-n)]
	l.status = fmt.Sprintf(" deleted %d lines (now %d) ", n, len(l.entries))
}

// touch rewrites the message of entry i in place.
func (l *stressLog) touch(i int) {
	if i < len(l.entries) {
		l.entries[i].message = fmt.Sprintf("[continuous] tick %d latency=%dµs",
			time.Now().UnixMicro()%100000, l.rng.IntN(5000))
	}
}

var levelColors = map[string]string{
	"ERROR": "red",
	"WARN":  "yellow",
	"DEBUG": "cyan",
	"TRACE": "bright-black",
	"INFO":  "green",
}

func (l *stressLog) View(spinner node.Node) node.Node {
	rows := make([]node.Node, 0, len(l.entries)*2+3)
	muted := node.Style{Fg: node.Named("bright-black")}
	for _, e := range l.entries {
		level := fmt.Sprintf("%-5s", e.level)
		if l.colorize {
			level = node.Style{Fg: node.Named(levelColors[e.level])}.Apply(level)
		}
		rows = append(rows, node.Text{
			Content: e.ts.Format("15:04:05.000") + " " + level + " " + e.message,
			Wrap:    node.WrapTruncate,
		})
		if l.verbose {
			detail := e.detail
			if l.colorize {
				detail = muted.Apply(detail)
			}
			rows = append(rows, node.Text{Content: detail, Wrap: node.WrapTruncate})
		}
	}
	if spinner != nil {
		rows = append(rows, spinner)
	}
	rows = append(rows, node.Text{
		Content: l.status,
		Style:   node.Style{Reverse: true},
		Wrap:    node.WrapTruncate,
	})
	if l.overlay {
		var items []node.Node
		for _, s := range []string{"container", "directory", "withExec", "withMountedDir", "stdout", "stderr", "file"} {
			items = append(items, node.TextNode(" "+s))
		}
		box := node.Col(append([]node.Node{node.Styled(" Completions", node.Style{Bold: true})}, items...)...).
			WithBorder(node.BorderRounded).
			WithSize(node.Fixed(22))
		rows = append(rows, node.Overlay{
			Child:      node.Row(box),
			FromBottom: 1,
		})
	}
	return node.Col(rows...)
}

func runStress(ctx context.Context, cfg *config.Config, rng *rand.Rand, lines int) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	s.ClearOnExit = true

	log := newStressLog(rng, lines)
	spinner := widget.NewSpinner("evaluating...", cfg.Spinner.Interval.Duration)
	spinner.Style = node.Style{Fg: node.Named("magenta")}

	var (
		spinning atomic.Bool
		target   atomic.Int64
	)
	target.Store(-1)

	s.View = func(width, height int) node.Node {
		var sp node.Node
		if spinning.Load() {
			sp = spinner.View()
		}
		return log.View(sp)
	}
	s.OnEvent = func(ev uv.Event) {
		kp, ok := ev.(uv.KeyPressEvent)
		if !ok {
			return
		}
		switch key := kp.Text; {
		case key == "q":
			s.Quit()
		case key == "v":
			log.verbose = !log.verbose
			log.status = fmt.Sprintf(" verbose %s (off-screen repaint) ", onOff(log.verbose))
		case key == "c":
			log.colorize = !log.colorize
			log.status = fmt.Sprintf(" color %s (style-only change on every line) ", onOff(log.colorize))
		case key == "a":
			log.append(10)
		case key == "A":
			log.append(100)
		case key == "d":
			log.delete(10)
		case key == "o":
			log.overlay = !log.overlay
			log.status = fmt.Sprintf(" overlay %s ", onOff(log.overlay))
		case key == "s":
			spinning.Store(!spinning.Load())
			log.status = fmt.Sprintf(" spinner %s (continuous repaints) ", onOff(spinning.Load()))
		case key == "r":
			log.status = " forced full redraw "
			s.ForceRedraw()
		case len(key) == 1 && key[0] >= '1' && key[0] <= '9':
			line := int(key[0]-'0') * 10
			target.Store(int64(line))
			log.status = fmt.Sprintf(" continuous repaint on line %d every 50ms (0 to stop) ", line)
		case key == "0":
			target.Store(-1)
			log.status = " continuous repaint stopped "
		}
	}

	s.Go(func(ctx context.Context) error {
		return spinner.Run(ctx, func() {
			if spinning.Load() {
				s.RequestRender()
			}
		})
	})
	s.Go(func(ctx context.Context) error {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if i := target.Load(); i >= 0 {
					s.Dispatch(func() {
						log.touch(int(i))
						s.RequestRender()
					})
				}
			}
		}
	})
	return s.Run(ctx)
}

// runStressHeadless renders frames randomized frames into a discarded
// buffer and prints a stats summary to w.
func runStressHeadless(w io.Writer, cfg *config.Config, rng *rand.Rand, lines, frames, width, height int) error {
	opts, closer, err := cfg.BufferOptions()
	if err != nil {
		return err
	}
	defer closer.Close()

	buf := output.New(io.Discard, width, height, opts...)
	log := newStressLog(rng, lines)
	spinner := widget.NewSpinner("evaluating...", cfg.Spinner.Interval.Duration)

	records := make([]output.StatsRecord, 0, frames)
	for i := range frames {
		var sp node.Node
		switch rng.IntN(10) {
		case 0:
			log.verbose = !log.verbose
		case 1:
			log.colorize = !log.colorize
		case 2:
			log.append(1 + rng.IntN(20))
		case 3:
			log.delete(rng.IntN(10))
		case 4:
			log.overlay = !log.overlay
		case 5:
			buf.ForceRedraw()
		case 6:
			sp = spinner.View()
		case 7, 8:
			log.touch(rng.IntN(max(1, len(log.entries))))
		}
		bw, bh := buf.Size()
		res := render.Render(log.View(sp), bw, bh)
		if _, err := buf.Render(res.Content(), 0, res.Overlays); err != nil {
			return err
		}
		if i%50 == 49 {
			buf.Resize(width-rng.IntN(10), height)
		}
		records = append(records, buf.LastStats().Record(time.Now()))
	}
	_, err = fmt.Fprintln(w, summarize(records).Table())
	return err
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
