package widget

import (
	"context"
	"time"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/vito/oil/pkg/layer"
	"github.com/vito/oil/pkg/node"
)

// DefaultSpinnerInterval is the frame duration used when none is given.
const DefaultSpinnerInterval = 80 * time.Millisecond

// Spinner picks its frame from the time elapsed since it was created, so
// every redraw shows the right frame no matter how often it happens.
type Spinner struct {
	Label  string
	Style  node.Style
	Frames []string

	interval time.Duration
	start    time.Time
	now      func() time.Time
}

// NewSpinner creates a spinner with the default braille frames.
func NewSpinner(label string, interval time.Duration) *Spinner {
	if interval <= 0 {
		interval = DefaultSpinnerInterval
	}
	return &Spinner{
		Label:    label,
		interval: interval,
		start:    time.Now(),
		now:      time.Now,
	}
}

// Interval returns the frame duration.
func (s *Spinner) Interval() time.Duration { return s.interval }

// Frame returns the number of whole intervals elapsed.
func (s *Spinner) Frame() int {
	return int(s.now().Sub(s.start) / s.interval)
}

func (s *Spinner) View() node.Node {
	return node.Spinner{
		Label:  s.Label,
		Frame:  s.Frame(),
		Frames: s.Frames,
		Style:  s.Style,
	}
}

// HandleEvent ignores everything; a spinner is not interactive.
func (s *Spinner) HandleEvent(uv.Event) layer.Result {
	return layer.Ignored
}

// Run calls tick once per interval until ctx is done.
func (s *Spinner) Run(ctx context.Context, tick func()) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			tick()
		case <-ctx.Done():
			return nil
		}
	}
}
