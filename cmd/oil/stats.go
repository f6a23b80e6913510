package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vito/oil/pkg/ioctx"
	"github.com/vito/oil/pkg/output"
)

func statsCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Summarize a render stats log",
		Long: `Stats reads the JSONL log written by --debug-log (or render.debug_log in
oil.toml) and prints frame counts, timing percentiles and repaint volume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			records, err := readStats(f)
			if err != nil {
				return errors.Wrap(err, args[0])
			}
			if len(records) == 0 {
				return errors.Errorf("%s: no stats records", args[0])
			}
			_, err = fmt.Fprintln(ioctx.StdoutFromContext(cmd.Context()), summarize(records).Table())
			return err
		},
	}
}

// readStats decodes one record per line. Lines that are not JSON objects
// are skipped, so a log that is still being written can be read.
func readStats(r io.Reader) ([]output.StatsRecord, error) {
	var records []output.StatsRecord
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		data := scanner.Bytes()
		if !json.Valid(data) {
			slog.Debug("skipping invalid stats line", "line", line)
			continue
		}
		var rec output.StatsRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}

type statsSummary struct {
	Frames   int
	Written  int
	Skipped  int
	Forced   int
	Overlays int

	Total     percentiles
	Diff      percentiles
	Write     percentiles
	Composite percentiles
	Bytes     percentiles

	Repainted  int
	CacheHits  int
	MaxDropped int
	MaxMoveUp  int
}

type percentiles struct {
	P50, P95, Max int64
}

func percentilesOf(vals []int64) percentiles {
	if len(vals) == 0 {
		return percentiles{}
	}
	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	at := func(p int) int64 {
		return sorted[(len(sorted)-1)*p/100]
	}
	return percentiles{P50: at(50), P95: at(95), Max: sorted[len(sorted)-1]}
}

func summarize(records []output.StatsRecord) statsSummary {
	var (
		s                                   statsSummary
		total, diff, write, composite, size []int64
	)
	s.Frames = len(records)
	for _, r := range records {
		total = append(total, r.TotalUs)
		if r.Skipped {
			s.Skipped++
		} else {
			s.Written++
			diff = append(diff, r.DiffUs)
			write = append(write, r.WriteUs)
			size = append(size, int64(r.BytesWritten))
		}
		if r.Forced {
			s.Forced++
		}
		if r.OverlayCount > 0 {
			s.Overlays++
			composite = append(composite, r.CompositeUs)
		}
		s.Repainted += r.LinesRepainted
		s.CacheHits += r.CacheHits
		s.MaxDropped = max(s.MaxDropped, r.DroppedLines)
		s.MaxMoveUp = max(s.MaxMoveUp, r.MoveUp)
	}
	s.Total = percentilesOf(total)
	s.Diff = percentilesOf(diff)
	s.Write = percentilesOf(write)
	s.Composite = percentilesOf(composite)
	s.Bytes = percentilesOf(size)
	return s
}

// CacheHitRate is the share of compared lines that matched the previous
// frame.
func (s statsSummary) CacheHitRate() float64 {
	if s.CacheHits+s.Repainted == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.CacheHits+s.Repainted)
}

func (s statsSummary) Table() string {
	itoa := strconv.Itoa
	us := func(p percentiles) []string {
		return []string{fmtUs(p.P50), fmtUs(p.P95), fmtUs(p.Max)}
	}
	rows := [][]string{
		{"frames", itoa(s.Frames), "", ""},
		{"written", itoa(s.Written), "", ""},
		{"skipped", itoa(s.Skipped), "", ""},
		{"forced", itoa(s.Forced), "", ""},
		{"with overlays", itoa(s.Overlays), "", ""},
		append([]string{"total"}, us(s.Total)...),
		append([]string{"diff"}, us(s.Diff)...),
		append([]string{"write"}, us(s.Write)...),
		append([]string{"composite"}, us(s.Composite)...),
		{"bytes", strconv.FormatInt(s.Bytes.P50, 10), strconv.FormatInt(s.Bytes.P95, 10), strconv.FormatInt(s.Bytes.Max, 10)},
		{"lines repainted", itoa(s.Repainted), "", ""},
		{"cache hit rate", fmt.Sprintf("%.1f%%", 100*s.CacheHitRate()), "", ""},
		{"max dropped lines", itoa(s.MaxDropped), "", ""},
		{"max move up", itoa(s.MaxMoveUp), "", ""},
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("", "value / p50", "p95", "max").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col > 0 {
				return cell.Align(lipgloss.Right)
			}
			return cell
		}).
		String()
}

func fmtUs(us int64) string {
	if us >= 1000 {
		return fmt.Sprintf("%.2fms", float64(us)/1000)
	}
	return fmt.Sprintf("%dµs", us)
}
