// Package render writes fleet views to a terminal. Colors are applied only
// when the destination supports them; a pipe or buffer gets plain text.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"fleetbench/internal/fleet"
	"fleetbench/internal/model"
)

const (
	keyColor   = lipgloss.Color("6")
	valueColor = lipgloss.Color("2")
	dimColor   = lipgloss.Color("8")
)

// KeyValues prints one "key :: value" line per pair with keys padded to
// the longest key. A note whose key already appears replaces that value;
// other notes are appended.
func KeyValues(w io.Writer, pairs []model.KeyValue, notes ...model.KeyValue) error {
	lines := mergeNotes(pairs, notes)
	width := 0
	for _, kv := range lines {
		width = max(width, lipgloss.Width(kv.Key))
	}

	r := lipgloss.NewRenderer(w)
	keyStyle := r.NewStyle().Foreground(keyColor)
	valStyle := r.NewStyle().Foreground(valueColor)
	for _, kv := range lines {
		padded := kv.Key + strings.Repeat(" ", width-lipgloss.Width(kv.Key))
		if _, err := fmt.Fprintf(w, "%s :: %s\n", keyStyle.Render(padded), valStyle.Render(kv.Value)); err != nil {
			return err
		}
	}
	return nil
}

func mergeNotes(pairs, notes []model.KeyValue) []model.KeyValue {
	out := append([]model.KeyValue(nil), pairs...)
	for _, n := range notes {
		replaced := false
		for i := range out {
			if out[i].Key == n.Key {
				out[i].Value = n.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, n)
		}
	}
	return out
}

// Host prints a host snapshot with byte counts humanized.
func Host(w io.Writer, h model.HostSnapshot, notes ...model.KeyValue) error {
	pairs := h.KeyValues()
	for i, kv := range pairs {
		if !isByteKey(kv.Key) {
			continue
		}
		if n, err := strconv.ParseUint(kv.Value, 10, 64); err == nil {
			pairs[i].Value = humanize.IBytes(n)
		}
	}
	return KeyValues(w, pairs, notes...)
}

func isByteKey(key string) bool {
	switch key {
	case "Total Memory", "Used Memory", "Total Swap", "Used Swap":
		return true
	}
	return strings.HasSuffix(key, " Free Space")
}

// Index prints each endpoint's slot span followed by the fleet totals.
func Index(w io.Writer, idx fleet.GlobalCoreIndex) error {
	rows := [][]string{{"ADDRESS", "SLOTS", "CORES"}}
	for _, s := range idx.Spans() {
		rows = append(rows, []string{
			s.Address.String(),
			fmt.Sprintf("[%d, %d)", s.Start, s.End),
			humanize.Comma(int64(s.Len())),
		})
	}
	if err := table(w, rows); err != nil {
		return err
	}
	sum := idx.Summary()
	_, err := fmt.Fprintf(w, "\n%s endpoints, %s virtual cores, %s indexed slots\n",
		humanize.Comma(int64(sum.TotalEndpoints)),
		humanize.Comma(int64(sum.TotalVirtualCores)),
		humanize.Comma(int64(idx.Len())))
	return err
}

// Ranking prints samples in the order given.
func Ranking(w io.Writer, ranking []fleet.RankedSample) error {
	rows := [][]string{{"#", "ADDRESS", "HOSTNAME", "CORES", "RESULT"}}
	for i, s := range ranking {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.Address.String(),
			s.Hostname,
			strconv.FormatUint(uint64(s.Sample.Cores), 10),
			FormatResult(s.Sample.Result),
		})
	}
	return table(w, rows)
}

func Leaderboard(w io.Writer, lb fleet.Leaderboard) error {
	rows := [][]string{{"#", "ADDRESS", "HOSTNAME", "CORES", "BEST"}}
	for i, e := range lb {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Address.String(),
			e.Hostname,
			strconv.FormatUint(uint64(e.Sample.Cores), 10),
			FormatResult(e.Sample.Result),
		})
	}
	return table(w, rows)
}

// Extrema prints the min and max sample of every report, then the fleet
// wide extremes. Reports without samples are listed with dashes.
func Extrema(w io.Writer, reports []model.EndpointReport) error {
	rows := [][]string{{"ADDRESS", "HOSTNAME", "MIN", "MAX"}}
	for _, r := range reports {
		ex, ok := fleet.PerEndpointExtrema(r)
		if !ok {
			rows = append(rows, []string{r.Address.String(), r.Hostname, "-", "-"})
			continue
		}
		rows = append(rows, []string{r.Address.String(), r.Hostname, formatSample(ex.Min), formatSample(ex.Max)})
	}
	if err := table(w, rows); err != nil {
		return err
	}
	lo, hi, ok := fleet.FleetExtrema(reports)
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nfleet min %s on %s, max %s on %s\n",
		formatSample(lo.Sample), lo.Address, formatSample(hi.Sample), hi.Address)
	return err
}

// FormatResult prints the shortest representation that round-trips.
func FormatResult(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatSample(s model.BenchmarkSample) string {
	return FormatResult(s.Result) + " @" + strconv.FormatUint(uint64(s.Cores), 10)
}

// table left-aligns columns two spaces apart. The first row is the header.
func table(w io.Writer, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true)
	body := r.NewStyle()
	dim := r.NewStyle().Foreground(dimColor)

	for n, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			style := body
			switch {
			case n == 0:
				style = header
			case i == 0:
				style = dim
			}
			padded := cell
			if i < len(row)-1 {
				padded += strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2)
			}
			b.WriteString(style.Render(padded))
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
