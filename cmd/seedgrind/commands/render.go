package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/niart120/seedgrind/internal/search"
)

// consumeEvents drives the terminal UI off the engine's event stream and
// returns once the terminal event arrives.
func consumeEvents(w io.Writer, eng *search.Coordinator, noColor bool) error {
	if noColor {
		color.NoColor = true
	}

	matchLine := color.New(color.FgGreen, color.Bold)

	var (
		results []search.Result
		last    search.Progress
	)

	for ev := range eng.Events() {
		switch e := ev.(type) {
		case search.Progress:
			last = e
			printProgress(w, e)

		case search.Result:
			results = append(results, e)
			matchLine.Fprintf(w, "\nmatch %08X at %s (timer0=0x%03X, vcount=0x%02X)\n",
				e.Seed, e.Time.Format("2006-01-02 15:04:05"), e.Timer0, e.VCount)

		case search.Completed:
			fmt.Fprintf(w, "\n%s\n", e.Message)
			renderUnits(w, last.Units)
			renderResults(w, results)

			return nil

		case search.Stopped:
			fmt.Fprintf(w, "\n%s\n", e.Message)
			renderUnits(w, last.Units)
			renderResults(w, results)

			return nil

		case search.Failed:
			fmt.Fprintln(w)
			renderUnits(w, last.Units)
			renderResults(w, results)

			return e.Err
		}
	}

	return nil
}

// renderUnits summarizes how far each unit got, which matters most after a
// stop or a partial failure.
func renderUnits(w io.Writer, units []search.UnitProgress) {
	if len(units) == 0 {
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Unit", "Status", "Hashed", "Of", "Matches"})

	for _, u := range units {
		tw.AppendRow(table.Row{
			u.UnitID,
			string(u.Status),
			humanize.Comma(int64(u.CurrentStep)),
			humanize.Comma(int64(u.TotalSteps)),
			u.MatchesFound,
		})
	}

	tw.Render()
}

func printProgress(w io.Writer, p search.Progress) {
	var percent float64
	if p.TotalSteps > 0 {
		percent = float64(p.CurrentStep) / float64(p.TotalSteps) * 100
	}

	fmt.Fprintf(w, "\r%6.2f%%  %s / %s hashed  matches=%d  active=%d  eta=%s   ",
		percent,
		humanize.Comma(int64(p.CurrentStep)),
		humanize.Comma(int64(p.TotalSteps)),
		p.MatchesFound,
		p.ActiveUnits,
		formatETA(p.EstimatedRemaining))
}

func formatETA(d time.Duration) string {
	if d <= 0 {
		return "-"
	}

	return d.Round(time.Second).String()
}

func renderResults(w io.Writer, results []search.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "no matches")

		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Seed", "Date/Time (UTC)", "Timer0", "VCount", "Digest"})

	for i, r := range results {
		tw.AppendRow(table.Row{
			i + 1,
			fmt.Sprintf("%08X", r.Seed),
			r.Time.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("0x%03X", r.Timer0),
			fmt.Sprintf("0x%02X", r.VCount),
			r.DigestHex,
		})
	}

	tw.Render()
}
