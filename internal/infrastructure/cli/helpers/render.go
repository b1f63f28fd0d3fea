package helpers

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/doeshing/qa/internal/application/matching"
	"github.com/doeshing/qa/internal/domain"
)

// Theme colors (Flexoki Dark)
var (
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

// Styles
var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorTextMuted)
	valueStyle   = lipgloss.NewStyle().Foreground(ColorText)
	commandStyle = lipgloss.NewStyle().Foreground(ColorBlue)
	okStyle      = lipgloss.NewStyle().Foreground(ColorGreen)
	warnStyle    = lipgloss.NewStyle().Foreground(ColorOrange)
	failStyle    = lipgloss.NewStyle().Foreground(ColorRed)
)

// Now is the clock used for relative ages.
var Now = time.Now

func statusStyle(s domain.Status) lipgloss.Style {
	switch s {
	case domain.StatusSuccess:
		return okStyle
	case domain.StatusFail:
		return failStyle
	default:
		return warnStyle
	}
}

// Age renders the time since a record id was minted.
func Age(id int64) string {
	return humanize.RelTime(time.Unix(id, 0), Now(), "ago", "from now")
}

// RenderListings prints one line per record: id, glyph, age, preview.
func RenderListings(out io.Writer, listings []domain.Listing, empty string) {
	if len(listings) == 0 {
		fmt.Fprintln(out, labelStyle.Render(empty))
		return
	}
	for _, l := range listings {
		fmt.Fprintf(out, "%d %s %s %s\n",
			l.ID,
			statusStyle(l.Status).Render(l.Glyph),
			labelStyle.Render(fmt.Sprintf("%-14s", Age(l.ID))),
			valueStyle.Render(l.Preview))
	}
}

// RenderRecord prints every field of a record.
func RenderRecord(out io.Writer, rec domain.QueryRecord) {
	status := rec.Status()
	field := func(name, value string) {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", name+":")), value)
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Record %d", rec.ID)))
	field("created", fmt.Sprintf("%s (%s)", rec.CreatedAt().UTC().Format(domain.TimestampFormat), Age(rec.ID)))
	field("status", statusStyle(status).Render(status.Glyph()+" "+string(status)))
	field("query", valueStyle.Render(rec.Query))
	if rec.Command != "" {
		field("command", commandStyle.Render(rec.Command))
	}
	if rec.Result != nil {
		field("exit", fmt.Sprintf("%d at %s", rec.Result.ExitCode, rec.Result.Time.UTC().Format(domain.TimestampFormat)))
	}
	if len(rec.Meta) > 0 {
		fmt.Fprintln(out, labelStyle.Render("meta:"))
		for _, p := range rec.Meta {
			fmt.Fprintf(out, "  %s\n", p.String())
		}
	}
	if rec.Result != nil && rec.Result.Output != "" {
		fmt.Fprintln(out, labelStyle.Render("output:"))
		fmt.Fprint(out, rec.Result.Output)
		if !strings.HasSuffix(rec.Result.Output, "\n") {
			fmt.Fprintln(out)
		}
	}
}

// RenderResolution describes where a command came from, then the command.
func RenderResolution(out io.Writer, res domain.Resolution) {
	var origin string
	switch res.Source {
	case domain.SourceTemplate:
		origin = fmt.Sprintf("template match on %d (%s)", res.PrevID, FormatBindings(res.Bindings))
	case domain.SourceSimilar:
		origin = fmt.Sprintf("similar to %d (score %d)", res.PrevID, res.Score)
	case domain.SourceScanSpec:
		origin = "scan spec"
	default:
		origin = "generated"
	}
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render(fmt.Sprintf("[%d]", res.ID)), labelStyle.Render(origin))
	fmt.Fprintln(out, commandStyle.Render(res.Command))
}

// FormatBindings renders bindings as sorted name=value pairs.
func FormatBindings(bindings map[string]string) string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+bindings[name])
	}
	return strings.Join(parts, " ")
}

// RenderRanked prints a similarity ranking.
func RenderRanked(out io.Writer, ranked []matching.Ranked) {
	if len(ranked) == 0 {
		fmt.Fprintln(out, labelStyle.Render("No similar queries."))
		return
	}
	for _, r := range ranked {
		fmt.Fprintf(out, "%s %d %s\n",
			headerStyle.Render(fmt.Sprintf("%3d%%", r.Score)),
			r.ID,
			valueStyle.Render(domain.Preview(r.Query, domain.PreviewLimit)))
	}
}

// RenderStats prints aggregate counts.
func RenderStats(out io.Writer, s domain.Stats) {
	row := func(name string, n int, style lipgloss.Style) {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", name)), style.Render(humanize.Comma(int64(n))))
	}
	row("total", s.Total, valueStyle)
	row("success", s.Success, okStyle)
	row("fail", s.Fail, failStyle)
	row("pending", s.Pending, warnStyle)
	row("cached", s.Cached, valueStyle)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", "hit rate")), valueStyle.Render(fmt.Sprintf("%.1f%%", s.HitRate())))
}

// RenderHealth prints doctor checks.
func RenderHealth(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		style := okStyle
		switch check.Status {
		case domain.HealthWarn:
			style = warnStyle
		case domain.HealthError:
			style = failStyle
		}
		fmt.Fprintf(out, "%s %s - %s\n",
			style.Render(fmt.Sprintf("[%s]", strings.ToUpper(string(check.Status)))),
			check.Name,
			check.Details)
	}
}

// RenderRules prints the merged rule set.
func RenderRules(out io.Writer, set domain.RuleSet) {
	text := set.Format()
	if text == "" {
		fmt.Fprintln(out, labelStyle.Render("No rules."))
		return
	}
	fmt.Fprint(out, text)
}
