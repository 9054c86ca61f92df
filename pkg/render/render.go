// Package render prints a reconciled day as a colored terminal timeline.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/dayrec-dev/dayrec/pkg/dayrec"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
	"github.com/dayrec-dev/dayrec/pkg/verify"
)

// categoryColors maps event categories to display colors. Categories not
// listed render plain.
var categoryColors = map[timeline.Category]*color.Color{
	timeline.CategoryWork:    color.New(color.FgBlue),
	timeline.CategoryMeeting: color.New(color.FgBlue),
	timeline.CategoryHealth:  color.New(color.FgGreen),
	timeline.CategoryMeal:    color.New(color.FgYellow),
	timeline.CategorySleep:   color.New(color.FgMagenta),
	timeline.CategoryDigital: color.New(color.FgRed),
	timeline.CategoryTravel:  color.New(color.FgCyan),
	timeline.CategoryFree:    color.New(color.FgHiBlack),
	timeline.CategoryUnknown: color.New(color.FgHiBlack),
}

var statusColors = map[verify.Status]*color.Color{
	verify.StatusVerified:          color.New(color.FgGreen),
	verify.StatusMostlyVerified:    color.New(color.FgGreen),
	verify.StatusPartiallyVerified: color.New(color.FgYellow),
	verify.StatusPartial:           color.New(color.FgYellow),
	verify.StatusUnverified:        color.New(color.FgHiBlack),
	verify.StatusContradicted:      color.New(color.FgRed),
	verify.StatusDistracted:        color.New(color.FgRed),
	verify.StatusEarly:             color.New(color.FgYellow),
	verify.StatusLate:              color.New(color.FgYellow),
	verify.StatusShortened:         color.New(color.FgYellow),
	verify.StatusExtended:          color.New(color.FgYellow),
}

// Clock formats day minutes as HH:MM.
func Clock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	if minutes > 1440 {
		minutes = 1440
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Day writes the resolved timeline with per-event verdicts to w.
func Day(w io.Writer, res *dayrec.DayResult) {
	bold := color.New(color.Bold)
	fmt.Fprintf(w, "%s %s\n\n", bold.Sprint("Day:"), res.Day)

	for _, e := range res.Timeline {
		c, exists := categoryColors[e.Category]
		if !exists {
			c = color.New(color.Reset)
		}
		fmt.Fprintf(w, "  %s-%s  %s",
			Clock(e.Interval.StartMinutes), Clock(e.Interval.End()),
			c.Sprintf("%-28s", truncate(e.Title, 28)))

		if v, exists := res.Verdicts[e.ID]; exists {
			sc, ok := statusColors[v.Status]
			if !ok {
				sc = color.New(color.Reset)
			}
			fmt.Fprintf(w, " %s (%.0f%%)", sc.Sprint(string(v.Status)), v.Confidence*100)
		}
		fmt.Fprintln(w)

		if e.Description != "" {
			fmt.Fprintf(w, "              %s\n", color.New(color.FgHiBlack).Sprint(truncate(e.Description, 70)))
		}
	}

	printDiscrepancies(w, res)
}

func printDiscrepancies(w io.Writer, res *dayrec.DayResult) {
	ids := make([]string, 0, len(res.Verdicts))
	for id := range res.Verdicts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	printed := false
	for _, id := range ids {
		v := res.Verdicts[id]
		for _, d := range v.Report.Discrepancies {
			if !printed {
				fmt.Fprintf(w, "\n%s\n", color.New(color.Bold).Sprint("Discrepancies:"))
				printed = true
			}
			fmt.Fprintf(w, "  - [%s] %s %s: expected %s, got %s\n", d.Severity, id, d.Type, d.Expected, d.Actual)
		}
		for _, s := range v.Suggestions {
			fmt.Fprintf(w, "    %s %s\n", color.New(color.FgCyan).Sprint("tip:"), s)
		}
	}
}

// Summary writes a model-generated day recap.
func Summary(w io.Writer, s *dayrec.DaySummary) {
	if s == nil {
		return
	}
	fmt.Fprintf(w, "\n%s\n  %s\n", color.New(color.Bold).Sprint("Recap:"), s.Summary)
	for _, h := range s.Highlights {
		fmt.Fprintf(w, "  %s %s\n", color.New(color.FgGreen).Sprint("+"), h)
	}
	for _, sug := range s.Suggestions {
		fmt.Fprintf(w, "  %s %s\n", color.New(color.FgCyan).Sprint(">"), sug)
	}
}

// truncate shortens s to at most n runes, never splitting a multibyte
// character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
