package output

import (
	"fmt"
	"io"
)

// MarkdownRenderer produces markdown output for documentation/tickets.
type MarkdownRenderer struct {
	w io.Writer
}

func (r *MarkdownRenderer) RenderSummary(s *Summary) {
	fmt.Fprintf(r.w, "# datasync — %s\n\n", s.Title)

	for _, section := range s.Sections {
		fmt.Fprintf(r.w, "## %s\n\n", section.Title)
		fmt.Fprintf(r.w, "| Property | Value |\n|---|---|\n")
		for _, lv := range section.Lines {
			fmt.Fprintf(r.w, "| %s | %s |\n", lv.Label, lv.Value)
		}
		fmt.Fprintln(r.w)
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintf(r.w, "## %s Warnings\n\n", IconWarning)
		for _, w := range s.Warnings {
			fmt.Fprintf(r.w, "- %s\n", w)
		}
		fmt.Fprintln(r.w)
	}

	statusEmoji := map[Status]string{
		StatusOK:       IconSafe,
		StatusDegraded: IconWarning,
		StatusFailed:   IconDanger,
	}
	fmt.Fprintf(r.w, "**Status:** %s %s\n", statusEmoji[s.Status], s.Status)
}
