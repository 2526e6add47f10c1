package output

import (
	"fmt"
	"io"
)

// PlainRenderer produces unformatted text output safe for piping.
type PlainRenderer struct {
	w io.Writer
}

func (r *PlainRenderer) RenderSummary(s *Summary) {
	fmt.Fprintf(r.w, "=== datasync — %s ===\n\n", s.Title)

	for _, section := range s.Sections {
		fmt.Fprintf(r.w, "--- %s ---\n", section.Title)
		for _, lv := range section.Lines {
			fmt.Fprintf(r.w, "%-20s%s\n", lv.Label+":", lv.Value)
		}
		fmt.Fprintln(r.w)
	}

	for _, w := range s.Warnings {
		fmt.Fprintf(r.w, "WARNING: %s\n", w)
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintln(r.w)
	}

	fmt.Fprintf(r.w, "Status: %s\n", s.Status)
}
