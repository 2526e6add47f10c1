package output

import (
	"io"

	"github.com/goccy/go-json"
)

// JSONRenderer produces machine-readable JSON output.
type JSONRenderer struct {
	w io.Writer
}

type jsonSection struct {
	Title string            `json:"title"`
	Lines map[string]string `json:"lines"`
}

type jsonSummary struct {
	Title    string        `json:"title"`
	Status   string        `json:"status"`
	Sections []jsonSection `json:"sections,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

func (r *JSONRenderer) RenderSummary(s *Summary) {
	out := jsonSummary{
		Title:    s.Title,
		Status:   string(s.Status),
		Warnings: s.Warnings,
	}
	for _, section := range s.Sections {
		lines := make(map[string]string, len(section.Lines))
		for _, lv := range section.Lines {
			lines[lv.Label] = lv.Value
		}
		out.Sections = append(out.Sections, jsonSection{Title: section.Title, Lines: lines})
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
