package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TextRenderer produces Lip Gloss styled terminal output.
type TextRenderer struct {
	w io.Writer
}

func (r *TextRenderer) RenderSummary(s *Summary) {
	width := 60
	fmt.Fprintln(r.w)

	header := TitleStyle.Render(fmt.Sprintf("datasync — %s", s.Title))
	fmt.Fprintln(r.w, header)

	for _, section := range s.Sections {
		var lines []string
		for _, lv := range section.Lines {
			lines = append(lines, r.labelValue(lv.Label+":", lv.Value))
		}
		title := TitleStyle.Render(section.Title)
		box := BoxStyle.Width(width).Render(title + "\n" + strings.Join(lines, "\n"))
		fmt.Fprintln(r.w, box)
	}

	if len(s.Warnings) > 0 {
		var content strings.Builder
		content.WriteString(WarningText.Render(IconWarning + " Warnings"))
		for _, w := range s.Warnings {
			content.WriteString("\n" + w)
		}
		fmt.Fprintln(r.w, WarningBoxStyle.Width(width).Render(content.String()))
	}

	style, icon, label := r.statusStyle(s.Status)
	statusBox := style.Width(width).Render(fmt.Sprintf("%s %s", icon, label))
	fmt.Fprintln(r.w, statusBox)
	fmt.Fprintln(r.w)
}

func (r *TextRenderer) statusStyle(status Status) (lipgloss.Style, string, string) {
	switch status {
	case StatusOK:
		return SafeBoxStyle, IconSafe, "Completed successfully."
	case StatusDegraded:
		return WarningBoxStyle, IconWarning, "Completed with warnings."
	default:
		return DangerBoxStyle, IconDanger, "Failed."
	}
}

func (r *TextRenderer) labelValue(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}
