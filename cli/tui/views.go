package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/utf8conv/cli/reader"
)

// section accumulates labelled lines under an optional heading.
type section struct {
	b strings.Builder
}

func (s *section) heading(title string) {
	if s.b.Len() > 0 {
		s.b.WriteString("\n")
	}
	s.b.WriteString(headingStyle.Render(title))
	s.b.WriteString("\n")
}

func (s *section) field(label, value string) {
	s.fieldColored(label, value, colorText)
}

func (s *section) fieldColored(label, value string, c lipgloss.Color) {
	fmt.Fprintf(&s.b, "%s %s\n", keyStyle.Render(label), textStyle.Foreground(c).Render(value))
}

func (s *section) String() string { return panelStyle.Render(strings.TrimRight(s.b.String(), "\n")) }

func reportView(data any) (string, bool) {
	r, ok := data.(*reader.InspectReportResponse)
	if !ok {
		return "", false
	}
	var s section
	s.heading("Run Report")
	s.field("Run ID", r.RunID)
	s.field("Source", r.Source)
	s.fieldColored("Status", r.Status, statusColor(r.Status))
	s.field("Message", r.Message)
	s.field("Conversion", r.From+" → "+r.To)
	s.field("Policy", r.Policy)
	s.field("Storage", r.StorageBackend)
	s.field("Completed At", r.CompletedAt)
	s.field("Version", r.Version)

	s.heading("Counters")
	s.field("Bytes Read", fmt.Sprint(r.BytesRead))
	s.field("Bytes Written", fmt.Sprint(r.BytesWritten))
	s.field("Units", fmt.Sprint(r.Units))
	s.fieldColored("Replacements", fmt.Sprint(r.Replacements), countColor(r.Replacements))
	s.field("Chunks Stored", fmt.Sprintf("%d / %d", r.ChunksPersisted, r.ChunksReceived))
	if r.ChunksRejected > 0 {
		s.fieldColored("Rejected", fmt.Sprint(r.ChunksRejected), colorBad)
	}
	return s.String(), true
}

func framesView(data any) (string, bool) {
	f, ok := data.(*reader.InspectFramesResponse)
	if !ok {
		return "", false
	}
	var s section
	s.heading("Frame Stream")
	s.field("Frames", fmt.Sprint(f.Frames))
	s.field("Chunks", fmt.Sprintf("%d (seq %d..%d)", f.Chunks, f.FirstSeq, f.LastSeq))
	s.field("Units", fmt.Sprint(f.Units))
	s.fieldColored("Replacements", fmt.Sprintf("%d in %d chunk(s)", f.Replacements, f.InvalidChunks), countColor(f.Replacements))
	if f.Complete {
		s.fieldColored("Complete", "yes", colorGood)
	} else {
		s.fieldColored("Complete", "no final chunk", colorWarn)
	}
	if f.SeqErrors > 0 {
		s.fieldColored("Seq Errors", fmt.Sprint(f.SeqErrors), colorBad)
	}

	if rr := f.RunResult; rr != nil {
		s.heading("Run Result")
		s.field("Run ID", rr.RunID)
		s.fieldColored("Status", rr.Status, statusColor(rr.Status))
		s.field("Message", rr.Message)
		s.field("Version", rr.Version)
	}
	return s.String(), true
}

func validationView(data any) (string, bool) {
	v, ok := data.(*reader.ValidationStats)
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Validation: %s (%s)", v.Source, v.From)))
	b.WriteString("\n\n")
	if v.Valid {
		b.WriteString(textStyle.Foreground(colorGood).Render("valid"))
	} else {
		b.WriteString(textStyle.Foreground(colorBad).Render("ill-formed input found"))
	}
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		tile("Bytes", v.BytesRead, colorAccent),
		tile("Units", v.Units, colorAccent),
		tile("Chunks", v.Chunks, colorDim),
		tile("Replacements", v.Replacements, countColor(v.Replacements)),
	))
	return b.String(), true
}

func tile(label string, value int64, c lipgloss.Color) string {
	return tileStyle.BorderForeground(c).Render(lipgloss.JoinVertical(lipgloss.Center,
		textStyle.Bold(true).Foreground(c).Render(fmt.Sprint(value)),
		keyStyle.Width(0).Render(label),
	))
}
