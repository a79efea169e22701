package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/stencil/internal/document"
)

// renderTree writes one line per record, indented by depth. Colors are
// only emitted when w is a terminal.
func renderTree(w io.Writer, root document.Record) error {
	r := lipgloss.NewRenderer(w)
	kindStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	idStyle := r.NewStyle().Foreground(lipgloss.Color("3"))
	textStyle := r.NewStyle().Foreground(lipgloss.Color("2"))

	var b strings.Builder
	var walk func(rec document.Record, depth int)
	walk = func(rec document.Record, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(kindStyle.Render(rec.Kind))
		if ids := recordIDs(rec); ids != "" {
			b.WriteString(" " + idStyle.Render(ids))
		}
		if t := recordText(rec); t != "" {
			b.WriteString(" " + textStyle.Render(strconv.Quote(t)))
		}
		b.WriteByte('\n')
		for _, c := range rec.Children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	_, err := io.WriteString(w, b.String())
	return err
}

func recordIDs(rec document.Record) string {
	var parts []string
	switch {
	case rec.ItemID != "":
		parts = append(parts, rec.ListID+"|"+rec.ItemID)
	case rec.ListID != "":
		parts = append(parts, rec.ListID)
	}
	if rec.Level > 0 {
		parts = append(parts, fmt.Sprintf("h%d", rec.Level))
	}
	if rec.APIName != "" {
		parts = append(parts, "{{"+rec.APIName+"}}")
	}
	if rec.UserID != nil {
		parts = append(parts, "user:"+strconv.FormatInt(*rec.UserID, 10))
	}
	if rec.ID != nil {
		parts = append(parts, "id:"+strconv.FormatInt(*rec.ID, 10))
	}
	if rec.URL != "" {
		parts = append(parts, rec.URL)
	}
	return strings.Join(parts, " ")
}

func recordText(rec document.Record) string {
	switch {
	case rec.Text != "":
		return rec.Text
	case rec.DisplayName != "":
		return rec.DisplayName
	case rec.Title != "":
		return rec.Title
	}
	return rec.Name
}
