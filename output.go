package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"dam/internal/database"
	"dam/internal/mediatypes"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// entryView is the JSON form of an entry.
type entryView struct {
	database.Entry
	MimeType string `json:"mimeType"`
}

func entryViews(entries []database.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{Entry: e, MimeType: mediatypes.GetMimeType(mediatypes.Ext(e.Name))})
	}
	return views
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printEntries writes a table on a terminal and one tab-separated line per
// entry otherwise, so the output can be piped.
func printEntries(cmd *cobra.Command, root string, entries []database.Entry) {
	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		for _, e := range entries {
			fmt.Fprintf(out, "%s\t%s\t%s\n", e.ID, e.Created.Local().Format(time.RFC3339), e.Path)
		}
		return
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No files cataloged. Run 'dam scan' to add some.")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		thumb := ""
		if e.HasThumbnail {
			thumb = "yes"
		}
		rows = append(rows, []string{
			e.ID.String(),
			relativeTo(root, e.Path),
			string(e.Type),
			e.Created.Local().Format(time.DateTime),
			thumb,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Path", "Type", "Created", "Thumbnail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "%d entries\n", len(entries))
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
