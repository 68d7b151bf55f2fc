package check

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/aymerick/raymond"
	"github.com/mattn/go-runewidth"
)

//go:embed templates/summary.hbs
var summaryTemplate string

// FormatSummary renders the end-of-run console summary. The persisted
// artifact is the plain conflicts log; this rendering is console-only.
func FormatSummary(summary *Summary) string {
	rows := []map[string]string{
		{"label": "Packages", "value": strconv.Itoa(summary.Packages)},
		{"label": "Typed packages", "value": strconv.Itoa(summary.TypedPackages)},
		{"label": "Duplicate name groups", "value": strconv.Itoa(summary.DuplicateGroups)},
	}
	if !summary.Offline {
		rows = append(rows,
			map[string]string{"label": "Checked against npm", "value": strconv.Itoa(summary.Checked)},
			map[string]string{"label": "Redundant", "value": strconv.Itoa(summary.Redundant)},
		)
	}
	alignRows(rows)

	tpl, err := raymond.Parse(summaryTemplate)
	if err != nil {
		return fmt.Sprintf("Error rendering summary: %v", err)
	}
	out, err := tpl.Exec(map[string]interface{}{
		"offline": summary.Offline,
		"rows":    rows,
	})
	if err != nil {
		return fmt.Sprintf("Error rendering summary: %v", err)
	}
	return out
}

// alignRows pads every label to a shared column width. Widths are display
// widths, not byte or rune counts, so wide (e.g. CJK) labels line up too.
func alignRows(rows []map[string]string) {
	width := 0
	for _, row := range rows {
		if w := runewidth.StringWidth(row["label"]); w > width {
			width = w
		}
	}
	for _, row := range rows {
		pad := width - runewidth.StringWidth(row["label"]) + 2
		row["label"] += strings.Repeat(" ", pad)
	}
}
