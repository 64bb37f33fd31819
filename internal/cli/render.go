package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/forPelevin/vidcap/internal/deps"
	"github.com/forPelevin/vidcap/internal/types"
	"github.com/forPelevin/vidcap/internal/usecase"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func renderDependencyTable(statuses []deps.Status, colorize bool) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		label, color := "OK", ansiGreen
		switch {
		case s.Available:
		case s.Optional:
			label, color = "WARN", ansiYellow
		default:
			label, color = "MISSING", ansiRed
		}
		if colorize {
			label = color + label + ansiReset
		}
		detail := s.Detail
		if detail == "" {
			detail = s.Description
		}
		rows = append(rows, []string{s.Name, label, detail})
	}
	return renderTable([]string{"Dependency", "Status", "Detail"}, rows)
}

func renderSummary(res usecase.Result, mode types.CaptionMode, colorize bool) string {
	rows := [][]string{
		{filepath.Base(res.Artifacts.Video), "video (" + mode.String() + ")"},
		{filepath.Base(res.Artifacts.Subtitles), "subtitles"},
		{filepath.Base(res.Artifacts.Transcript), "transcript"},
	}

	var b strings.Builder
	title := "Captioning complete"
	if colorize {
		title = ansiGreen + title + ansiReset
	}
	b.WriteString(title + "\n")
	b.WriteString(renderTable([]string{"File", "Kind"}, rows))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Output dir:  %s\n", filepath.Dir(res.Artifacts.Video))
	fmt.Fprintf(&b, "Language:    %s\n", res.Language)
	fmt.Fprintf(&b, "Segments:    %d\n", len(res.Segments))
	if res.Grammar.Applied {
		fmt.Fprintf(&b, "Grammar:     %d corrections (%s)", res.Grammar.Corrections, res.Grammar.Locale)
	} else {
		fmt.Fprintf(&b, "Grammar:     skipped (%s)", res.Grammar.Reason)
	}
	return b.String()
}

func shouldColorize(writer io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
