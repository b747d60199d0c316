// Package render turns a final table into a human-facing artifact: an
// aligned-column text listing or a CSV file.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cleanse/internal/config"
	"cleanse/internal/table"
)

// Options control the output.
type Options struct {
	// Path of the output file; empty writes to stdout.
	Path string

	// Format is "text" (default) or "csv".
	Format string

	// Columns restricts and orders the rendered columns; empty renders all.
	Columns []string

	// Caption is printed above the table (text format only).
	Caption string

	// MaxRows truncates the body; 0 renders every row. The footer still
	// reports the full row count.
	MaxRows int

	// MissingAs replaces Missing cells; default "NA".
	MissingAs string
}

const defaultMissingAs = "NA"

// Render writes the table per the options.
func Render(t *table.Table, opt Options) error {
	out, closeFn, err := openOutput(opt.Path)
	if err != nil {
		return err
	}
	defer closeFn()

	cols, err := selectColumns(t, opt.Columns)
	if err != nil {
		return err
	}

	switch opt.Format {
	case "", "text":
		return renderText(out, cols, t.NumRows(), opt)
	case "csv":
		return renderCSV(out, cols, t.NumRows(), opt)
	default:
		return fmt.Errorf("render: unknown format %q", opt.Format)
	}
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("render: create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func selectColumns(t *table.Table, names []string) ([]table.Column, error) {
	if len(names) == 0 {
		return t.Columns(), nil
	}
	cols := make([]table.Column, 0, len(names))
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, &table.UnknownColumnError{Column: name}
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func renderText(w io.Writer, cols []table.Column, nrows int, opt Options) error {
	if opt.Caption != "" {
		if _, err := fmt.Fprintln(w, opt.Caption); err != nil {
			return err
		}
	}

	body := nrows
	if opt.MaxRows > 0 && opt.MaxRows < body {
		body = opt.MaxRows
	}

	// Measure widths over header plus the rendered body.
	widths := make([]int, len(cols))
	rendered := make([][]string, body)
	for c, col := range cols {
		widths[c] = len(col.Name)
	}
	for r := 0; r < body; r++ {
		row := make([]string, len(cols))
		for c, col := range cols {
			s := formatCell(col, r, opt)
			row[c] = s
			if len(s) > widths[c] {
				widths[c] = len(s)
			}
		}
		rendered[r] = row
	}

	var b strings.Builder
	for c, col := range cols {
		if c > 0 {
			b.WriteString("  ")
		}
		pad(&b, col.Name, widths[c])
	}
	b.WriteByte('\n')
	for c := range cols {
		if c > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", widths[c]))
	}
	b.WriteByte('\n')
	for _, row := range rendered {
		for c, s := range row {
			if c > 0 {
				b.WriteString("  ")
			}
			pad(&b, s, widths[c])
		}
		b.WriteByte('\n')
	}

	if body < nrows {
		fmt.Fprintf(&b, "... %s more rows\n", humanize.Comma(int64(nrows-body)))
	}
	fmt.Fprintf(&b, "(%s rows)\n", humanize.Comma(int64(nrows)))

	_, err := io.WriteString(w, b.String())
	return err
}

func pad(b *strings.Builder, s string, width int) {
	b.WriteString(s)
	for i := len(s); i < width; i++ {
		b.WriteByte(' ')
	}
}

func renderCSV(w io.Writer, cols []table.Column, nrows int, opt Options) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for c, col := range cols {
		header[c] = col.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	body := nrows
	if opt.MaxRows > 0 && opt.MaxRows < body {
		body = opt.MaxRows
	}
	rec := make([]string, len(cols))
	for r := 0; r < body; r++ {
		for c, col := range cols {
			rec[c] = formatCell(col, r, opt)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatCell renders one cell as text. Missing cells use the placeholder;
// dates render as 2006-01-02 and datetimes as RFC3339.
func formatCell(col table.Column, row int, opt Options) string {
	v := col.Cell(row)
	if v == nil {
		if opt.MissingAs != "" {
			return opt.MissingAs
		}
		return defaultMissingAs
	}
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if col.Type == table.Date {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// FromConfig maps the config block to render options.
func FromConfig(r config.Render) Options {
	return Options{
		Path:      r.Path,
		Format:    r.Format,
		Columns:   r.Columns,
		Caption:   r.Caption,
		MaxRows:   r.MaxRows,
		MissingAs: r.MissingAs,
	}
}
