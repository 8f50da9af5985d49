package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// ansiRe matches ANSI escape sequences for stripping when calculating visual width.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visualLen returns the display width of s, excluding ANSI escape codes
// and counting Unicode runes (not bytes).
func visualLen(s string) int {
	return utf8.RuneCountInString(ansiRe.ReplaceAllString(s, ""))
}

// terminalWidth returns the terminal column count for stdout. The
// COLUMNS environment variable overrides the detected width. Returns 0
// if stdout is not a terminal and COLUMNS is unset, which signals that
// no width constraint should be applied.
func terminalWidth() int {
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n
		}
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// Table produces column-aligned output with ANSI-aware width
// calculation. Headers and a dash divider are written lazily on
// Flush(), so empty tables produce no output.
//
// When stdout is a terminal (or COLUMNS is set), the widest column is
// truncated with an ellipsis so lines fit the terminal width. Trace
// hop lists have short, fixed-shape cells, so truncation beats
// wrapping here.
type Table struct {
	w       io.Writer
	headers []string
	rows    [][]string
}

// NewTable creates a table writing to stdout with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{w: os.Stdout, headers: headers}
}

// NewTableWriter creates a table writing to w.
func NewTableWriter(w io.Writer, headers ...string) *Table {
	return &Table{w: w, headers: headers}
}

// Row appends a row to the table.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush writes all buffered output. If no rows were added, nothing is printed.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLen(h)
	}
	for _, row := range t.rows {
		for i, v := range row {
			if i < len(widths) {
				if vl := visualLen(v); vl > widths[i] {
					widths[i] = vl
				}
			}
		}
	}

	if tw := terminalWidth(); tw > 0 {
		widths = capWidths(widths, t.headers, tw)
	}

	t.printRow(t.headers, widths)

	dividers := make([]string, len(t.headers))
	for i := range t.headers {
		dividers[i] = strings.Repeat("-", widths[i])
	}
	t.printRow(dividers, widths)

	for _, row := range t.rows {
		t.printRow(row, widths)
	}
}

// capWidths shrinks the widest columns until the total line length fits
// within termWidth. Columns are never shrunk below their header width.
func capWidths(widths []int, headers []string, termWidth int) []int {
	result := make([]int, len(widths))
	copy(result, widths)

	minWidths := make([]int, len(headers))
	for i, h := range headers {
		minWidths[i] = visualLen(h)
	}

	const colGap = 2

	for {
		lineWidth := 0
		for _, w := range result {
			lineWidth += w
		}
		if len(result) > 1 {
			lineWidth += colGap * (len(result) - 1)
		}
		if lineWidth <= termWidth {
			break
		}

		maxW, maxI := -1, -1
		for i, w := range result {
			if w > minWidths[i] && w > maxW {
				maxW = w
				maxI = i
			}
		}
		if maxI < 0 {
			break // every column is at its minimum
		}

		excess := lineWidth - termWidth
		available := result[maxI] - minWidths[maxI]
		if excess > available {
			excess = available
		}
		result[maxI] -= excess
	}

	return result
}

// truncCell fits s into width visual characters, replacing the tail with
// an ellipsis when it overflows. ANSI codes are stripped before
// truncating so a cut escape sequence never leaks color state.
func truncCell(s string, width int) string {
	if width <= 0 || visualLen(s) <= width {
		return s
	}
	plain := []rune(ansiRe.ReplaceAllString(s, ""))
	if width == 1 {
		return "…"
	}
	return string(plain[:width-1]) + "…"
}

func (t *Table) printRow(row []string, widths []int) {
	parts := make([]string, len(widths))
	for i := range widths {
		val := ""
		if i < len(row) {
			val = row[i]
		}
		val = truncCell(val, widths[i])
		pad := widths[i] - visualLen(val)
		if pad < 0 {
			pad = 0
		}
		parts[i] = val + strings.Repeat(" ", pad)
	}
	fmt.Fprintln(t.w, strings.TrimRight(strings.Join(parts, "  "), " "))
}
