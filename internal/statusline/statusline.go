// Package statusline builds the editor status line used to tag windows on
// the mirrored screen, and parses it back out of rendered rows.
//
// Each window's status line starts with Marker followed by comma separated
// fields, so a row of the grid can be recognised and decoded without any
// extra round trip to the editor.
package statusline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Marker opens every status line.
const Marker = "__STL"

// WindowIDExpr is the status line expression that yields the window id.
const WindowIDExpr = "%{v:lua.neomirror_window_id()}"

// Sentinel errors for the statusline package.
var (
	// ErrNoMarker is returned for rows that are not status lines.
	ErrNoMarker = errors.New("row is not a status line")

	// ErrTruncated is returned when a status line has fewer fields than expected.
	ErrTruncated = errors.New("status line truncated")
)

// field is one status line item and the expression that renders it.
type field struct {
	name string
	expr string
}

var fields = []field{
	{"windowId", WindowIDExpr},
	{"bufferNumber", "%n"},
	{"windowWidth", "%{winwidth(winnr())}"},
	{"windowHeight", "%{winheight(winnr())}"},
	{"screenColumn", "%{virtcol('.')}"},
	{"screenLine", "%{line('.')}"},
	{"bufferLineCount", "%L"},
	{"isModified", "%{&modified}"},
}

// Status is one decoded status line.
type Status struct {
	WindowID     string
	BufferNumber int
	Width        int
	Height       int
	Column       int
	Line         int
	LineCount    int
	Modified     bool
}

// Format returns the value for the editor's statusline option.
func Format() string {
	parts := make([]string, 0, len(fields)+1)
	parts = append(parts, Marker)
	for _, f := range fields {
		parts = append(parts, f.expr)
	}
	return strings.Join(parts, ",")
}

// Command returns the ex command that installs the status line.
func Command() string {
	return "set statusline=" + Format()
}

// Parse decodes a rendered grid row.
func Parse(row string) (Status, error) {
	row = strings.TrimSpace(row)
	if !strings.HasPrefix(row, Marker+",") {
		return Status{}, ErrNoMarker
	}

	parts := strings.Split(row[len(Marker)+1:], ",")
	if len(parts) < len(fields) {
		return Status{}, fmt.Errorf("%w: %d of %d fields", ErrTruncated, len(parts), len(fields))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	// Padding and the vertical separator may follow the last field.
	if last := strings.Fields(parts[7]); len(last) > 0 {
		parts[7] = last[0]
	}

	var st Status
	st.WindowID = parts[0]
	ints := []*int{nil, &st.BufferNumber, &st.Width, &st.Height, &st.Column, &st.Line, &st.LineCount}
	for i := 1; i < len(ints); i++ {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return Status{}, fmt.Errorf("status line %s: %w", fields[i].name, err)
		}
		*ints[i] = n
	}
	switch parts[7] {
	case "0":
	case "1":
		st.Modified = true
	default:
		return Status{}, fmt.Errorf("status line %s: unexpected %q", fields[7].name, parts[7])
	}
	return st, nil
}

// ScanRow parses every status line in one row. Side by side windows put
// several status lines on the same row.
func ScanRow(row string) []Status {
	var out []Status
	for {
		i := strings.Index(row, Marker+",")
		if i < 0 {
			return out
		}
		row = row[i:]
		end := strings.Index(row[len(Marker):], Marker+",")
		seg := row
		if end >= 0 {
			seg = row[:len(Marker)+end]
		}
		if st, err := Parse(seg); err == nil {
			out = append(out, st)
		}
		if end < 0 {
			return out
		}
		row = row[len(Marker)+end:]
	}
}

// Scan parses every status line among rows, top to bottom and left to
// right.
func Scan(rows []string) []Status {
	var out []Status
	for _, row := range rows {
		out = append(out, ScanRow(row)...)
	}
	return out
}
