package failure

import (
	"fmt"
	"html/template"
	"path"
	"strconv"

	"github.com/secureworks/errors"

	"github.com/John-Robertt/dashpanel/internal/markup"
)

// TraceFormatter renders captured frames as HTML.
type TraceFormatter func(frames errors.Frames) (template.HTML, error)

// StackTraceView renders frames as a table, innermost call first.
func StackTraceView(frames errors.Frames) (template.HTML, error) {
	rows := make([]template.HTML, 0, len(frames)+1)
	rows = append(rows, markup.Tag("tr", nil,
		markup.Tag("th", nil, "#"),
		markup.Tag("th", nil, "Function"),
		markup.Tag("th", nil, "Location"),
	))
	for i, fr := range frames {
		if fr == nil {
			return "", fmt.Errorf("stack frame %d is nil", i)
		}
		fn, file, line := fr.Location()
		loc := shortFile(file)
		if line > 0 {
			loc += ":" + strconv.Itoa(line)
		}
		if isUnknown(fn) {
			fn = "(unknown)"
		}
		rows = append(rows, markup.Tag("tr", nil,
			markup.Tag("td", markup.Attrs{"class": "stack-trace-depth"}, strconv.Itoa(i)),
			markup.Tag("td", markup.Attrs{"class": "stack-trace-function"}, fn),
			markup.Tag("td", markup.Attrs{"class": "stack-trace-location", "title": file}, loc),
		))
	}
	return markup.Tag("table", markup.Attrs{"class": "stack-trace-view"}, rows), nil
}

// isUnknown reports a missing location part. Frames without caller
// information report "unknown".
func isUnknown(s string) bool {
	return s == "" || s == "unknown"
}

// shortFile keeps the last directory and the file name.
func shortFile(file string) string {
	if isUnknown(file) {
		return "(unknown)"
	}
	dir, base := path.Split(file)
	if dir == "" {
		return base
	}
	return path.Join(path.Base(path.Clean(dir)), base)
}
