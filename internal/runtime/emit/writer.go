package emit

import (
	"fmt"
	"strings"
)

// Header is the first line of every generated TypeScript file.
const Header = "// Code generated by schemaflow. DO NOT EDIT."

type codeWriter struct {
	b strings.Builder
}

func (w *codeWriter) line(format string, args ...any) {
	if len(args) == 0 {
		w.b.WriteString(format)
	} else {
		fmt.Fprintf(&w.b, format, args...)
	}
	w.b.WriteByte('\n')
}

func (w *codeWriter) raw(s string) {
	w.b.WriteString(s)
}

func (w *codeWriter) blank() {
	w.b.WriteByte('\n')
}

func (w *codeWriter) String() string {
	return w.b.String()
}
