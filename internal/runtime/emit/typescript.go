package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/drblury/schemaflow/internal/runtime/jsoncodec"
	"github.com/drblury/schemaflow/internal/runtime/schema"
)

// TypeName converts a kebab-case schema name into a PascalCase identifier.
func TypeName(schemaName string) string {
	var b strings.Builder
	for _, part := range strings.Split(schemaName, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// DataTypeName is the name of the emitted type for a schema's data.
func DataTypeName(schemaName string) string { return TypeName(schemaName) + "Data" }

// EventTypeName is the name of the emitted envelope type for a schema.
func EventTypeName(schemaName string) string { return TypeName(schemaName) + "Event" }

// TypeScriptTypes renders the data and envelope type declarations for every
// schema in reg, followed by the AnyEvent union and the eventTypes table.
func TypeScriptTypes(reg *schema.Registry) string {
	w := &codeWriter{}
	w.line(Header)
	schemas := reg.Schemas()
	for _, s := range schemas {
		w.blank()
		writeTypeDecl(w, s)
	}

	w.blank()
	if len(schemas) == 0 {
		w.line("export type AnyEvent = never;")
	} else {
		names := make([]string, len(schemas))
		for i, s := range schemas {
			names[i] = EventTypeName(s.Name)
		}
		w.line("export type AnyEvent =")
		for i, n := range names {
			if i == len(names)-1 {
				w.line("  | %s;", n)
				continue
			}
			w.line("  | %s", n)
		}
	}

	w.blank()
	quoted := make([]string, len(schemas))
	for i, s := range schemas {
		quoted[i] = strconv.Quote(s.Name)
	}
	w.line("export const eventTypes = [%s] as const;", strings.Join(quoted, ", "))
	w.blank()
	w.line("export type EventType = (typeof eventTypes)[number];")
	return w.String()
}

func writeTypeDecl(w *codeWriter, s schema.Schema) {
	writeDoc(w, "", s.Description)
	w.line("export type %s = %s;", DataTypeName(s.Name), renderObject(s.Attributes, ""))
	w.blank()
	w.line("export type %s = {", EventTypeName(s.Name))
	w.line("  type: %s;", strconv.Quote(s.Name))
	w.line("  data: %s;", DataTypeName(s.Name))
	w.line("  timestamp: number;")
	w.line("  source: string;")
	w.line("  id: string;")
	w.line("};")
}

// renderShape returns the TypeScript type for shape. indent is the
// indentation of the line the type starts on.
func renderShape(shape schema.Shape, indent string) string {
	switch s := shape.(type) {
	case schema.Primitive:
		return string(s)
	case schema.Object:
		return renderObject(s.Attributes, indent)
	case schema.Enum:
		parts := make([]string, len(s.Values))
		for i, v := range s.Values {
			parts[i] = renderLiteral(v)
		}
		return strings.Join(parts, " | ")
	case schema.OneOf:
		parts := make([]string, len(s.Variants))
		for i, v := range s.Variants {
			parts[i] = renderShape(v, indent)
		}
		return strings.Join(parts, " | ")
	case schema.ArrayOf:
		return "Array<" + renderShape(s.Element, indent) + ">"
	case schema.PrimitiveUnion:
		parts := make([]string, len(s.Types))
		for i, p := range s.Types {
			parts[i] = string(p)
		}
		return strings.Join(parts, " | ")
	}
	return "unknown"
}

func renderObject(attrs []schema.Attribute, indent string) string {
	if len(attrs) == 0 {
		return "{}"
	}
	inner := indent + "  "
	w := &codeWriter{}
	w.raw("{\n")
	for _, attr := range attrs {
		writeDoc(w, inner, attr.Description)
		optional := "?"
		if attr.Required {
			optional = ""
		}
		w.raw(fmt.Sprintf("%s%s%s: %s;\n", inner, attr.Name, optional, renderShape(attr.Shape, inner)))
	}
	w.raw(indent + "}")
	return w.String()
}

func renderLiteral(v any) string {
	switch l := v.(type) {
	case string:
		// JSON escapes are valid in JavaScript string literals; Go's \a and \v are not.
		if quoted, err := jsoncodec.MarshalToString(l); err == nil {
			return quoted
		}
		return strconv.Quote(l)
	case float64:
		return strconv.FormatFloat(l, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func writeDoc(w *codeWriter, indent, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	text = strings.ReplaceAll(text, "*/", "*\\/")
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		w.raw(indent + "/** " + lines[0] + " */\n")
		return
	}
	w.raw(indent + "/**\n")
	for _, l := range lines {
		w.raw(strings.TrimRight(indent+" * "+strings.TrimSpace(l), " ") + "\n")
	}
	w.raw(indent + " */\n")
}
