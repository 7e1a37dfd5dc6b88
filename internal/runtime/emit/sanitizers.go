package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/drblury/schemaflow/internal/runtime/schema"
	"github.com/drblury/schemaflow/internal/runtime/validate"
)

// TypeScriptSanitizers renders one sanitize function per schema. The emitted
// code follows the same walk as validate.Sanitizer for the given options, so
// both sides accept and reject the same inputs.
func TypeScriptSanitizers(reg *schema.Registry, opts validate.Options) string {
	w := &codeWriter{}
	w.line(Header)
	schemas := reg.Schemas()

	if len(schemas) > 0 {
		names := make([]string, len(schemas))
		for i, s := range schemas {
			names[i] = DataTypeName(s.Name)
		}
		w.blank()
		w.line("import type { %s } from \"./types\";", strings.Join(names, ", "))
	}

	w.blank()
	w.raw(validationErrorClass)
	w.blank()
	if opts.Presence == validate.PresenceTruthy {
		w.raw(truthyPresence)
	} else {
		w.raw(definedPresence)
	}
	w.blank()
	w.raw(shapeHelpers)
	if opts.Mode == validate.ModeStrict {
		w.blank()
		w.raw(strictHelpers)
	}

	for _, s := range schemas {
		w.blank()
		g := &sanitizerGen{w: w, strict: opts.Mode == validate.ModeStrict}
		g.function(s)
	}

	w.blank()
	w.line("export const sanitizers = {")
	for _, s := range schemas {
		w.line("  %s: sanitize%s,", strconv.Quote(s.Name), TypeName(s.Name))
	}
	w.line("} as const;")
	return w.String()
}

type sanitizerGen struct {
	w       *codeWriter
	strict  bool
	counter int
}

func (g *sanitizerGen) next() int {
	g.counter++
	return g.counter
}

func (g *sanitizerGen) function(s schema.Schema) {
	typeName := DataTypeName(s.Name)
	writeDoc(g.w, "", s.Description)
	g.w.line("export function sanitize%s(input: unknown): %s {", TypeName(s.Name), typeName)
	g.w.line(`  const src = expectObject(input, "");`)
	g.w.line("  const out: Record<string, unknown> = {};")
	g.object("src", "out", s.Attributes, "", "  ")
	g.w.line("  return out as unknown as %s;", typeName)
	g.w.line("}")
}

// object emits the checks and copies for attrs, reading from src and writing
// into out. path is the body of a template literal.
func (g *sanitizerGen) object(src, out string, attrs []schema.Attribute, path, indent string) {
	for _, attr := range attrs {
		access := fmt.Sprintf("%s[%s]", src, strconv.Quote(attr.Name))
		target := fmt.Sprintf("%s[%s]", out, strconv.Quote(attr.Name))
		fieldPath := joinTemplate(path, attr.Name)

		g.w.line("%sif (isPresent(%s)) {", indent, access)
		g.assign(target, access, attr.Shape, fieldPath, indent+"  ")
		if attr.Required {
			g.w.line("%s} else {", indent)
			g.w.line("%s  throw new ValidationError(%s);", indent, template(fieldPath))
		}
		g.w.line("%s}", indent)
	}
}

func (g *sanitizerGen) assign(target, access string, shape schema.Shape, path, indent string) {
	switch s := shape.(type) {
	case schema.Object:
		n := g.next()
		g.w.line("%sconst v%d = expectObject(%s, %s);", indent, n, access, template(path))
		g.w.line("%sconst o%d: Record<string, unknown> = {};", indent, n)
		g.object(fmt.Sprintf("v%d", n), fmt.Sprintf("o%d", n), s.Attributes, path, indent)
		g.w.line("%s%s = o%d;", indent, target, n)
	case schema.ArrayOf:
		g.array(target, access, s, path, indent)
	default:
		g.w.line("%s%s = %s;", indent, target, g.valueExpr(access, shape, path, indent))
	}
}

func (g *sanitizerGen) array(target, access string, s schema.ArrayOf, path, indent string) {
	if obj, ok := s.ObjectElement(); ok {
		n := g.next()
		elemPath := fmt.Sprintf("%s[${i%d}]", path, n)
		g.w.line("%s%s = expectArray(%s, %s).map((e%d, i%d) => {", indent, target, access, template(path), n, n)
		m := g.next()
		g.w.line("%s  const v%d = expectObject(e%d, %s);", indent, m, n, template(elemPath))
		g.w.line("%s  const o%d: Record<string, unknown> = {};", indent, m)
		g.object(fmt.Sprintf("v%d", m), fmt.Sprintf("o%d", m), obj.Attributes, elemPath, indent+"  ")
		g.w.line("%s  return o%d;", indent, m)
		g.w.line("%s});", indent)
		return
	}

	if !g.strict {
		g.w.line("%s%s = expectArray(%s, %s);", indent, target, access, template(path))
		return
	}
	n := g.next()
	elemPath := fmt.Sprintf("%s[${i%d}]", path, n)
	g.w.line("%s%s = expectArray(%s, %s).map((e%d, i%d) => %s);", indent, target, access, template(path), n, n,
		g.valueExpr(fmt.Sprintf("e%d", n), s.Element, elemPath, indent))
}

// valueExpr returns the expression copying a leaf value. In strict mode the
// expression also checks it.
func (g *sanitizerGen) valueExpr(access string, shape schema.Shape, path, indent string) string {
	if !g.strict {
		return access
	}
	switch s := shape.(type) {
	case schema.Primitive:
		return fmt.Sprintf("expectType(%s, [%s], %s)", access, strconv.Quote(string(s)), template(path))
	case schema.PrimitiveUnion:
		types := make([]string, len(s.Types))
		for i, p := range s.Types {
			types[i] = strconv.Quote(string(p))
		}
		return fmt.Sprintf("expectType(%s, [%s], %s)", access, strings.Join(types, ", "), template(path))
	case schema.Enum:
		lits := make([]string, len(s.Values))
		for i, v := range s.Values {
			lits[i] = renderLiteral(v)
		}
		return fmt.Sprintf("expectLiteral(%s, [%s], %s)", access, strings.Join(lits, ", "), template(path))
	case schema.OneOf:
		return g.oneOf(access, s, path, indent)
	}
	return access
}

func (g *sanitizerGen) oneOf(access string, s schema.OneOf, path, indent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "expectVariant(%s, %s, [\n", access, template(path))
	for _, variant := range s.Variants {
		n := g.next()
		switch v := variant.(type) {
		case schema.Primitive:
			fmt.Fprintf(&b, "%s  (x%d: unknown) => typeof x%d === %s,\n", indent, n, n, strconv.Quote(string(v)))
		case schema.Object:
			fmt.Fprintf(&b, "%s  (x%d: unknown) =>\n", indent, n)
			fmt.Fprintf(&b, "%s    passes(() => {\n", indent)
			sub := &sanitizerGen{w: &codeWriter{}, strict: g.strict, counter: g.counter}
			sub.w.line("%s      const v%d = expectObject(x%d, %s);", indent, n, n, template(path))
			sub.w.line("%s      const o%d: Record<string, unknown> = {};", indent, n)
			sub.object(fmt.Sprintf("v%d", n), fmt.Sprintf("o%d", n), v.Attributes, path, indent+"      ")
			g.counter = sub.counter
			b.WriteString(sub.w.String())
			fmt.Fprintf(&b, "%s    }),\n", indent)
		}
	}
	fmt.Fprintf(&b, "%s])", indent)
	return b.String()
}

func joinTemplate(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func template(path string) string {
	return "`" + path + "`"
}

const validationErrorClass = `export class ValidationError extends Error {
  readonly path: string;
  readonly reason: string;

  constructor(path: string, reason = "required field is missing") {
    super(path === "" ? ` + "`validation failed: ${reason}`" + ` : ` + "`validation failed at \"${path}\": ${reason}`" + `);
    this.name = "ValidationError";
    this.path = path;
    this.reason = reason;
  }
}
`

const definedPresence = `function isPresent(value: unknown): boolean {
  return value !== undefined && value !== null;
}
`

const truthyPresence = `function isPresent(value: unknown): boolean {
  return Boolean(value);
}
`

const shapeHelpers = `function expectObject(value: unknown, path: string): Record<string, unknown> {
  if (typeof value !== "object" || value === null || Array.isArray(value)) {
    throw new ValidationError(path, "expected object");
  }
  return value as Record<string, unknown>;
}

function expectArray(value: unknown, path: string): unknown[] {
  if (!Array.isArray(value)) {
    throw new ValidationError(path, "expected array");
  }
  return value;
}
`

const strictHelpers = `type Primitive = "string" | "number" | "boolean";

function expectType(value: unknown, types: readonly Primitive[], path: string): unknown {
  if (!types.includes(typeof value as Primitive)) {
    throw new ValidationError(path, ` + "`expected ${types.join(\" | \")}`" + `);
  }
  return value;
}

function expectLiteral(value: unknown, literals: readonly unknown[], path: string): unknown {
  if (!literals.includes(value)) {
    throw new ValidationError(path, ` + "`value is not one of ${literals.join(\", \")}`" + `);
  }
  return value;
}

function expectVariant(value: unknown, path: string, variants: readonly ((x: unknown) => boolean)[]): unknown {
  if (!variants.some((matches) => matches(value))) {
    throw new ValidationError(path, "value matches no oneOf variant");
  }
  return value;
}

function passes(check: () => void): boolean {
  try {
    check();
    return true;
  } catch {
    return false;
  }
}
`
