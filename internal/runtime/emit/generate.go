// Package emit renders a schema registry into generated source: TypeScript
// type declarations, TypeScript sanitizers and JSON Schema documents.
//
// Output depends only on the registry and the options. Running Generate twice
// over the same input yields byte-identical files.
package emit

import (
	"fmt"
	"path"

	errspkg "github.com/drblury/schemaflow/internal/runtime/errors"
	"github.com/drblury/schemaflow/internal/runtime/schema"
	"github.com/drblury/schemaflow/internal/runtime/validate"
)

// Target selects a family of generated files.
type Target string

const (
	TargetTypeScript Target = "typescript"
	TargetJSONSchema Target = "jsonschema"
)

// DefaultTargets is used when Options.Targets is empty.
var DefaultTargets = []Target{TargetTypeScript, TargetJSONSchema}

// Options configures Generate.
type Options struct {
	Targets []Target
	// Validation selects the strength and presence semantics of the emitted
	// sanitizers.
	Validation validate.Options
	// SchemaDir is the directory of JSON Schema files. Defaults to "schemas".
	SchemaDir string
}

// File is one generated output. Writing it anywhere is up to the caller.
type File struct {
	Path    string
	Content []byte
}

// Generate renders reg into files, ordered by target and then by registry order.
func Generate(reg *schema.Registry, opts Options) ([]File, error) {
	if reg == nil {
		return nil, errspkg.ErrRegistryRequired
	}
	targets := opts.Targets
	if len(targets) == 0 {
		targets = DefaultTargets
	}
	schemaDir := opts.SchemaDir
	if schemaDir == "" {
		schemaDir = "schemas"
	}

	var files []File
	for _, target := range targets {
		switch target {
		case TargetTypeScript:
			files = append(files,
				File{Path: "types.ts", Content: []byte(TypeScriptTypes(reg))},
				File{Path: "validators.ts", Content: []byte(TypeScriptSanitizers(reg, opts.Validation))},
			)
		case TargetJSONSchema:
			for _, s := range reg.Schemas() {
				data, err := MarshalJSONSchema(JSONSchemaFor(s))
				if err != nil {
					return nil, fmt.Errorf("encode json schema for %s: %w", s.Name, err)
				}
				envelope, err := MarshalJSONSchema(EnvelopeJSONSchemaFor(s))
				if err != nil {
					return nil, fmt.Errorf("encode envelope json schema for %s: %w", s.Name, err)
				}
				files = append(files,
					File{Path: path.Join(schemaDir, s.Name+".json"), Content: data},
					File{Path: path.Join(schemaDir, s.Name+".envelope.json"), Content: envelope},
				)
			}
		default:
			return nil, fmt.Errorf("unknown generation target %q", target)
		}
	}
	return files, nil
}
