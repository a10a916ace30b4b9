package manifest

import (
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"

	coreerrors "github.com/joshyorko/dudley-build/core/errors"
	schemamanifest "github.com/joshyorko/dudley-build/core/schema/v1/manifest"
)

var (
	compiledSchemaOnce sync.Once
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
)

func loadSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		compiledSchema, compiledSchemaErr = compiler.Compile(schemamanifest.SchemaJSON)
	})
	if compiledSchemaErr != nil {
		return nil, coreerrors.Wrap(
			fmt.Errorf("compile manifest schema: %w", compiledSchemaErr),
			coreerrors.CategoryInternalFailure, "schema_compile_failed", "", false,
		)
	}
	return compiledSchema, nil
}

// ValidateJSONSchema checks serialized manifest bytes against the embedded
// JSON Schema document. This is the same check external tooling can run
// with the schema file shipped on the image.
func ValidateJSONSchema(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return err
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return coreerrors.Wrap(
		fmt.Errorf("manifest schema validation failed: %v", result.Errors),
		coreerrors.CategorySchemaViolation, "manifest_invalid", "", false,
	)
}
