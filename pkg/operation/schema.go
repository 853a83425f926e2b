package operation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/entrhq/forge-automation/pkg/failure"
)

// ObjectSchema creates the common JSON schema structure for an operation's
// parameters with the given properties and required fields.
func ObjectSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func compileSchema(h interface{}) (*gojsonschema.Schema, error) {
	sp, ok := h.(SchemaProvider)
	if !ok {
		return nil, nil
	}
	def := sp.Schema()
	if def == nil {
		return nil, nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
	if err != nil {
		return nil, fmt.Errorf("failed to compile parameter schema: %w", err)
	}
	return schema, nil
}

func validateSchema(schema *gojsonschema.Schema, raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return failure.Wrap(failure.KindInvalidArgument, err, "Invalid parameters: %v", err)
	}
	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return failure.InvalidArgument("Invalid parameters: %s", strings.Join(details, "; "))
}
