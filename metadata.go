package ultraocr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// batchMetadataSchema constrains the metadata array sent with a batch: one
// object per file in the batch document, each naming its file. Extra fields
// (client_data, service-specific hints) are allowed and passed through.
func batchMetadataSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"filename": map[string]any{"type": "string", "minLength": 1},
			},
			"required": []string{"filename"},
		},
	}
}

// ValidateMetadata checks batch metadata entries against the documented
// shape before submission, catching malformed metadata locally instead of
// as an opaque server rejection. SendBatch calls it when
// Config.ValidateMetadata is set; it can also be called directly.
func ValidateMetadata(items []map[string]any) error {
	if items == nil {
		return nil
	}

	raw, err := json.Marshal(batchMetadataSchema())
	if err != nil {
		return fmt.Errorf("marshal metadata schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("metadata.json", bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("add metadata schema: %w", err)
	}
	schema, err := compiler.Compile("metadata.json")
	if err != nil {
		return fmt.Errorf("compile metadata schema: %w", err)
	}

	// Round-trip through JSON so the validator sees the same shape the
	// server will receive.
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("metadata does not match documented shape: %w", err)
	}
	return nil
}
