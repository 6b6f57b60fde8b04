package docstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func compileSchema(kind, src string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	url := kind + ".json"
	if err := compiler.AddResource(url, strings.NewReader(src)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	return compiler.Compile(url)
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("document is not valid JSON: %w", err)
	}
	return schema.Validate(v)
}
