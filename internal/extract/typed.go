package extract

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/signal-agent/internal/schemas"
	"github.com/jonathan/signal-agent/internal/types"
)

// Into extracts a T from text. A candidate must pass the named embedded JSON Schema
// (skipped when schema is empty), decode into T, and satisfy T's validate tags.
// T must be a struct type.
func Into[T any](text, marker, schema string) (T, error) {
	var result T

	_, err := Extract(text, Options{
		Marker: marker,
		Validate: func(candidate []byte) error {
			if schema != "" {
				if err := schemas.ValidateBytes(schema, candidate); err != nil {
					return err
				}
			}

			var v T
			if err := json.Unmarshal(candidate, &v); err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			if err := types.Validate(v); err != nil {
				return fmt.Errorf("constraints: %w", err)
			}

			result = v
			return nil
		},
	})
	return result, err
}
