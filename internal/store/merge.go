package store

import (
	"encoding/json"
	"fmt"
)

// immutableFields are never overwritten by Merge.
var immutableFields = map[string]bool{"id": true, "tenantId": true}

// Merge overlays changes onto the JSON form of item, keyed by JSON field
// name. A nil value clears the field. Unknown keys, "id" and "tenantId" are
// ignored. On error item is left untouched.
func Merge[T any](item *T, changes map[string]any) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding item: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("item is not a JSON object: %w", err)
	}
	for k, v := range changes {
		if immutableFields[k] {
			continue
		}
		if v == nil {
			delete(fields, k)
			continue
		}
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encoding changes: %w", err)
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return fmt.Errorf("applying changes: %w", err)
	}
	*item = out
	return nil
}
