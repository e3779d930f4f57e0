package gmail

import (
	"encoding/json"
	"fmt"
)

// RenderResult formats a result the way tool consumers read it: one title
// line followed by compact JSON.
func RenderResult(title string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return fmt.Sprintf("Result for %s:\n%s", title, data), nil
}
