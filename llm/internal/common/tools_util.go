package common

import (
	"encoding/json"
	"fmt"
)

// FormatToolErrorJSON formats a tool execution error as the JSON object the
// model expects back in a tool-role message. If marshaling somehow fails it
// falls back to a hand-built string rather than dropping the error.
func FormatToolErrorJSON(errorMsg string) string {
	if errorMsg == "" {
		return "{}"
	}
	payload, err := json.Marshal(map[string]string{"error": errorMsg})
	if err == nil {
		return string(payload)
	}
	return fmt.Sprintf(`{"error": %q}`, errorMsg)
}
