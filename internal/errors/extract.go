package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// errorMessageKeys is the probe order for locating a human-readable message
// inside a decoded JSON error body, per spec.md §4.1.
var errorMessageKeys = []string{"error", "message", "detail", "error_description"}
var nestedMessageKeys = []string{"message", "description"}

// ExtractErrorMessage pulls the best available error string out of an HTTP
// response body: first by probing known JSON keys (including one level of
// nesting), then the raw body when it is shorter than 200 characters
// (a longer body is not truncated), finally falling back to
// "HTTP <status>".
func ExtractErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return fmt.Sprintf("HTTP %d", resp.StatusCode)
	}

	var decoded map[string]any
	if json.Unmarshal(body, &decoded) == nil {
		for _, key := range errorMessageKeys {
			value, ok := decoded[key]
			if !ok {
				continue
			}
			switch v := value.(type) {
			case string:
				return v
			case map[string]any:
				for _, nested := range nestedMessageKeys {
					if nv, ok := v[nested].(string); ok {
						return nv
					}
				}
			}
		}
	}

	text := string(body)
	if len(text) > 0 && len(text) < 200 {
		return text
	}

	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}
