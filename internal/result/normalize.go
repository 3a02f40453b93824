package result

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yourorg/booking-orchestrator/internal/upstream"
)

// Normalize converts any error raised by an upstream client into a
// NormalizedResult. It never fails: when the error carries an HTTP
// response body it prefers the structured message/error/errors and
// errorId fields, then falls back to the raw body, then to the error's
// string form.
func Normalize(err error, source string) NormalizedResult {
	res := NormalizedResult{Success: false, Source: source}
	if err == nil {
		res.Message = "unknown error"
		return res
	}

	var fail *upstream.Failure
	if !errors.As(err, &fail) {
		res.Message = err.Error()
		return res
	}

	if fail.Source != "" {
		res.Source = fail.Source
	}
	res.HTTPStatus = fail.Status

	body := strings.TrimSpace(string(fail.Body))
	if body == "" {
		res.Message = err.Error()
		return res
	}

	var parsed map[string]interface{}
	if jsonErr := json.Unmarshal(fail.Body, &parsed); jsonErr != nil {
		res.Message = body
		return res
	}

	res.Message = extractMessage(parsed)
	if res.Message == "" {
		res.Message = body
	}
	if id, ok := parsed["errorId"].(string); ok {
		res.ErrorID = id
	}
	return res
}

// extractMessage picks a human-readable message out of a decoded upstream
// error envelope, joining list-valued "errors" fields.
func extractMessage(parsed map[string]interface{}) string {
	for _, key := range []string{"message", "error", "errors"} {
		v, ok := parsed[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if val != "" {
				return val
			}
		case []interface{}:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, stringify(item))
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		default:
			return stringify(val)
		}
	}
	return ""
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
