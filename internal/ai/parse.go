package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseResponse decodes the model's text into a JSON object, tolerating a
// surrounding markdown code fence. Numbers are kept as json.Number so money
// values keep their exact digits. An object whose only key is "error" is the
// model reporting that it could not read the document and is returned as an
// error.
func ParseResponse(text string) (map[string]any, error) {
	body := stripFence(text)
	if body == "" {
		return nil, &ExtractionError{Op: "parse", Err: ErrEmptyResponse}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ExtractionError{Op: "parse", Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ExtractionError{Op: "parse", Err: fmt.Errorf("%w: got %T", ErrNotJSONObject, v)}
	}

	if msg, ok := obj["error"]; ok && len(obj) == 1 {
		return nil, &ExtractionError{Op: "extract", Err: errors.New(fmt.Sprint(msg))}
	}
	return obj, nil
}

func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if len(t) >= 4 && strings.EqualFold(t[:4], "json") {
		t = t[4:]
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
