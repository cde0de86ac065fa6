package api

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// decodeList decodes a list response that some endpoints send as a bare
// array and others wrap as {"<key>": [...]}. Both shapes land in out; an
// absent or null list decodes to empty.
func decodeList(body []byte, key string, out any) error {
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("parsing %s list: invalid JSON", key)
	}
	root := gjson.ParseBytes(body)

	var raw string
	switch {
	case root.IsArray():
		raw = root.Raw
	case root.IsObject():
		field := root.Get(key)
		if !field.Exists() || field.Type == gjson.Null {
			raw = "[]"
		} else if !field.IsArray() {
			return fmt.Errorf("parsing %s list: %q is not an array", key, key)
		} else {
			raw = field.Raw
		}
	default:
		return fmt.Errorf("parsing %s list: unexpected %s", key, root.Type)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("parsing %s list: %w", key, err)
	}
	return nil
}

// decodeField decodes body[key] into out, e.g. the "product" in {"product": {...}}.
func decodeField(body []byte, key string, out any) error {
	field := gjson.GetBytes(body, key)
	if !field.Exists() || field.Type == gjson.Null {
		return fmt.Errorf("parsing response: missing %q", key)
	}
	if err := json.Unmarshal([]byte(field.Raw), out); err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	return nil
}
