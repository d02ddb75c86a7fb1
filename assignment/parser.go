package assignment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

// ParseJSONOrYAML decodes a JSON or YAML document on top of target, which normally already holds
// the default manifest. Keys the document leaves out keep their current values, so a manifest only
// needs to name what differs from the defaults:
//
//   - objects (sources, compiler, castxml) are merged key by key;
//   - a list (parts, compiler.flags) replaces the whole list, and an empty list clears it;
//   - a key with no value (null) leaves an object unchanged but clears a list.
//
// Keys that target has no field for are an error, so a misspelled key is reported instead of
// silently falling back to the default.
func ParseJSONOrYAML(data []byte, target interface{}) error {
	jsonData := data
	if !json.Valid(data) {
		var rawStructure interface{}
		if err := yaml.Unmarshal(data, &rawStructure); err != nil {
			return err
		}
		normalized, err := normalizeYAML(rawStructure, "")
		if err != nil {
			return err
		}
		if jsonData, err = json.Marshal(normalized); err != nil {
			return err
		}
	}
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// normalizeYAML converts the map types yaml.v3 may produce into ones encoding/json accepts. path
// is the dotted location of data within the document, for error messages.
func normalizeYAML(data interface{}, path string) (interface{}, error) {
	switch data := data.(type) {
	case []interface{}:
		out := make([]interface{}, 0, len(data))
		for i, v := range data {
			v1, err := normalizeYAML(v, childPath(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out = append(out, v1)
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(data))
		for k, v := range data {
			v1, err := normalizeYAML(v, childPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = v1
		}
		return out, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(data))
		for k, v := range data {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("manifest key %v under %q is a %T; only string keys are allowed", k, path, k)
			}
			v1, err := normalizeYAML(v, childPath(path, key))
			if err != nil {
				return nil, err
			}
			out[key] = v1
		}
		return out, nil
	default:
		return data, nil
	}
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}
