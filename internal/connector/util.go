// internal/connector/util.go
package connector

import "encoding/json"

// digMap walks nested string-keyed maps and returns the map at the end of
// the path, or nil.
func digMap(m map[string]interface{}, path ...string) map[string]interface{} {
	current := m
	for _, key := range path {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// digValue returns the raw value at the end of the path, or nil.
func digValue(m map[string]interface{}, path ...string) interface{} {
	if len(path) == 0 {
		return nil
	}
	parent := m
	if len(path) > 1 {
		parent = digMap(m, path[:len(path)-1]...)
	}
	if parent == nil {
		return nil
	}
	return parent[path[len(path)-1]]
}

// digString returns the string at the end of the path, or "".
func digString(m map[string]interface{}, path ...string) string {
	s, _ := digValue(m, path...).(string)
	return s
}

// deepMerge merges src into dst recursively. Nested maps merge key by key,
// everything else in src overwrites dst.
func deepMerge(dst, src map[string]interface{}) {
	for k, v := range src {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := dst[k].(map[string]interface{}); ok {
				deepMerge(dstMap, srcMap)
				continue
			}
		}
		dst[k] = v
	}
}

// deepCopyMap clones a JSON-shaped map so template mutations never leak
// between turns.
func deepCopyMap(in map[string]interface{}) map[string]interface{} {
	data, err := json.Marshal(in)
	if err != nil {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{}
	}
	return out
}
