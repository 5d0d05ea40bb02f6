package config

import (
	"regexp"
	"strconv"
	"strings"
)

// segmentPattern matches one key of a dotted config path, e.g. the
// "hybrid_search" in mcp.servers.hybrid_search.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParseConfigPath splits a dotted config path such as "checkpoint.store"
// into its keys.
func ParseConfigPath(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config path"}
	}
	parts := strings.Split(raw, ".")
	for _, p := range parts {
		if p == "" {
			return nil, &ConfigError{Message: "config path contains empty segment"}
		}
		if !segmentPattern.MatchString(p) {
			return nil, &ConfigError{Message: "invalid config path segment: " + p}
		}
	}
	return parts, nil
}

// GetValueAtPath looks up path in a raw config map. A numeric segment
// indexes into a list, so "agent.keywords.0" is the first keyword.
func GetValueAtPath(root map[string]any, path []string) (any, bool) {
	var current any = root
	for _, key := range path {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[key]
			if !ok {
				return nil, false
			}
			current = v
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			current = node[i]
		default:
			return nil, false
		}
	}
	return current, true
}

// SetValueAtPath stores value at path. Missing or non-map intermediate keys
// are replaced with empty maps.
func SetValueAtPath(root map[string]any, path []string, value any) {
	m, _ := parentMap(root, path, true)
	m[path[len(path)-1]] = value
}

// UnsetValueAtPath deletes the value at path and reports whether it existed.
func UnsetValueAtPath(root map[string]any, path []string) bool {
	m, ok := parentMap(root, path, false)
	if !ok {
		return false
	}
	last := path[len(path)-1]
	if _, ok := m[last]; !ok {
		return false
	}
	delete(m, last)
	return true
}

// parentMap walks to the map holding the final key of path.
func parentMap(root map[string]any, path []string, create bool) (map[string]any, bool) {
	current := root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]any)
		if !ok {
			if !create {
				return nil, false
			}
			next = map[string]any{}
			current[key] = next
		}
		current = next
	}
	return current, true
}
