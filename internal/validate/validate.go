// Package validate checks decoded webhook payloads against a field
// specification before they reach the gate. Problems are accumulated so a
// caller sees everything wrong with a payload at once.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindBool
	kindObject
)

func (k fieldKind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindBool:
		return "boolean"
	default:
		return "object"
	}
}

type fieldSpec struct {
	path      string // dotted path into the payload
	kind      fieldKind
	mandatory bool
}

var pushFields = []fieldSpec{
	{path: "ref", kind: kindString, mandatory: true},
	{path: "after", kind: kindString, mandatory: true},
	{path: "repository", kind: kindObject, mandatory: true},
	{path: "repository.full_name", kind: kindString, mandatory: true},
	{path: "pusher.name", kind: kindString, mandatory: false},
	{path: "deleted", kind: kindBool, mandatory: false},
}

// PushPayload validates a raw push payload. The returned slice lists every
// problem found; an empty slice means the payload is valid. The error return
// is reserved for payloads that cannot be inspected at all.
func PushPayload(data []byte) ([]string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse payload: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("payload is not an object")
	}

	var problems []string
	for _, spec := range pushFields {
		problems = append(problems, checkField(obj, spec)...)
	}
	return problems, nil
}

func checkField(obj map[string]any, spec fieldSpec) []string {
	value, present := lookup(obj, spec.path)
	if !present || value == nil {
		if spec.mandatory {
			return []string{fmt.Sprintf("field %q is mandatory", spec.path)}
		}
		return nil
	}

	switch spec.kind {
	case kindString:
		if _, ok := value.(string); !ok {
			return []string{typeProblem(spec, value)}
		}
	case kindBool:
		if _, ok := value.(bool); !ok {
			return []string{typeProblem(spec, value)}
		}
	case kindObject:
		if _, ok := value.(map[string]any); !ok {
			return []string{typeProblem(spec, value)}
		}
	}
	return nil
}

func typeProblem(spec fieldSpec, value any) string {
	return fmt.Sprintf("field %q value (%v) is not a %s", spec.path, value, spec.kind)
}

func lookup(obj map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	cur := any(obj)
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
