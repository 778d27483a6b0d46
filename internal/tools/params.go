package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ValidateParams checks params against schema: required fields must be present and non-empty, and declared
// properties must have their declared JSON type. Undeclared params pass through
func ValidateParams(schema anthropic.ToolInputSchemaParam, params map[string]any) error {
	var missing []string
	for _, key := range schema.Required {
		val, exists := params[key]
		if !exists || val == nil {
			missing = append(missing, key)
			continue
		}
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required parameter(s): %s", strings.Join(missing, ", "))
	}

	props := properties(schema)
	// Sorted so that the reported error does not depend on map order
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		val := params[key]
		prop, declared := props[key]
		if !declared || val == nil {
			continue
		}
		typ, _ := prop["type"].(string)
		if err := checkType(key, val, typ); err != nil {
			return err
		}
		if enum, ok := prop["enum"].([]string); ok {
			if s, _ := val.(string); s != "" && !slices.Contains(enum, s) {
				return fmt.Errorf("parameter %q: must be one of %s, got %q", key, strings.Join(enum, ", "), s)
			}
		}
	}
	return nil
}

// checkType verifies that val matches the expected JSON Schema type
func checkType(key string, val any, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("parameter %q: expected string, got %s", key, jsonType(val))
		}
	case "integer":
		n, ok := val.(float64)
		if !ok {
			return fmt.Errorf("parameter %q: expected integer, got %s", key, jsonType(val))
		}
		if n != float64(int64(n)) {
			return fmt.Errorf("parameter %q: expected integer, got %v", key, n)
		}
	case "number":
		if _, ok := val.(float64); !ok {
			return fmt.Errorf("parameter %q: expected number, got %s", key, jsonType(val))
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("parameter %q: expected boolean, got %s", key, jsonType(val))
		}
	case "array":
		if _, ok := val.([]any); !ok {
			return fmt.Errorf("parameter %q: expected array, got %s", key, jsonType(val))
		}
	case "object":
		if _, ok := val.(map[string]any); !ok {
			return fmt.Errorf("parameter %q: expected object, got %s", key, jsonType(val))
		}
	}
	return nil
}

func jsonType(val any) string {
	switch val.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", val)
}

// NormalizeAliases rewrites the parameter aliases callers commonly send into the names schema declares: "org" and
// "owner" stand in for each other, and "full_name" ("owner/repo") fills in owner and repo
func NormalizeAliases(schema anthropic.ToolInputSchemaParam, params map[string]any) error {
	props := properties(schema)
	_, wantsOwner := props["owner"]
	_, wantsRepo := props["repo"]
	_, wantsOrg := props["org"]

	if fullName, ok := params["full_name"].(string); ok && wantsOwner && wantsRepo {
		owner, repo, found := strings.Cut(strings.TrimSpace(fullName), "/")
		if !found || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return fmt.Errorf("parameter \"full_name\": expected owner/repo, got %q", fullName)
		}
		setDefault(params, "owner", owner)
		setDefault(params, "repo", repo)
	}

	if wantsOwner && !wantsOrg {
		if org, ok := params["org"]; ok {
			setDefault(params, "owner", org)
		}
	}
	if wantsOrg && !wantsOwner {
		if owner, ok := params["owner"]; ok {
			setDefault(params, "org", owner)
		}
	}
	return nil
}

func setDefault(params map[string]any, key string, val any) {
	if cur, ok := params[key]; ok && cur != nil && cur != "" {
		return
	}
	params[key] = val
}

func properties(schema anthropic.ToolInputSchemaParam) map[string]map[string]any {
	out := map[string]map[string]any{}
	props, _ := schema.Properties.(map[string]any)
	for key, p := range props {
		if m, ok := p.(map[string]any); ok {
			out[key] = m
		}
	}
	return out
}

// decodeParams validates input against schema and decodes it into target. Every failure is a ToolInputError
func decodeParams(schema anthropic.ToolInputSchemaParam, input json.RawMessage, target any) error {
	params := map[string]any{}
	if len(bytes.TrimSpace(input)) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return NewToolInputError(fmt.Errorf("input is not a JSON object: %w", err))
		}
	}
	if params == nil {
		params = map[string]any{}
	}

	if err := NormalizeAliases(schema, params); err != nil {
		return NewToolInputError(err)
	}
	if err := ValidateParams(schema, params); err != nil {
		return NewToolInputError(err)
	}

	normalized, err := json.Marshal(params)
	if err != nil {
		return NewToolInputError(err)
	}
	if err := json.Unmarshal(normalized, target); err != nil {
		return NewToolInputError(err)
	}
	return nil
}

// Schema builders

func objectSchema(required []string, props map[string]any) anthropic.ToolInputSchemaParam {
	return anthropic.ToolInputSchemaParam{
		Properties: props,
		Required:   required,
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "enum": values, "description": description}
}

func integerProp(description string) map[string]any {
	return map[string]any{"type": "integer", "description": description}
}

func stringArrayProp(description string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": description}
}
