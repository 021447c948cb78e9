package jsonschema

import (
	"net/url"
	"slices"
	"strconv"

	"github.com/kaptinlin/jsonpointer"
)

// validateIdentifiers walks the schema tree checking that every "id" value is
// well-formed. Draft-04's "id" is a URI-reference: it may be relative (it is
// then resolved against the parent scope) but must not itself be malformed.
//
// Reference: https://json-schema.org/draft-04/json-schema-core#anchor25
func (s *Schema) validateIdentifiers() error {
	if s == nil {
		return nil
	}
	return s.collectIdentifierErrors(nil, make(map[*Schema]bool))
}

func (s *Schema) collectIdentifierErrors(pathTokens []string, visited map[*Schema]bool) error {
	if s == nil || visited[s] {
		return nil
	}
	visited[s] = true

	if s.ID != "" {
		if _, err := url.Parse(s.ID); err != nil {
			idTokens := slices.Concat(pathTokens, []string{"id"})
			return &InvalidSchema{
				Path:   "#" + jsonpointer.Format(idTokens...),
				Reason: "\"id\" is not a valid URI-reference: " + err.Error(),
			}
		}
	}

	if s.Properties != nil {
		for key, propSchema := range map[string]*Schema(*s.Properties) {
			if err := propSchema.collectIdentifierErrors(slices.Concat(pathTokens, []string{"properties", key}), visited); err != nil {
				return err
			}
		}
	}

	if s.PatternProperties != nil {
		for key, propSchema := range map[string]*Schema(*s.PatternProperties) {
			if err := propSchema.collectIdentifierErrors(slices.Concat(pathTokens, []string{"patternProperties", key}), visited); err != nil {
				return err
			}
		}
	}

	for key, defSchema := range s.Definitions {
		if err := defSchema.collectIdentifierErrors(slices.Concat(pathTokens, []string{"definitions", key}), visited); err != nil {
			return err
		}
	}

	for key, dep := range s.Dependencies {
		if dep != nil && dep.Schema != nil {
			if err := dep.Schema.collectIdentifierErrors(slices.Concat(pathTokens, []string{"dependencies", key}), visited); err != nil {
				return err
			}
		}
	}

	children := []struct {
		schema *Schema
		token  string
	}{
		{s.AdditionalProperties, "additionalProperties"},
		{s.ItemsSchema, "items"},
		{s.AdditionalItems, "additionalItems"},
		{s.Not, "not"},
	}
	for _, c := range children {
		if err := c.schema.collectIdentifierErrors(slices.Concat(pathTokens, []string{c.token}), visited); err != nil {
			return err
		}
	}

	lists := []struct {
		schemas []*Schema
		token   string
	}{
		{s.ItemsTuple, "items"},
		{s.AllOf, "allOf"},
		{s.AnyOf, "anyOf"},
		{s.OneOf, "oneOf"},
	}
	for _, l := range lists {
		for i, child := range l.schemas {
			if err := child.collectIdentifierErrors(slices.Concat(pathTokens, []string{l.token, strconv.Itoa(i)}), visited); err != nil {
				return err
			}
		}
	}

	return nil
}
