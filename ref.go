package jsonschema

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonpointer"
)

// resolveRef resolves a "$ref" value to the schema node it points at, either
// within the current document (anchor or JSON Pointer) or in another
// document registered with the compiler.
func (s *Schema) resolveRef(ref string) (*Schema, error) {
	if ref == "#" {
		return s.getRootSchema(), nil
	}

	if strings.HasPrefix(ref, "#") {
		return s.resolveAnchor(ref[1:])
	}

	// Resolve the full URL if ref is a relative URL
	if !isAbsoluteURI(ref) && s.baseURI != "" {
		ref = resolveRelativeURI(s.baseURI, ref)
	}

	// Handle full URL references
	return s.resolveRefWithFullURL(ref)
}

func (s *Schema) resolveAnchor(anchorName string) (*Schema, error) {
	var schema *Schema
	var err error

	if strings.HasPrefix(anchorName, "/") {
		schema, err = s.resolveJSONPointer(anchorName)
	} else if named, ok := s.anchors[anchorName]; ok {
		return named, nil
	}

	if schema == nil && s.parent != nil {
		return s.parent.resolveAnchor(anchorName)
	}

	return schema, err
}

// resolveRefWithFullURL resolves a full URL reference to another schema.
func (s *Schema) resolveRefWithFullURL(ref string) (*Schema, error) {
	root := s.getRootSchema()
	if resolved, err := root.getSchema(ref); err == nil {
		return resolved, nil
	}

	// If not found in the current schema or its parents, look for the reference in the compiler
	resolved, err := s.GetCompiler().GetSchema(ref)
	if err != nil {
		return nil, ErrGlobalReferenceResolution
	}
	return resolved, nil
}

// resolveJSONPointer resolves a JSON Pointer within the schema based on JSON Schema structure.
func (s *Schema) resolveJSONPointer(pointer string) (*Schema, error) {
	if pointer == "/" {
		return s, nil
	}

	// Parse JSON Pointer using the jsonpointer library
	// This handles ~ escaping (~ -> ~0, / -> ~1) automatically
	segments := jsonpointer.Parse(pointer)
	currentSchema := s
	previousSegment := ""

	for i, segment := range segments {
		// jsonpointer.Parse handles ~0 and ~1 escaping, but not URL percent encoding
		// We need to handle URL percent encoding separately for JSON Schema compatibility
		decodedSegment, err := url.PathUnescape(segment)
		if err != nil {
			return nil, ErrJSONPointerSegmentDecode
		}

		nextSchema, found := findSchemaInSegment(currentSchema, decodedSegment, previousSegment)
		if found {
			currentSchema = nextSchema
			previousSegment = decodedSegment
			continue
		}

		if !found && i == len(segments)-1 {
			// If no schema is found and it's the last segment, throw error
			return nil, ErrJSONPointerSegmentNotFound
		}

		previousSegment = decodedSegment
	}

	return currentSchema, nil
}

// findSchemaInSegment resolves one JSON Pointer segment against the schema
// node reached so far, given the keyword that preceded it.
func findSchemaInSegment(currentSchema *Schema, segment string, previousSegment string) (*Schema, bool) {
	switch previousSegment {
	case "properties":
		if currentSchema.Properties != nil {
			if schema, exists := (*currentSchema.Properties)[segment]; exists {
				return schema, true
			}
		}
	case "patternProperties":
		if currentSchema.PatternProperties != nil {
			if schema, exists := (*currentSchema.PatternProperties)[segment]; exists {
				return schema, true
			}
		}
	case "definitions":
		if defSchema, exists := currentSchema.Definitions[segment]; exists {
			return defSchema, true
		}
	case "items":
		if currentSchema.ItemsSchema != nil {
			return currentSchema.ItemsSchema, true
		}
		index, err := strconv.Atoi(segment)
		if err == nil && index >= 0 && index < len(currentSchema.ItemsTuple) {
			return currentSchema.ItemsTuple[index], true
		}
	case "additionalItems":
		if currentSchema.AdditionalItems != nil {
			return currentSchema.AdditionalItems, true
		}
	case "additionalProperties":
		if currentSchema.AdditionalProperties != nil {
			return currentSchema.AdditionalProperties, true
		}
	case "not":
		if currentSchema.Not != nil {
			return currentSchema.Not, true
		}
	case "allOf":
		index, err := strconv.Atoi(segment)
		if err == nil && index >= 0 && index < len(currentSchema.AllOf) {
			return currentSchema.AllOf[index], true
		}
	case "anyOf":
		index, err := strconv.Atoi(segment)
		if err == nil && index >= 0 && index < len(currentSchema.AnyOf) {
			return currentSchema.AnyOf[index], true
		}
	case "oneOf":
		index, err := strconv.Atoi(segment)
		if err == nil && index >= 0 && index < len(currentSchema.OneOf) {
			return currentSchema.OneOf[index], true
		}
	}
	return nil, false
}

// ResolveUnresolvedReferences tries to resolve any previously unresolved references
// This is called after new schemas are added to the compiler
func (s *Schema) ResolveUnresolvedReferences() {
	if s.Ref != "" && s.ResolvedRef == nil {
		if resolved, err := s.resolveRef(s.Ref); err == nil {
			s.ResolvedRef = resolved
		}
	}

	if s.Definitions != nil {
		for _, defSchema := range s.Definitions {
			defSchema.ResolveUnresolvedReferences()
		}
	}

	if s.Properties != nil {
		for _, schema := range *s.Properties {
			if schema != nil {
				schema.ResolveUnresolvedReferences()
			}
		}
	}

	resolveUnresolvedInList(s.AllOf)
	resolveUnresolvedInList(s.AnyOf)
	resolveUnresolvedInList(s.OneOf)
	if s.Not != nil {
		s.Not.ResolveUnresolvedReferences()
	}
	if s.ItemsSchema != nil {
		s.ItemsSchema.ResolveUnresolvedReferences()
	}
	if s.ItemsTuple != nil {
		for _, schema := range s.ItemsTuple {
			schema.ResolveUnresolvedReferences()
		}
	}
	if s.AdditionalItems != nil {
		s.AdditionalItems.ResolveUnresolvedReferences()
	}
	if s.AdditionalProperties != nil {
		s.AdditionalProperties.ResolveUnresolvedReferences()
	}
	if s.PatternProperties != nil {
		for _, schema := range *s.PatternProperties {
			schema.ResolveUnresolvedReferences()
		}
	}
	for _, dep := range s.Dependencies {
		if dep.Schema != nil {
			dep.Schema.ResolveUnresolvedReferences()
		}
	}
}

func (s *Schema) resolveReferences() {
	if s.Ref != "" {
		resolved, err := s.resolveRef(s.Ref)
		if err == nil {
			s.ResolvedRef = resolved
		}
		// If resolution fails, leave ResolvedRef as nil and validation will handle this gracefully
	}

	if s.Definitions != nil {
		for _, defSchema := range s.Definitions {
			defSchema.resolveReferences()
		}
	}

	if s.Properties != nil {
		for _, schema := range *s.Properties {
			if schema != nil {
				schema.resolveReferences()
			}
		}
	}

	resolveSubschemaList(s.AllOf)
	resolveSubschemaList(s.AnyOf)
	resolveSubschemaList(s.OneOf)
	if s.Not != nil {
		s.Not.resolveReferences()
	}
	if s.ItemsSchema != nil {
		s.ItemsSchema.resolveReferences()
	}
	if s.ItemsTuple != nil {
		for _, schema := range s.ItemsTuple {
			schema.resolveReferences()
		}
	}
	if s.AdditionalItems != nil {
		s.AdditionalItems.resolveReferences()
	}
	if s.AdditionalProperties != nil {
		s.AdditionalProperties.resolveReferences()
	}
	if s.PatternProperties != nil {
		for _, schema := range *s.PatternProperties {
			schema.resolveReferences()
		}
	}
	for _, dep := range s.Dependencies {
		if dep.Schema != nil {
			dep.Schema.resolveReferences()
		}
	}
}

// Helper function to resolve references in a list of schemas
func resolveSubschemaList(schemas []*Schema) {
	for _, schema := range schemas {
		if schema != nil {
			schema.resolveReferences()
		}
	}
}

// Helper function to resolve unresolved references in a list of schemas
func resolveUnresolvedInList(schemas []*Schema) {
	for _, schema := range schemas {
		if schema != nil {
			schema.ResolveUnresolvedReferences()
		}
	}
}

// GetUnresolvedReferenceURIs returns a list of URIs that this schema references but are not yet resolved
func (s *Schema) GetUnresolvedReferenceURIs() []string {
	var unresolvedURIs []string

	if s.Ref != "" && s.ResolvedRef == nil {
		unresolvedURIs = append(unresolvedURIs, s.Ref)
	}

	if s.Definitions != nil {
		for _, defSchema := range s.Definitions {
			unresolvedURIs = append(unresolvedURIs, defSchema.GetUnresolvedReferenceURIs()...)
		}
	}

	if s.Properties != nil {
		for _, propSchema := range *s.Properties {
			if propSchema != nil {
				unresolvedURIs = append(unresolvedURIs, propSchema.GetUnresolvedReferenceURIs()...)
			}
		}
	}

	unresolvedURIs = append(unresolvedURIs, getUnresolvedFromList(s.AllOf)...)
	unresolvedURIs = append(unresolvedURIs, getUnresolvedFromList(s.AnyOf)...)
	unresolvedURIs = append(unresolvedURIs, getUnresolvedFromList(s.OneOf)...)

	if s.Not != nil {
		unresolvedURIs = append(unresolvedURIs, s.Not.GetUnresolvedReferenceURIs()...)
	}

	if s.ItemsSchema != nil {
		unresolvedURIs = append(unresolvedURIs, s.ItemsSchema.GetUnresolvedReferenceURIs()...)
	}

	if s.ItemsTuple != nil {
		for _, schema := range s.ItemsTuple {
			unresolvedURIs = append(unresolvedURIs, schema.GetUnresolvedReferenceURIs()...)
		}
	}

	if s.AdditionalItems != nil {
		unresolvedURIs = append(unresolvedURIs, s.AdditionalItems.GetUnresolvedReferenceURIs()...)
	}

	if s.AdditionalProperties != nil {
		unresolvedURIs = append(unresolvedURIs, s.AdditionalProperties.GetUnresolvedReferenceURIs()...)
	}

	if s.PatternProperties != nil {
		for _, schema := range *s.PatternProperties {
			unresolvedURIs = append(unresolvedURIs, schema.GetUnresolvedReferenceURIs()...)
		}
	}

	for _, dep := range s.Dependencies {
		if dep.Schema != nil {
			unresolvedURIs = append(unresolvedURIs, dep.Schema.GetUnresolvedReferenceURIs()...)
		}
	}

	return unresolvedURIs
}

// Helper function to get unresolved references from a list of schemas
func getUnresolvedFromList(schemas []*Schema) []string {
	var unresolvedURIs []string
	for _, schema := range schemas {
		if schema != nil {
			unresolvedURIs = append(unresolvedURIs, schema.GetUnresolvedReferenceURIs()...)
		}
	}
	return unresolvedURIs
}
