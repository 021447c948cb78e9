package jsonschema

import (
	"bytes"
	"errors"
	"maps"
	"regexp"
	"slices"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/kaptinlin/jsonpointer"
)

// knownSchemaFields contains every keyword recognized by the draft-04
// meta-schema. Used to filter out known fields when collecting extra
// (unrecognized, opaquely-preserved) fields.
var knownSchemaFields = map[string]struct{}{
	"id":          {},
	"$schema":     {},
	"$ref":        {},
	"definitions": {},

	"allOf":                {},
	"anyOf":                {},
	"oneOf":                {},
	"not":                  {},
	"items":                {},
	"additionalItems":      {},
	"properties":           {},
	"patternProperties":    {},
	"additionalProperties": {},
	"dependencies":         {},

	"type":  {},
	"enum":  {},
	"const": {},

	"multipleOf":       {},
	"maximum":          {},
	"exclusiveMaximum": {},
	"minimum":          {},
	"exclusiveMinimum": {},

	"maxLength": {},
	"minLength": {},
	"pattern":   {},

	"maxItems":    {},
	"minItems":    {},
	"uniqueItems": {},

	"maxProperties": {},
	"minProperties": {},
	"required":      {},

	"format": {},

	"title":       {},
	"description": {},
	"default":     {},
	"examples":    {},
}

// Schema represents a JSON Schema as per the draft-04 specification,
// capturing every keyword's presence or absence exactly (a keyword that is
// absent leaves its field nil; a keyword present with an empty/zero value
// still has a non-nil field).
type Schema struct {
	compiledPatterns      map[string]*regexp.Regexp // Cached compiled regular expressions for pattern properties.
	compiler              *Compiler                 // Reference to the associated Compiler instance.
	parent                *Schema                   // Parent schema for hierarchical resolution.
	uri                    string
	baseURI               string             // Base URI for resolving relative $ref within this schema's scope.
	anchors               map[string]*Schema // Plain-name id-fragment anchors, e.g. "id": "#foo".
	schemas               map[string]*Schema // Cache of compiled schemas, keyed by resolved URI.
	compiledStringPattern *regexp.Regexp     // Cached compiled regular expression for the "pattern" keyword.

	ID     string  `json:"id,omitempty"`     // Identifier / base-URI scope for this schema.
	Schema string  `json:"$schema,omitempty"`
	Format *string `json:"format,omitempty"` // Annotation only; draft-04 never asserts format.

	Ref         string  `json:"$ref,omitempty"`
	ResolvedRef *Schema `json:"-"`

	// Boolean JSON Schemas: `true` validates everything, `false` validates
	// nothing. Non-nil Boolean means every other field on this Schema is
	// meaningless and is never inspected.
	Boolean *bool `json:"-"`

	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	Definitions map[string]*Schema `json:"definitions,omitempty"`

	// items is polymorphic: a single schema applies to every element
	// (ItemsSchema), or an array of schemas applies positionally
	// (ItemsTuple) with AdditionalItems governing elements past the tuple's
	// length. Exactly one of ItemsSchema/ItemsTuple is non-nil once a
	// schema has been parsed with an "items" keyword present; both may be
	// nil if "items" was absent.
	ItemsSchema     *Schema   `json:"-"`
	ItemsTuple      []*Schema `json:"-"`
	AdditionalItems *Schema   `json:"additionalItems,omitempty"`

	Properties           *SchemaMap `json:"properties,omitempty"`
	PatternProperties    *SchemaMap `json:"patternProperties,omitempty"`
	AdditionalProperties *Schema    `json:"additionalProperties,omitempty"`

	Type SchemaType `json:"type,omitempty"`
	Enum []any      `json:"enum,omitempty"`

	MultipleOf       *Rat  `json:"multipleOf,omitempty"`
	Maximum          *Rat  `json:"maximum,omitempty"`
	ExclusiveMaximum *bool `json:"exclusiveMaximum,omitempty"`
	Minimum          *Rat  `json:"minimum,omitempty"`
	ExclusiveMinimum *bool `json:"exclusiveMinimum,omitempty"`

	MaxLength *float64 `json:"maxLength,omitempty"`
	MinLength *float64 `json:"minLength,omitempty"`
	Pattern   *string  `json:"pattern,omitempty"`

	MaxItems    *float64 `json:"maxItems,omitempty"`
	MinItems    *float64 `json:"minItems,omitempty"`
	UniqueItems *bool    `json:"uniqueItems,omitempty"`

	MaxProperties *float64                     `json:"maxProperties,omitempty"`
	MinProperties *float64                     `json:"minProperties,omitempty"`
	Required      []string                     `json:"required,omitempty"`
	Dependencies  map[string]*DependencyValue `json:"dependencies,omitempty"`

	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Default     any     `json:"default,omitempty"`
	Examples    []any   `json:"examples,omitempty"`

	// Extra holds keywords present in the source document that knownSchemaFields
	// does not recognize, preserved opaquely and never validated.
	Extra map[string]any `json:"-"`
}

// newSchema parses JSON schema data and returns a Schema object.
func newSchema(jsonSchema []byte) (*Schema, error) {
	schema := &Schema{}
	if err := json.Unmarshal(jsonSchema, schema); err != nil {
		return nil, err
	}
	return schema, nil
}

// initializeSchema sets up the schema structure, resolves URIs, and initializes nested schemas.
func (s *Schema) initializeSchema(compiler *Compiler, parent *Schema) {
	s.initializeSchemaCore(compiler, parent, true)
}

// initializeSchemaWithoutReferences sets up the schema structure without resolving references.
// Used by CompileBatch to defer reference resolution until all schemas are compiled.
func (s *Schema) initializeSchemaWithoutReferences(compiler *Compiler, parent *Schema) {
	s.initializeSchemaCore(compiler, parent, false)
}

// initializeSchemaCore contains the shared initialization logic: resolving
// this schema's base URI from its own "id" (if any) and the parent scope,
// registering id-fragment anchors, and recursing into nested schemas.
func (s *Schema) initializeSchemaCore(compiler *Compiler, parent *Schema, resolveRefs bool) {
	if compiler != nil {
		s.compiler = compiler
	}
	s.parent = parent

	effectiveCompiler := s.GetCompiler()

	parentBaseURI := s.getParentBaseURI()
	if parentBaseURI == "" && effectiveCompiler != nil {
		parentBaseURI = effectiveCompiler.DefaultBaseURI
	}

	if s.ID != "" {
		idBase, idAnchor := splitRef(s.ID)
		if idBase != "" {
			if isValidURI(idBase) {
				s.uri = idBase
				s.baseURI = getBaseURI(idBase)
			} else {
				resolvedURL := resolveRelativeURI(parentBaseURI, idBase)
				s.uri = resolvedURL
				s.baseURI = getBaseURI(resolvedURL)
			}
		} else {
			s.baseURI = parentBaseURI
		}
		if idAnchor != "" && !isJSONPointer(idAnchor) {
			s.setAnchor(idAnchor)
		}
	} else {
		s.baseURI = parentBaseURI
	}

	if s.baseURI == "" && s.uri != "" && isValidURI(s.uri) {
		s.baseURI = getBaseURI(s.uri)
	}

	if s.uri != "" && isValidURI(s.uri) {
		root := s.getRootSchema()
		root.setSchema(s.uri, s)
	}

	initializeNestedSchemasCore(s, compiler, resolveRefs)
	if resolveRefs {
		s.resolveReferences()
	}

	if effectiveCompiler != nil && !effectiveCompiler.PreserveExtra {
		s.Extra = nil
	}
}

// initializeNestedSchemasCore recurses into every field that can hold a
// nested Schema, in the draft-04 keyword set.
func initializeNestedSchemasCore(s *Schema, compiler *Compiler, resolveRefs bool) {
	initChild := func(child *Schema) {
		if child != nil {
			child.initializeSchemaCore(compiler, s, resolveRefs)
		}
	}

	for _, def := range s.Definitions {
		initChild(def)
	}
	for _, schema := range s.AllOf {
		initChild(schema)
	}
	for _, schema := range s.AnyOf {
		initChild(schema)
	}
	for _, schema := range s.OneOf {
		initChild(schema)
	}
	initChild(s.Not)

	initChild(s.ItemsSchema)
	for _, item := range s.ItemsTuple {
		initChild(item)
	}
	initChild(s.AdditionalItems)

	initChild(s.AdditionalProperties)
	if s.Properties != nil {
		for _, prop := range *s.Properties {
			initChild(prop)
		}
	}
	if s.PatternProperties != nil {
		for _, prop := range *s.PatternProperties {
			initChild(prop)
		}
	}
	for _, dep := range s.Dependencies {
		if dep != nil {
			initChild(dep.Schema)
		}
	}
}

// validateRegexSyntax validates that all regex patterns in the schema are valid Go RE2 syntax.
// It recursively checks pattern and patternProperties in the schema and all nested schemas.
func (s *Schema) validateRegexSyntax() error {
	if s == nil {
		return nil
	}

	visited := make(map[*Schema]bool)
	errs := s.collectRegexErrors(nil, visited)
	if len(errs) == 0 {
		return nil
	}

	combined := append([]error{ErrRegexValidation}, errs...)
	return errors.Join(combined...)
}

// collectRegexErrors recursively collects regex compilation errors from the schema tree.
func (s *Schema) collectRegexErrors(pathTokens []string, visited map[*Schema]bool) []error {
	if s == nil || visited[s] {
		return nil
	}
	visited[s] = true

	var errs []error

	if s.Pattern != nil {
		if err := compilePattern(*s.Pattern); err != nil {
			patternTokens := slices.Concat(pathTokens, []string{"pattern"})
			errs = append(errs, &RegexPatternError{
				Keyword:  "pattern",
				Location: "#" + jsonpointer.Format(patternTokens...),
				Pattern:  *s.Pattern,
				Err:      err,
			})
		}
	}

	if s.PatternProperties != nil {
		for pattern, schema := range *s.PatternProperties {
			patternPropTokens := slices.Concat(pathTokens, []string{"patternProperties", pattern})
			if err := compilePattern(pattern); err != nil {
				errs = append(errs, &RegexPatternError{
					Keyword:  "patternProperties",
					Location: "#" + jsonpointer.Format(patternPropTokens...),
					Pattern:  pattern,
					Err:      err,
				})
				continue
			}
			errs = append(errs, schema.collectRegexErrors(patternPropTokens, visited)...)
		}
	}

	addSchema := func(child *Schema, token string) {
		if child == nil {
			return
		}
		childTokens := slices.Concat(pathTokens, []string{token})
		errs = append(errs, child.collectRegexErrors(childTokens, visited)...)
	}

	addSchemaMap := func(m map[string]*Schema, prefix string) {
		for key, schema := range m {
			mapTokens := slices.Concat(pathTokens, []string{prefix, key})
			errs = append(errs, schema.collectRegexErrors(mapTokens, visited)...)
		}
	}

	addSchemaSlice := func(children []*Schema, prefix string) {
		for i, child := range children {
			sliceTokens := slices.Concat(pathTokens, []string{prefix, strconv.Itoa(i)})
			errs = append(errs, child.collectRegexErrors(sliceTokens, visited)...)
		}
	}

	if s.Properties != nil {
		addSchemaMap(map[string]*Schema(*s.Properties), "properties")
	}
	addSchemaMap(s.Definitions, "definitions")
	for key, dep := range s.Dependencies {
		if dep != nil && dep.Schema != nil {
			depTokens := slices.Concat(pathTokens, []string{"dependencies", key})
			errs = append(errs, dep.Schema.collectRegexErrors(depTokens, visited)...)
		}
	}

	addSchema(s.AdditionalProperties, "additionalProperties")
	addSchema(s.ItemsSchema, "items")
	addSchema(s.AdditionalItems, "additionalItems")
	addSchema(s.Not, "not")
	addSchema(s.ResolvedRef, "$ref")

	addSchemaSlice(s.ItemsTuple, "items")
	addSchemaSlice(s.AllOf, "allOf")
	addSchemaSlice(s.AnyOf, "anyOf")
	addSchemaSlice(s.OneOf, "oneOf")

	return errs
}

// compilePattern validates that a regex pattern is valid Go RE2 syntax.
func compilePattern(pattern string) error {
	if pattern == "" {
		return nil
	}
	_, err := regexp.Compile(pattern)
	return err
}

// setAnchor registers a plain-name id-fragment anchor (e.g. "id": "#foo")
// for lookup during $ref resolution, both on this schema and, if it shares
// the root's scope, on the root schema.
func (s *Schema) setAnchor(anchor string) {
	if s.anchors == nil {
		s.anchors = make(map[string]*Schema)
	}
	s.anchors[anchor] = s

	root := s.getRootSchema()
	if root.anchors == nil {
		root.anchors = make(map[string]*Schema)
	}

	if s.ID == "" || s.ID == root.ID {
		if _, ok := root.anchors[anchor]; !ok {
			root.anchors[anchor] = s
		}
	}
}

// setSchema adds a schema to the internal schema cache, using the provided URI as the key.
func (s *Schema) setSchema(uri string, schema *Schema) *Schema {
	if s.schemas == nil {
		s.schemas = make(map[string]*Schema)
	}
	s.schemas[uri] = schema
	return s
}

func (s *Schema) getSchema(ref string) (*Schema, error) {
	baseURI, anchor := splitRef(ref)

	if schema, exists := s.schemas[baseURI]; exists {
		if baseURI == ref {
			return schema, nil
		}
		return schema.resolveAnchor(anchor)
	}

	return nil, ErrReferenceResolution
}

// GetSchemaURI returns the resolved URI for the schema, or an empty string if no URI is defined.
func (s *Schema) GetSchemaURI() string {
	if s.uri != "" {
		return s.uri
	}
	root := s.getRootSchema()
	if root.uri != "" {
		return root.uri
	}
	return ""
}

// GetSchemaLocation returns the schema location with the given anchor
func (s *Schema) GetSchemaLocation(anchor string) string {
	return s.GetSchemaURI() + "#" + anchor
}

// getRootSchema returns the highest-level parent schema, serving as the root in the schema tree.
func (s *Schema) getRootSchema() *Schema {
	if s.parent != nil {
		return s.parent.getRootSchema()
	}
	return s
}

// getScopeSchema returns the innermost schema (including s itself) that
// defines its own "id", i.e. the schema whose base URI governs s. This is
// the "innermost enclosing id" scope referenced in the reference scope
// rules for resolving relative $ref values.
func (s *Schema) getScopeSchema() *Schema {
	if s.ID != "" {
		return s
	}
	if s.parent != nil {
		return s.parent.getScopeSchema()
	}
	return s
}

// getParentBaseURI returns the base URI from the nearest parent schema that has one defined,
// or an empty string if none of the parents up to the root define a base URI.
func (s *Schema) getParentBaseURI() string {
	for p := s.parent; p != nil; p = p.parent {
		if p.baseURI != "" {
			return p.baseURI
		}
	}
	return ""
}

// MarshalJSON implements json.Marshaler
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.Boolean != nil {
		return json.Marshal(s.Boolean)
	}

	type Alias Schema
	alias := (*Alias)(s)

	data, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	switch {
	case s.ItemsSchema != nil:
		result["items"] = s.ItemsSchema
	case s.ItemsTuple != nil:
		result["items"] = s.ItemsTuple
	}

	maps.Copy(result, s.Extra)

	return json.Marshal(result)
}

// UnmarshalJSON handles unmarshaling JSON data into the Schema type,
// including the polymorphic "items" keyword: a leading '[' means a tuple
// (ItemsTuple), anything else is a single schema applied to every element
// (ItemsSchema).
func (s *Schema) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		s.Boolean = &b
		return nil
	}

	type Alias Schema
	aux := &struct {
		Items json.RawMessage `json:"items,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(s),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Items) > 0 {
		trimmed := bytes.TrimSpace(aux.Items)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(aux.Items, &s.ItemsTuple); err != nil {
				return err
			}
		} else {
			itemsSchema := &Schema{}
			if err := json.Unmarshal(aux.Items, itemsSchema); err != nil {
				return err
			}
			s.ItemsSchema = itemsSchema
		}
	}

	return s.collectExtraFields(data)
}

func (s *Schema) collectExtraFields(raw []byte) error {
	var allFields map[string]any
	if err := json.Unmarshal(raw, &allFields); err != nil {
		return err
	}

	for key := range knownSchemaFields {
		delete(allFields, key)
	}

	if len(allFields) > 0 {
		s.Extra = allFields
	}
	return nil
}

// SchemaMap represents a map of string keys to *Schema values, used for properties and patternProperties.
type SchemaMap map[string]*Schema

// MarshalJSON ensures that SchemaMap serializes properly as a JSON object.
func (sm SchemaMap) MarshalJSON() ([]byte, error) {
	m := make(map[string]*Schema)
	maps.Copy(m, sm)
	return json.Marshal(m)
}

// UnmarshalJSON ensures that JSON objects are correctly parsed into SchemaMap.
func (sm *SchemaMap) UnmarshalJSON(data []byte) error {
	m := make(map[string]*Schema)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*sm = SchemaMap(m)
	return nil
}

// SchemaType holds one or more JSON types a "type" keyword constrains an instance to.
type SchemaType []string

// MarshalJSON customizes the JSON serialization of SchemaType: a single
// type serializes as a bare string, matching how draft-04 schemas are
// conventionally authored.
func (st SchemaType) MarshalJSON() ([]byte, error) {
	if len(st) == 1 {
		return json.Marshal(st[0])
	}
	return json.Marshal([]string(st))
}

// UnmarshalJSON customizes the JSON deserialization into SchemaType.
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var singleType string
	if err := json.Unmarshal(data, &singleType); err == nil {
		*st = SchemaType{singleType}
		return nil
	}

	var multiType []string
	if err := json.Unmarshal(data, &multiType); err == nil {
		*st = SchemaType(multiType)
		return nil
	}

	return ErrInvalidSchemaType
}

// SetCompiler sets a custom Compiler for the Schema and returns the Schema itself to support method chaining
func (s *Schema) SetCompiler(compiler *Compiler) *Schema {
	s.compiler = compiler
	return s
}

// GetCompiler gets the effective Compiler for the Schema.
// Lookup order: current Schema -> parent Schema -> defaultCompiler
func (s *Schema) GetCompiler() *Compiler {
	if s.compiler != nil {
		return s.compiler
	}
	if s.parent != nil {
		return s.parent.GetCompiler()
	}
	return defaultCompiler
}
