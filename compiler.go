package jsonschema

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// draft04MetaSchema is the JSON Schema draft-04 meta-schema, pre-registered
// under its canonical URI so that "$ref":
// "http://json-schema.org/draft-04/schema#" resolves without a network
// fetch.
const draft04MetaSchemaURI = "http://json-schema.org/draft-04/schema#"

const draft04MetaSchema = `{
	"id": "http://json-schema.org/draft-04/schema#",
	"$schema": "http://json-schema.org/draft-04/schema#",
	"description": "Core schema meta-schema",
	"definitions": {
		"schemaArray": {
			"type": "array",
			"minItems": 1,
			"items": { "$ref": "#" }
		},
		"positiveInteger": {
			"type": "integer",
			"minimum": 0
		},
		"positiveIntegerDefault0": {
			"allOf": [ { "$ref": "#/definitions/positiveInteger" }, { "default": 0 } ]
		},
		"simpleTypes": {
			"enum": [ "array", "boolean", "integer", "null", "number", "object", "string" ]
		},
		"stringArray": {
			"type": "array",
			"items": { "type": "string" },
			"minItems": 1,
			"uniqueItems": true
		}
	},
	"type": "object",
	"properties": {
		"id": { "type": "string" },
		"$schema": { "type": "string" },
		"title": { "type": "string" },
		"description": { "type": "string" },
		"default": {},
		"multipleOf": { "type": "number", "minimum": 0, "exclusiveMinimum": true },
		"maximum": { "type": "number" },
		"exclusiveMaximum": { "type": "boolean", "default": false },
		"minimum": { "type": "number" },
		"exclusiveMinimum": { "type": "boolean", "default": false },
		"maxLength": { "$ref": "#/definitions/positiveInteger" },
		"minLength": { "$ref": "#/definitions/positiveIntegerDefault0" },
		"pattern": { "type": "string", "format": "regex" },
		"additionalItems": { "anyOf": [ { "type": "boolean" }, { "$ref": "#" } ], "default": {} },
		"items": { "anyOf": [ { "$ref": "#" }, { "$ref": "#/definitions/schemaArray" } ], "default": {} },
		"maxItems": { "$ref": "#/definitions/positiveInteger" },
		"minItems": { "$ref": "#/definitions/positiveIntegerDefault0" },
		"uniqueItems": { "type": "boolean", "default": false },
		"maxProperties": { "$ref": "#/definitions/positiveInteger" },
		"minProperties": { "$ref": "#/definitions/positiveIntegerDefault0" },
		"required": { "$ref": "#/definitions/stringArray" },
		"additionalProperties": { "anyOf": [ { "type": "boolean" }, { "$ref": "#" } ], "default": {} },
		"definitions": { "type": "object", "additionalProperties": { "$ref": "#" }, "default": {} },
		"properties": { "type": "object", "additionalProperties": { "$ref": "#" }, "default": {} },
		"patternProperties": { "type": "object", "additionalProperties": { "$ref": "#" }, "default": {} },
		"dependencies": { "type": "object", "additionalProperties": { "anyOf": [ { "$ref": "#" }, { "$ref": "#/definitions/stringArray" } ] } },
		"enum": { "type": "array", "minItems": 1, "uniqueItems": true },
		"type": { "anyOf": [ { "$ref": "#/definitions/simpleTypes" }, { "type": "array", "items": { "$ref": "#/definitions/simpleTypes" }, "minItems": 1, "uniqueItems": true } ] },
		"allOf": { "$ref": "#/definitions/schemaArray" },
		"anyOf": { "$ref": "#/definitions/schemaArray" },
		"oneOf": { "$ref": "#/definitions/schemaArray" },
		"not": { "$ref": "#" }
	},
	"dependencies": {
		"exclusiveMaximum": [ "maximum" ],
		"exclusiveMinimum": [ "minimum" ]
	},
	"default": {}
}`

// defaultMaxDepth bounds total recursion (instance depth plus non-consuming
// $ref hops) before validation aborts with DepthExceeded.
const defaultMaxDepth = 1024

// defaultCompiler is used by Schema.GetCompiler when a schema has no
// compiler of its own and none of its ancestors do either.
var defaultCompiler = NewCompiler()

// Compiler manages schema compilation, caching, and the settings that
// govern reference resolution (spec "fetchRemote") and recursion limits.
type Compiler struct {
	mu             sync.RWMutex
	schemas        map[string]*Schema                                 // Cache of compiled schemas, keyed by URI.
	unresolvedRefs map[string][]*Schema                               // Schemas waiting on a URI that hasn't compiled yet.
	Decoders       map[string]func(string) ([]byte, error)            // Decoders for encoded string payloads (e.g. base64).
	MediaTypes     map[string]func([]byte) (any, error)               // Content-type decoders used when fetching remote schemas.
	Loaders        map[string]func(url string) (io.ReadCloser, error) // Schemes this compiler can fetch remote schemas over.
	DefaultBaseURI string                                             // Base URI used to resolve relative references with no enclosing id.
	PreserveExtra  bool                                                // Keep unrecognized keywords on Schema.Extra after compilation.
	MaxDepth       int                                                // Recursion cap; 0 means defaultMaxDepth.

	jsonEncoder func(v any) ([]byte, error)
	jsonDecoder func(data []byte, v any) error
}

// NewCompiler creates a new Compiler instance and pre-registers the
// draft-04 meta-schema under its canonical URI.
func NewCompiler() *Compiler {
	compiler := &Compiler{
		schemas:        make(map[string]*Schema),
		unresolvedRefs: make(map[string][]*Schema),
		Decoders:       make(map[string]func(string) ([]byte, error)),
		MediaTypes:     make(map[string]func([]byte) (any, error)),
		Loaders:        make(map[string]func(url string) (io.ReadCloser, error)),
		DefaultBaseURI: "",
		MaxDepth:       defaultMaxDepth,

		jsonEncoder: func(v any) ([]byte, error) { return json.Marshal(v) },
		jsonDecoder: func(data []byte, v any) error { return json.Unmarshal(data, v) },
	}
	compiler.initDefaults()
	compiler.registerMetaSchema()
	return compiler
}

// registerMetaSchema compiles and caches the draft-04 meta-schema so that
// "$ref": "http://json-schema.org/draft-04/schema#" resolves without a
// network fetch, per the reference resolver's pre-registration requirement.
func (c *Compiler) registerMetaSchema() {
	schema, err := newSchema([]byte(draft04MetaSchema))
	if err != nil {
		// The embedded meta-schema is a compile-time constant; a parse
		// failure here is a programming error, not a runtime condition.
		panic(fmt.Sprintf("jsonschema: invalid embedded draft-04 meta-schema: %v", err))
	}
	schema.initializeSchema(c, nil)
	metaURI, _ := splitRef(draft04MetaSchemaURI)
	c.schemas[metaURI] = schema
}

// WithEncoderJSON configures custom JSON encoder implementation
func (c *Compiler) WithEncoderJSON(encoder func(v any) ([]byte, error)) *Compiler {
	c.jsonEncoder = encoder
	return c
}

// WithDecoderJSON configures custom JSON decoder implementation
func (c *Compiler) WithDecoderJSON(decoder func(data []byte, v any) error) *Compiler {
	c.jsonDecoder = decoder
	return c
}

// Compile compiles a JSON schema and caches it. If a URI is provided, it uses that as the key.
func (c *Compiler) Compile(jsonSchema []byte, uris ...string) (*Schema, error) {
	schema, err := newSchema(jsonSchema)
	if err != nil {
		return nil, err
	}

	if schema.ID == "" && len(uris) > 0 {
		schema.ID = uris[0]
	}

	uri := schema.ID

	if uri != "" && isValidURI(uri) {
		schema.uri = uri

		c.mu.RLock()
		existingSchema, exists := c.schemas[uri]
		c.mu.RUnlock()

		if exists {
			return existingSchema, nil
		}
	}

	schema.initializeSchema(c, nil)

	if err := schema.validateRegexSyntax(); err != nil {
		return nil, err
	}

	if err := schema.validateIdentifiers(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if schema.uri != "" && isValidURI(schema.uri) {
		c.schemas[schema.uri] = schema
	}

	c.trackUnresolvedReferences(schema)

	var schemasToResolve []*Schema
	if schema.uri != "" {
		if waitingSchemas, exists := c.unresolvedRefs[schema.uri]; exists {
			schemasToResolve = make([]*Schema, len(waitingSchemas))
			copy(schemasToResolve, waitingSchemas)
			delete(c.unresolvedRefs, schema.uri)
		}
	}
	c.mu.Unlock()

	for _, waitingSchema := range schemasToResolve {
		waitingSchema.ResolveUnresolvedReferences()
		c.mu.Lock()
		c.trackUnresolvedReferences(waitingSchema)
		c.mu.Unlock()
	}

	return schema, nil
}

// CompileYAML decodes a YAML-authored schema document into the same
// JSON-shaped tree the rest of the compiler operates on, then compiles it.
func (c *Compiler) CompileYAML(yamlSchema []byte, uris ...string) (*Schema, error) {
	var tree any
	if err := yaml.Unmarshal(yamlSchema, &tree); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrYAMLUnmarshal, err)
	}

	jsonBytes, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrJSONMarshal, err)
	}

	return c.Compile(jsonBytes, uris...)
}

// trackUnresolvedReferences tracks which schemas have unresolved references to which URIs.
// Must be called with mutex locked.
func (c *Compiler) trackUnresolvedReferences(schema *Schema) {
	unresolvedURIs := schema.GetUnresolvedReferenceURIs()
	for _, uri := range unresolvedURIs {
		if c.unresolvedRefs[uri] == nil {
			c.unresolvedRefs[uri] = make([]*Schema, 0)
		}
		found := false
		for _, existing := range c.unresolvedRefs[uri] {
			if existing == schema {
				found = true
				break
			}
		}
		if !found {
			c.unresolvedRefs[uri] = append(c.unresolvedRefs[uri], schema)
		}
	}
}

// resolveSchemaURL attempts to fetch and compile a schema from a URL. A
// scheme with no registered loader returns RefError rather than silently
// skipping remote resolution - per spec, only the meta-schema is resolved
// by default and any other remote URI requires an explicit opt-in loader.
func (c *Compiler) resolveSchemaURL(url string) (*Schema, error) {
	id, anchor := splitRef(url)

	c.mu.RLock()
	schema, exists := c.schemas[id]
	c.mu.RUnlock()

	if exists {
		return schema, nil
	}

	loader, ok := c.Loaders[getURLScheme(url)]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrRefResolutionFailed, ErrNoLoaderRegistered, url)
	}

	body, err := loader(url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, ErrDataRead
	}

	compiledSchema, err := c.Compile(data, id)
	if err != nil {
		return nil, err
	}

	if anchor != "" {
		return compiledSchema.resolveAnchor(anchor)
	}

	return compiledSchema, nil
}

// SetSchema associates a specific schema with a URI.
func (c *Compiler) SetSchema(uri string, schema *Schema) *Compiler {
	c.mu.Lock()
	c.schemas[uri] = schema
	c.mu.Unlock()
	return c
}

// GetSchema retrieves a schema by reference. If the schema is not found in the cache and the ref is a URL, it tries to resolve it.
func (c *Compiler) GetSchema(ref string) (*Schema, error) {
	baseURI, anchor := splitRef(ref)

	c.mu.RLock()
	schema, exists := c.schemas[baseURI]
	c.mu.RUnlock()

	if exists {
		if baseURI == ref || anchor == "" {
			return schema, nil
		}
		return schema.resolveAnchor(anchor)
	}

	return c.resolveSchemaURL(ref)
}

// SetDefaultBaseURI sets the default base URL for resolving relative references.
func (c *Compiler) SetDefaultBaseURI(baseURI string) *Compiler {
	c.DefaultBaseURI = baseURI
	return c
}

// SetPreserveExtra controls whether unrecognized keywords survive compilation on Schema.Extra.
func (c *Compiler) SetPreserveExtra(preserve bool) *Compiler {
	c.PreserveExtra = preserve
	return c
}

// SetMaxDepth configures the recursion cap enforced during validation. A
// value <= 0 resets it to defaultMaxDepth.
func (c *Compiler) SetMaxDepth(depth int) *Compiler {
	if depth <= 0 {
		depth = defaultMaxDepth
	}
	c.MaxDepth = depth
	return c
}

func (c *Compiler) maxDepth() int {
	if c == nil || c.MaxDepth <= 0 {
		return defaultMaxDepth
	}
	return c.MaxDepth
}

// RegisterDecoder adds a new decoder function for a specific encoding.
func (c *Compiler) RegisterDecoder(encodingName string, decoderFunc func(string) ([]byte, error)) *Compiler {
	c.Decoders[encodingName] = decoderFunc
	return c
}

// RegisterMediaType adds a new unmarshal function for a specific media type.
func (c *Compiler) RegisterMediaType(mediaTypeName string, unmarshalFunc func([]byte) (any, error)) *Compiler {
	c.MediaTypes[mediaTypeName] = unmarshalFunc
	return c
}

// RegisterLoader adds a new loader function for a specific URI scheme. No
// scheme has a loader registered by default except http/https; remote
// $ref resolution for any other scheme (or for http/https without calling
// this) returns RefError instead of silently failing open.
func (c *Compiler) RegisterLoader(scheme string, loaderFunc func(url string) (io.ReadCloser, error)) *Compiler {
	c.Loaders[scheme] = loaderFunc
	return c
}

// initDefaults initializes default values for decoders, media types, and loaders.
func (c *Compiler) initDefaults() {
	c.Decoders["base64"] = base64.StdEncoding.DecodeString
	c.setupMediaTypes()
	c.setupLoaders()
}

// setupMediaTypes configures default media type handlers used when content
// negotiation determines how a remote schema body should be decoded.
func (c *Compiler) setupMediaTypes() {
	c.MediaTypes["application/json"] = func(data []byte) (any, error) {
		var temp any
		if err := c.jsonDecoder(data, &temp); err != nil {
			return nil, ErrJSONUnmarshal
		}
		return temp, nil
	}

	c.MediaTypes["application/xml"] = func(data []byte) (any, error) {
		var temp any
		if err := xml.Unmarshal(data, &temp); err != nil {
			return nil, ErrXMLUnmarshal
		}
		return temp, nil
	}

	c.MediaTypes["application/yaml"] = func(data []byte) (any, error) {
		var temp any
		if err := yaml.Unmarshal(data, &temp); err != nil {
			return nil, ErrYAMLUnmarshal
		}
		return temp, nil
	}
}

// setupLoaders configures default loaders for fetching schemas via HTTP/HTTPS.
func (c *Compiler) setupLoaders() {
	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	defaultHTTPLoader := func(url string) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(context.Background(), "GET", url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, ErrNetworkFetch
		}

		if resp.StatusCode != http.StatusOK {
			err = resp.Body.Close()
			if err != nil {
				return nil, err
			}
			return nil, ErrInvalidStatusCode
		}

		return resp.Body, nil
	}

	c.RegisterLoader("http", defaultHTTPLoader)
	c.RegisterLoader("https", defaultHTTPLoader)
}

// CompileBatch compiles multiple schemas efficiently by deferring reference resolution
// until all schemas are compiled. Most efficient when schemas have interdependencies.
func (c *Compiler) CompileBatch(schemas map[string][]byte) (map[string]*Schema, error) {
	compiledSchemas := make(map[string]*Schema)

	for id, schemaBytes := range schemas {
		schema, err := newSchema(schemaBytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSchemaCompilation, id, err)
		}

		if schema.ID == "" {
			schema.ID = id
		}
		schema.uri = schema.ID

		schema.compiler = c
		schema.initializeSchemaWithoutReferences(c, nil)

		compiledSchemas[id] = schema

		c.mu.Lock()
		if schema.uri != "" && isValidURI(schema.uri) {
			c.schemas[schema.uri] = schema
		}
		c.mu.Unlock()
	}

	for _, schema := range compiledSchemas {
		schema.resolveReferences()
	}

	return compiledSchemas, nil
}
