package jsonschema

import "errors"

// === Network and IO Related Errors (compiler remote-schema loaders) ===
var (
	// ErrNoLoaderRegistered is returned when no loader is registered for the specified scheme.
	ErrNoLoaderRegistered = errors.New("no loader registered for scheme")

	// ErrDataRead is returned when data cannot be read from the specified URL.
	ErrDataRead = errors.New("data read failed")

	// ErrNetworkFetch is returned when there is an error fetching from the URL.
	ErrNetworkFetch = errors.New("network fetch failed")

	// ErrInvalidStatusCode is returned when an invalid HTTP status code is returned.
	ErrInvalidStatusCode = errors.New("invalid http status code")
)

// === Serialization Related Errors ===
var (
	// ErrJSONUnmarshal is returned when there is an error unmarshalling JSON.
	ErrJSONUnmarshal = errors.New("json unmarshal failed")

	// ErrJSONMarshal is returned when there is an error marshalling JSON.
	ErrJSONMarshal = errors.New("json marshal failed")

	// ErrXMLUnmarshal is returned when there is an error unmarshalling XML.
	ErrXMLUnmarshal = errors.New("xml unmarshal failed")

	// ErrYAMLUnmarshal is returned when there is an error unmarshalling YAML.
	ErrYAMLUnmarshal = errors.New("yaml unmarshal failed")
)

// === Schema Compilation and Reference Resolution Related Errors ===
var (
	// ErrSchemaCompilation is returned when a schema fails to compile.
	ErrSchemaCompilation = errors.New("schema compilation failed")

	// ErrReferenceResolution is returned when a $ref cannot be resolved against
	// the schema it was found in.
	ErrReferenceResolution = errors.New("reference resolution failed")

	// ErrGlobalReferenceResolution is returned when a $ref cannot be resolved
	// against the compiler's registry either.
	ErrGlobalReferenceResolution = errors.New("global reference resolution failed")

	// ErrRefResolutionFailed is returned when a remote $ref has no registered
	// loader for its URI scheme.
	ErrRefResolutionFailed = errors.New("$ref could not be resolved")

	// ErrJSONPointerSegmentDecode is returned when a JSON Pointer segment
	// cannot be percent-decoded.
	ErrJSONPointerSegmentDecode = errors.New("json pointer segment decode failed")

	// ErrJSONPointerSegmentNotFound is returned when a JSON Pointer segment
	// does not resolve to a schema node.
	ErrJSONPointerSegmentNotFound = errors.New("json pointer segment not found")

	// ErrInvalidSchemaType is returned when the "type" keyword's value is
	// neither a string nor an array of strings. The type names themselves
	// are not checked against the draft-04 list.
	ErrInvalidSchemaType = errors.New("invalid schema type")

	// ErrRegexValidation is returned when one or more "pattern"/"patternProperties"
	// keys fail to compile as regular expressions.
	ErrRegexValidation = errors.New("invalid regular expression in schema")

	// ErrDepthExceeded is returned when validation recursion (instance depth
	// plus non-consuming $ref hops) exceeds the compiler's configured limit.
	ErrDepthExceeded = errors.New("maximum recursion depth exceeded")
)

// === Numeric Conversion Related Errors (Rat) ===
var (
	// ErrUnsupportedTypeForRat is returned when a Go value cannot be converted
	// to a big.Rat for numeric keyword evaluation.
	ErrUnsupportedTypeForRat = errors.New("unsupported type for rational conversion")

	// ErrFailedToConvertToRat is returned when a numeric string cannot be
	// parsed into a big.Rat.
	ErrFailedToConvertToRat = errors.New("failed to convert value to rational number")
)

// === Path and Filesystem Related Errors ===
var (
	// ErrAbsolutePathResolution is returned when absolute path resolution fails.
	ErrAbsolutePathResolution = errors.New("absolute path resolution failed")

	// ErrCurrentDirectoryAccess is returned when getting the current directory fails.
	ErrCurrentDirectoryAccess = errors.New("current directory access failed")

	// ErrPathOutsideDirectory is returned when a resolved path escapes the
	// directory it was expected to stay within.
	ErrPathOutsideDirectory = errors.New("path outside directory")
)

// InvalidSchema reports that a schema document violates draft-04's shape for
// one of its keywords. Compile returns it for an "id" that does not parse as
// a URI; other keyword shapes, such as a non-positive "multipleOf", are not
// checked when the schema is parsed. It is never returned by validation.
type InvalidSchema struct {
	Path   string // JSON Pointer to the offending schema node.
	Reason string
}

func (e *InvalidSchema) Error() string {
	if e.Path == "" {
		return "invalid schema: " + e.Reason
	}
	return "invalid schema at " + e.Path + ": " + e.Reason
}

// RegexPatternError reports that a "pattern" or "patternProperties" key
// failed to compile as a regular expression.
type RegexPatternError struct {
	Keyword  string // "pattern" or "patternProperties"
	Location string // schema location ("#/..." JSON Pointer)
	Pattern  string
	Err      error
}

func (e *RegexPatternError) Error() string {
	return "invalid regular expression for " + e.Keyword + " at " + e.Location + ": " + e.Pattern + ": " + e.Err.Error()
}

func (e *RegexPatternError) Unwrap() error {
	return e.Err
}

// RefError reports that a $ref could not be resolved to a schema node, or
// that a reference forms an instance-less cycle (a ref that refers back to
// itself without ever consuming instance data).
type RefError struct {
	Ref    string
	Reason string
}

func (e *RefError) Error() string {
	return "unresolvable $ref " + e.Ref + ": " + e.Reason
}
