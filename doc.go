// Package jsonschema implements a JSON Schema Draft-04 validator for Go,
// compiling schema documents into a validation tree and evaluating instances
// against it with a detailed, localizable error report.
package jsonschema
