// Package schema holds the caller-supplied schema description consumed by the
// synthesis pipeline.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Context is an immutable holder of the unified schema document describing the
// store's collections, fields, and relationships. It is supplied by the caller
// per request and never mutated.
type Context struct {
	text string
}

// NewContext creates a schema context from the given description text.
func NewContext(text string) *Context {
	return &Context{text: text}
}

// LoadFile reads a schema description from disk.
func LoadFile(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return NewContext(string(data)), nil
}

// Text returns the schema description text.
func (c *Context) Text() string {
	return c.text
}

// Len returns the length of the schema text in bytes.
func (c *Context) Len() int {
	return len(c.text)
}

// Hash returns a stable digest of the schema text, used in cache keys.
func (c *Context) Hash() string {
	sum := sha256.Sum256([]byte(c.text))
	return hex.EncodeToString(sum[:])
}

// Array markers accepted by RecognizesArrayField. Schema documents in the wild
// describe array fields as "array", "[]", or "list of ...".
var arrayMarkers = []string{"array", "[]", "list of"}

// RecognizesArrayField reports whether the schema text describes the given
// field as an array. The check is textual and best-effort: it scans for a line
// mentioning the field's root name together with an array marker. Field
// references may carry a leading "$" and dotted paths.
func (c *Context) RecognizesArrayField(field string) bool {
	name := strings.TrimPrefix(field, "$")
	if name == "" {
		return false
	}
	// Use the first path segment: "$employee_data.ratio" is rooted at the
	// joined alias "employee_data".
	if idx := strings.Index(name, "."); idx > 0 {
		name = name[:idx]
	}

	for _, line := range strings.Split(c.text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, strings.ToLower(name)) {
			continue
		}
		for _, marker := range arrayMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}
