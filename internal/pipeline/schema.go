package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for schema loading.
var (
	ErrSchemaParse = errors.New("failed to parse sanitization schema")
	ErrSchemaEmpty = errors.New("sanitization schema allows no tags")
)

//go:embed policy.yaml
var defaultPolicyYAML []byte

// Schema is the declarative allow-list driving sanitization: permitted
// structural tags, per-tag permitted attributes, and permitted URL
// schemes for link/media attributes. Everything not listed is stripped.
// A Schema is immutable after construction.
type Schema struct {
	AllowedTags       map[string]bool
	AllowedAttributes map[string]map[string]bool
	AllowedProtocols  map[string]map[string]bool
}

// schemaDoc mirrors the YAML layout of a policy document.
type schemaDoc struct {
	AllowedTags       []string            `yaml:"allowedTags"`
	AllowedAttributes map[string][]string `yaml:"allowedAttributes"`
	AllowedProtocols  map[string][]string `yaml:"allowedProtocols"`
}

// ParseSchema parses a YAML policy document into a Schema.
// Unknown fields are rejected. Tag, attribute, and scheme names are
// case-insensitive and normalized to lowercase.
func ParseSchema(data []byte) (Schema, error) {
	var doc schemaDoc
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return Schema{}, fmt.Errorf("%w: %v", ErrSchemaParse, err)
	}

	if len(doc.AllowedTags) == 0 {
		return Schema{}, ErrSchemaEmpty
	}

	s := Schema{
		AllowedTags:       make(map[string]bool, len(doc.AllowedTags)),
		AllowedAttributes: make(map[string]map[string]bool, len(doc.AllowedAttributes)),
		AllowedProtocols:  make(map[string]map[string]bool, len(doc.AllowedProtocols)),
	}
	for _, tag := range doc.AllowedTags {
		s.AllowedTags[strings.ToLower(tag)] = true
	}
	for tag, attrs := range doc.AllowedAttributes {
		s.AllowedAttributes[strings.ToLower(tag)] = toSet(attrs)
	}
	for attr, schemes := range doc.AllowedProtocols {
		s.AllowedProtocols[strings.ToLower(attr)] = toSet(schemes)
	}
	return s, nil
}

// NewSchema builds a Schema from plain tag/attribute/scheme lists.
// Names are case-insensitive and normalized to lowercase.
func NewSchema(tags []string, attrs map[string][]string, protocols map[string][]string) Schema {
	s := Schema{
		AllowedTags:       toSet(tags),
		AllowedAttributes: make(map[string]map[string]bool, len(attrs)),
		AllowedProtocols:  make(map[string]map[string]bool, len(protocols)),
	}
	for tag, list := range attrs {
		s.AllowedAttributes[strings.ToLower(tag)] = toSet(list)
	}
	for attr, list := range protocols {
		s.AllowedProtocols[strings.ToLower(attr)] = toSet(list)
	}
	return s
}

// DefaultSchema returns the built-in allow-list policy.
// The embedded policy is parsed once at package init; a parse failure
// there is a build defect, not a runtime condition.
func DefaultSchema() Schema {
	return defaultSchema
}

var defaultSchema = mustParseSchema(defaultPolicyYAML)

func mustParseSchema(data []byte) Schema {
	s, err := ParseSchema(data)
	if err != nil {
		panic("pipeline: embedded policy.yaml is invalid: " + err.Error())
	}
	return s
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}
