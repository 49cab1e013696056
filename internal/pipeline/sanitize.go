package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrSanitize indicates sanitization failed.
var ErrSanitize = errors.New("sanitization failed")

// HTMLSanitizer abstracts allow-list sanitization of HTML fragments.
type HTMLSanitizer interface {
	Sanitize(fragment string) (string, error)
}

// SchemaSanitizer applies an allow-list Schema to rendered HTML fragments.
// It operates on the parsed node tree rather than the serialized text,
// so malformed markup cannot smuggle structure past the filter.
type SchemaSanitizer struct {
	schema Schema
}

// NewSchemaSanitizer creates a sanitizer for the given schema.
func NewSchemaSanitizer(schema Schema) (*SchemaSanitizer, error) {
	if len(schema.AllowedTags) == 0 {
		return nil, ErrSchemaEmpty
	}
	return &SchemaSanitizer{schema: schema}, nil
}

// Sanitize parses the fragment, filters it against the schema, and
// re-serializes the surviving tree. Disallowed elements are unwrapped:
// the element disappears but its children remain, keeping the safe
// content readable instead of leaking escaped markup into the text.
func (s *SchemaSanitizer) Sanitize(fragment string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSanitize, err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		for _, kept := range s.clean(n) {
			if err := html.Render(&buf, kept); err != nil {
				return "", fmt.Errorf("%w: %v", ErrSanitize, err)
			}
		}
	}
	return buf.String(), nil
}

// clean filters one detached node and returns its replacement nodes:
// the node itself if its tag is allowed, its surviving children if not.
func (s *SchemaSanitizer) clean(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{n}

	case html.ElementNode:
		var kept []*html.Node
		for _, c := range detachChildren(n) {
			kept = append(kept, s.clean(c)...)
		}

		tag := strings.ToLower(n.Data)
		if !s.schema.AllowedTags[tag] {
			// Unwrap: the element goes, its content stays. Raw text
			// children (e.g. a script body) are re-serialized as escaped
			// text, which is inert.
			return kept
		}

		n.Attr = s.filterAttrs(tag, n.Attr)
		for _, c := range kept {
			n.AppendChild(c)
		}
		return []*html.Node{n}

	default:
		// Comments and doctypes carry no user-visible content.
		return nil
	}
}

// filterAttrs keeps only attributes the schema allows for the tag,
// applying the per-attribute URL scheme policy where one is defined.
func (s *SchemaSanitizer) filterAttrs(tag string, attrs []html.Attribute) []html.Attribute {
	allowed := s.schema.AllowedAttributes[tag]
	if len(allowed) == 0 {
		return nil
	}

	var out []html.Attribute
	for _, a := range attrs {
		if a.Namespace != "" {
			continue
		}
		key := strings.ToLower(a.Key)
		if !allowed[key] {
			continue
		}
		if schemes, guarded := s.schema.AllowedProtocols[key]; guarded {
			// goldmark blanks destinations it deems dangerous before this
			// stage runs. An empty guarded URL carries no legitimate
			// target either way, so the attribute goes.
			trimmed := strings.TrimSpace(a.Val)
			if trimmed == "" || !schemeAllowed(trimmed, schemes) {
				continue
			}
		}
		a.Key = key
		out = append(out, a)
	}
	return out
}

// schemeAllowed reports whether the URL's scheme is permitted.
// Relative URLs carry no scheme to judge and pass; protocol-relative
// URLs inherit a scheme implicitly and do not. Anything unparseable
// is dropped.
func schemeAllowed(val string, schemes map[string]bool) bool {
	trimmed := strings.TrimSpace(val)
	if strings.HasPrefix(trimmed, "//") {
		return false
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	if u.Scheme == "" {
		return true
	}
	return schemes[strings.ToLower(u.Scheme)]
}

// detachChildren unlinks and returns n's children in document order.
// AppendChild requires parentless nodes, so children are detached
// before the tree is rebuilt around surviving elements.
func detachChildren(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		children = append(children, c)
		c = next
	}
	return children
}
