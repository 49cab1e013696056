// Package pipeline implements the markdown-to-sanitized-HTML
// transformation: preprocessing, Goldmark conversion with GFM, math,
// and highlighting extensions, and structural allow-list sanitization
// of the rendered fragment.
//
// The pipeline is deterministic and stateless per call. Sanitization is
// driven by a declarative Schema (tags, per-tag attributes,
// per-attribute URL schemes) and operates on the parsed HTML tree, so
// it cannot be bypassed by malformed markup.
package pipeline
