package pipeline

import "fmt"

// Pipeline runs the full markdown-to-sanitized-HTML transformation:
// preprocess, convert (goldmark), highlight placeholders, sanitize,
// serialize. It is a pure function of its input: no state is carried
// between calls and the same markdown always yields the same HTML.
type Pipeline struct {
	preprocessor MarkdownPreprocessor
	converter    HTMLConverter
	sanitizer    HTMLSanitizer
}

// New creates a Pipeline for the given sanitization schema.
func New(schema Schema) (*Pipeline, error) {
	sanitizer, err := NewSchemaSanitizer(schema)
	if err != nil {
		return nil, fmt.Errorf("building sanitizer: %w", err)
	}
	return &Pipeline{
		preprocessor: &CommonMarkPreprocessor{},
		converter:    NewGoldmarkConverter(),
		sanitizer:    sanitizer,
	}, nil
}

// Render transforms markdown into a sanitized HTML fragment.
// A fault in any stage aborts the whole request; partial output is
// never returned.
func (p *Pipeline) Render(markdown string) (string, error) {
	content := p.preprocessor.PreprocessMarkdown(markdown)

	fragment, err := p.converter.ToHTML(content)
	if err != nil {
		return "", fmt.Errorf("converting to HTML: %w", err)
	}

	// Complete the ==text== feature started in preprocessing. Done after
	// Goldmark to avoid needing html.WithUnsafe(); the inserted <mark>
	// tags are re-parsed and vetted by the sanitizer like everything else.
	fragment = ConvertMarkPlaceholders(fragment)

	clean, err := p.sanitizer.Sanitize(fragment)
	if err != nil {
		return "", fmt.Errorf("sanitizing HTML: %w", err)
	}
	return clean, nil
}
