package convert

import (
	"context"
	"fmt"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

// htmlConverter sanitizes HTML and then converts it to markdown. Scripts,
// event handlers and javascript: URLs never reach the model.
type htmlConverter struct {
	policy    *bluemonday.Policy
	converter *md.Converter
}

// NewHTMLConverter creates the HTML to markdown converter.
func NewHTMLConverter() Converter {
	return &htmlConverter{
		policy:    bluemonday.UGCPolicy(),
		converter: md.NewConverter("", true, nil),
	}
}

func (c *htmlConverter) Convert(ctx context.Context, input []byte) (string, error) {
	if !utf8.Valid(input) {
		return "", ErrNotText
	}

	sanitized := c.policy.SanitizeBytes(input)
	markdown, err := c.converter.ConvertBytes(sanitized)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return string(markdown), nil
}

func (c *htmlConverter) SupportedExtensions() []string { return []string{".html", ".htm"} }

func (c *htmlConverter) Name() string { return "html" }
