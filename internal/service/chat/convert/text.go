package convert

import (
	"context"
	"errors"
	"unicode/utf8"
)

// ErrNotText is returned for content that is not valid UTF-8.
var ErrNotText = errors.New("not a text file")

type textConverter struct {
	name string
	exts []string
}

// NewTextConverter passes plain text through unchanged.
func NewTextConverter() Converter {
	return &textConverter{name: "text", exts: []string{".txt", ".csv", ".json", ".log"}}
}

// NewMarkdownConverter passes markdown through unchanged.
func NewMarkdownConverter() Converter {
	return &textConverter{name: "markdown", exts: []string{".md", ".markdown"}}
}

func (c *textConverter) Convert(ctx context.Context, input []byte) (string, error) {
	if !utf8.Valid(input) {
		return "", ErrNotText
	}
	return string(input), nil
}

func (c *textConverter) SupportedExtensions() []string { return c.exts }

func (c *textConverter) Name() string { return c.name }
