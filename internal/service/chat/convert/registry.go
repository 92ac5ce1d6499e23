// Package convert turns attached files into text the model can read.
package convert

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
)

// Converter renders one file format as markdown.
type Converter interface {
	Convert(ctx context.Context, input []byte) (string, error)
	SupportedExtensions() []string
	Name() string
}

// Registry routes files to converters by extension.
//
// Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[string]Converter // key: lowercase extension with dot
	fallback   Converter
}

// NewRegistry returns a registry with the markdown, text and HTML
// converters registered. Unknown extensions are treated as plain text.
func NewRegistry() *Registry {
	r := &Registry{
		converters: make(map[string]Converter),
		fallback:   NewTextConverter(),
	}
	r.Register(NewMarkdownConverter())
	r.Register(NewTextConverter())
	r.Register(NewHTMLConverter())
	return r
}

// Register associates a converter with its extensions, replacing any
// converter previously registered for them.
func (r *Registry) Register(c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range c.SupportedExtensions() {
		r.converters[normalizeExt(ext)] = c
	}
}

// Lookup returns the converter for filename, or the plain-text fallback.
func (r *Registry) Lookup(filename string) Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.converters[normalizeExt(filepath.Ext(filename))]; ok {
		return c
	}
	return r.fallback
}

// Convert renders content using the converter chosen for filename.
func (r *Registry) Convert(ctx context.Context, filename string, content []byte) (string, error) {
	return r.Lookup(filename).Convert(ctx, content)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
