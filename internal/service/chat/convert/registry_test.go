package convert

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		filename string
		want     string
	}{
		{"notes.md", "markdown"},
		{"NOTES.MARKDOWN", "markdown"},
		{"invoice.txt", "text"},
		{"page.html", "html"},
		{"page.HTM", "html"},
		{"report.xyz", "text"},
		{"noext", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := r.Lookup(tt.filename).Name(); got != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.filename, got, tt.want)
			}
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register(&textConverter{name: "custom", exts: []string{"XML"}})

	if got := r.Lookup("feed.xml").Name(); got != "custom" {
		t.Errorf("Lookup(feed.xml) = %s, want custom", got)
	}
}

func TestHTMLConverter(t *testing.T) {
	r := NewRegistry()
	input := `<h1>Invoice</h1><p onclick="steal()">Total <strong>10</strong></p><script>alert(1)</script>`

	got, err := r.Convert(context.Background(), "invoice.html", []byte(input))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	if !strings.Contains(got, "# Invoice") {
		t.Errorf("heading not converted: %q", got)
	}
	if !strings.Contains(got, "**10**") {
		t.Errorf("bold not converted: %q", got)
	}
	for _, banned := range []string{"<script", "alert(1)", "onclick", "steal()"} {
		if strings.Contains(got, banned) {
			t.Errorf("output contains %q: %q", banned, got)
		}
	}
}

func TestTextConverter_RejectsBinary(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"blob.bin", "page.html", "notes.md"} {
		_, err := r.Convert(context.Background(), name, []byte{0xff, 0xfe, 0x00})
		if !errors.Is(err, ErrNotText) {
			t.Errorf("Convert(%s) error = %v, want ErrNotText", name, err)
		}
	}
}
