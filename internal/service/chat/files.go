package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"tenantchat/internal/config"
	"tenantchat/internal/domain/models"
	"tenantchat/internal/service/chat/convert"
)

// decodeAttachments returns the files rendered as delimited text blocks,
// tagged with the document type classify derives from each filename.
// HTML files are sanitized and converted to markdown first.
func decodeAttachments(
	ctx context.Context,
	converters *convert.Registry,
	files []models.AttachedFile,
	classify func(filename string) (models.JSONMap, error),
) (string, error) {
	if len(files) == 0 {
		return "", nil
	}

	var b strings.Builder
	for _, f := range files {
		name := filepath.Base(strings.TrimSpace(f.Filename))
		if name == "" || name == "." {
			return "", fmt.Errorf("attached file without a name")
		}

		content, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			return "", fmt.Errorf("file %s is not valid base64", name)
		}
		if len(content) == 0 {
			return "", fmt.Errorf("file %s has no content", name)
		}
		if len(content) > config.MaxAttachedFileBytes {
			return "", fmt.Errorf("file %s exceeds %d bytes", name, config.MaxAttachedFileBytes)
		}

		text, err := converters.Convert(ctx, name, content)
		if errors.Is(err, convert.ErrNotText) {
			return "", fmt.Errorf("file %s is not a text file", name)
		}
		if err != nil {
			return "", fmt.Errorf("file %s could not be read: %v", name, err)
		}

		docType := "general"
		if meta, err := classify(name); err == nil {
			if t, ok := meta["document_type"].(string); ok && t != "" {
				docType = t
			}
		}

		fmt.Fprintf(&b, "\n\n<document name=%q type=%q>\n%s\n</document>", name, docType, text)
	}
	return b.String(), nil
}
