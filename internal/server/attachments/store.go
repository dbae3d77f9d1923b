// Package attachments stores uploaded files under collision-free names and
// reads them back by reference.
package attachments

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/google/uuid"
)

// Store persists attachment content. References returned by Store are
// opaque to callers and only meaningful to the same backend.
type Store interface {
	Store(ctx context.Context, scope, originalName string, content io.Reader) (string, error)
	Read(ctx context.Context, ref string) ([]byte, error)
}

// SanitizeFilename drops any directory part of name and every character
// outside [A-Za-z0-9._-]. Leading dots are removed so the result can never be
// "." or "..". An empty result becomes "file".
func SanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

// objectKey builds "<scope>/<uuid>_<name>" from unsanitized input.
func objectKey(scope, originalName string) string {
	return SanitizeFilename(scope) + "/" + uuid.NewString() + "_" + SanitizeFilename(originalName)
}

// readLimited reads content fully unless it exceeds maxSize bytes, in which
// case it stops after maxSize+1 bytes and reports ErrPayloadTooLarge.
// maxSize <= 0 disables the limit.
func readLimited(content io.Reader, maxSize int64) ([]byte, error) {
	if maxSize > 0 {
		content = io.LimitReader(content, maxSize+1)
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, common.ErrPayloadTooLarge
	}
	return data, nil
}

// cleanRef validates a reference produced by objectKey. Anything that is
// absolute, escapes upward or is not in canonical form is rejected.
func cleanRef(ref string) (string, error) {
	if ref == "" || strings.ContainsRune(ref, '\\') || strings.HasPrefix(ref, "/") {
		return "", common.ErrorNotFound
	}
	cleaned := path.Clean(ref)
	if cleaned != ref || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", common.ErrorNotFound
	}
	for _, seg := range strings.Split(cleaned, "/") {
		if seg == ".." {
			return "", common.ErrorNotFound
		}
	}
	return cleaned, nil
}
