package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/admissions/internal/common"
	"github.com/dmitrijs2005/admissions/internal/filex"
)

// LocalStore keeps attachments on the local filesystem below root.
type LocalStore struct {
	root    string
	maxSize int64
}

func NewLocalStore(root string, maxSize int64) (*LocalStore, error) {
	abs, err := filex.EnsureDir(root)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &LocalStore{root: abs, maxSize: maxSize}, nil
}

func (s *LocalStore) Store(ctx context.Context, scope, originalName string, content io.Reader) (string, error) {
	data, err := readLimited(content, s.maxSize)
	if err != nil {
		return "", err
	}

	ref := objectKey(scope, originalName)
	full := filepath.Join(s.root, filepath.FromSlash(ref))

	if err := filex.WriteFileAtomic(full, data, 0o640); err != nil {
		return "", fmt.Errorf("store attachment: %w", err)
	}
	return ref, nil
}

func (s *LocalStore) Read(ctx context.Context, ref string) ([]byte, error) {
	cleaned, err := cleanRef(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return data, nil
}
