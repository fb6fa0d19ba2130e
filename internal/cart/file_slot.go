package cart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// FileSlot keeps the cart as a JSON file, the CLI counterpart of browser
// local storage.
type FileSlot struct {
	path string
}

func NewFileSlot(dir, name string) *FileSlot {
	return &FileSlot{path: filepath.Join(dir, name+".json")}
}

func (f *FileSlot) Path() string {
	return f.path
}

func (f *FileSlot) Load(ctx context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	return raw, err
}

// Save replaces the file atomically so a crash never leaves half a cart.
func (f *FileSlot) Save(ctx context.Context, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".cart-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileSlot) Discard(ctx context.Context) error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
