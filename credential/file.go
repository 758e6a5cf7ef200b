package credential

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrCorruptFile is returned when the credential file is not a JSON object of strings.
var ErrCorruptFile = errors.New("credential: corrupt storage file")

// File keeps values in a JSON object on disk, readable only by the owner.
// Writes go through a temp file and rename so a crash never leaves a partial file.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile stores values at path. The parent directory is created on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.readLocked()
	if err != nil && !errors.Is(err, ErrCorruptFile) {
		return err
	}
	if data == nil {
		data = map[string]string{}
	}
	data[key] = value
	return f.writeLocked(data)
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.readLocked()
	if errors.Is(err, ErrCorruptFile) {
		return f.writeLocked(map[string]string{})
	}
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return f.writeLocked(data)
}

func (f *File) readLocked() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential: read %s: %w", f.path, err)
	}
	data := map[string]string{}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Join(ErrCorruptFile, err)
	}
	return data, nil
}

func (f *File) writeLocked(data map[string]string) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("credential: mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".credential-*")
	if err != nil {
		return fmt.Errorf("credential: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("credential: replace %s: %w", f.path, err)
	}
	return nil
}
