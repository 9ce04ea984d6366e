package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

const filePermissions = 0o600

type file struct {
	path   string
	logger log.Logger
	mutex  sync.Mutex
}

// NewFile keeps all slots in a single JSON document at path.
// The document is replaced atomically on every write.
// A document that does not decode reads as empty and is overwritten by the next write.
func NewFile(path string, logger log.Logger) session.Storage {
	return &file{path: path, logger: logger}
}

func (f *file) Get(ctx context.Context, key string) (string, bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	values, err := f.read(ctx)
	if err != nil {
		return "", false, err
	}

	value, ok := values[key]
	return value, ok, nil
}

func (f *file) Set(ctx context.Context, key, value string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	values, err := f.read(ctx)
	if err != nil {
		return err
	}

	values[key] = value
	return f.write(values)
}

func (f *file) Delete(ctx context.Context, keys ...string) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	values, err := f.read(ctx)
	if err != nil {
		return err
	}

	for _, key := range keys {
		delete(values, key)
	}
	return f.write(values)
}

func (f *file) read(ctx context.Context) (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}

	err = json.Unmarshal(data, &values)
	if err != nil {
		f.logger.
			WithField("path", f.path).
			WithError(err).
			Warn(ctx, "session file is corrupted, treating it as empty")
		return make(map[string]string), nil
	}
	return values, nil
}

func (f *file) write(values map[string]string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}

	dir := filepath.Dir(f.path)
	err = os.MkdirAll(dir, 0o700)
	if err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Chmod(filePermissions)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	err = os.Rename(tmp.Name(), f.path)
	if err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
