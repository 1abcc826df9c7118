// Package filestorage keeps uploaded documents on the local filesystem so that the
// source_url recorded for them stays resolvable.
package filestorage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type Adapter struct {
	dir    string
	logger *zap.Logger
}

type Option func(*Adapter)

func WithDir(dir string) Option {
	return func(a *Adapter) {
		a.dir = dir
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const defaultDir = "uploads"

// New creates the storage directory if it does not exist yet.
func New(opts ...Option) (*Adapter, error) {
	a := &Adapter{
		dir:    defaultDir,
		logger: zap.NewNop(),
	}

	for _, o := range opts {
		o(a)
	}

	if err := os.MkdirAll(a.dir, 0o750); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	a.logger.Sugar().With(
		"directory", a.dir,
	).Info("init filestorage adapter")

	return a, nil
}

func (a *Adapter) Dir() string {
	return a.dir
}

// Write stores data under the base name of filename, replacing any previous file. Readers
// never observe a partially written file.
func (a *Adapter) Write(filename string, data io.Reader) error {
	tmp, err := os.CreateTemp(a.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), a.path(filename)); err != nil {
		return err
	}

	a.logger.Sugar().With("file", filename).Debug("stored upload")

	return nil
}

func (a *Adapter) Exists(filename string) (bool, error) {
	_, err := os.Stat(a.path(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *Adapter) Read(filename string) (io.ReadSeekCloser, error) {
	return os.Open(a.path(filename))
}

func (a *Adapter) Delete(filename string) error {
	return os.Remove(a.path(filename))
}

func (a *Adapter) path(filename string) string {
	return filepath.Join(a.dir, filepath.Base(filename))
}
