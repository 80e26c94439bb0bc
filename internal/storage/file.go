package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend stores each collection as a JSON envelope in a directory.
// Version checks are enforced within one process only; run a single bot
// process per directory.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

type fileEnvelope struct {
	Version int64           `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// NewFileBackend creates the directory if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) path(collection Collection) string {
	return filepath.Join(f.dir, string(collection)+".json")
}

func (f *FileBackend) Load(_ context.Context, collection Collection) (Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(collection)
}

func (f *FileBackend) read(collection Collection) (Document, error) {
	raw, err := os.ReadFile(f.path(collection))
	if errors.Is(err, os.ErrNotExist) {
		return Document{}, nil
	}
	if err != nil {
		return Document{}, err
	}
	var env fileEnvelope
	if err := api.Unmarshal(raw, &env); err != nil {
		return Document{}, fmt.Errorf("corrupt %s: %w", f.path(collection), err)
	}
	if string(env.Data) == "null" {
		env.Data = nil
	}
	return Document{Data: []byte(env.Data), Version: env.Version}, nil
}

// Commit checks every version first, then writes each document to a
// temporary file and renames it into place.
func (f *FileBackend) Commit(_ context.Context, writes []Write) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, w := range writes {
		doc, err := f.read(w.Collection)
		if err != nil {
			return err
		}
		if doc.Version != w.Version {
			return ErrVersionConflict
		}
	}

	temps := make(map[Collection]string, len(writes))
	defer func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}()
	for _, w := range writes {
		raw, err := api.Marshal(fileEnvelope{Version: w.Version + 1, Data: json.RawMessage(w.Data)})
		if err != nil {
			return err
		}
		tmp, err := os.CreateTemp(f.dir, string(w.Collection)+".*.tmp")
		if err != nil {
			return err
		}
		temps[w.Collection] = tmp.Name()
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
	}
	for _, w := range writes {
		if err := os.Rename(temps[w.Collection], f.path(w.Collection)); err != nil {
			return err
		}
		delete(temps, w.Collection)
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}
