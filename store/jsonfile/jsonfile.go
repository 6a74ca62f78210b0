// Package jsonfile stores each document as an indented JSON file in a
// directory.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"nodegraph/document"
	"nodegraph/observability"
	"nodegraph/store"
)

const ext = ".graph.json"

// FileStore implements store.Store on the local filesystem.
type FileStore struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

// New creates a FileStore rooted at dir.
func New(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

var _ store.Store = (*FileStore)(nil)

// CreateSchema creates the directory.
func (s *FileStore) CreateSchema(ctx context.Context) error {
	return os.MkdirAll(s.dir, 0o755)
}

// DropSchema removes every stored document. Other files are left alone.
func (s *FileStore) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonfile: read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("jsonfile: remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (s *FileStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", store.ErrNotFound, id)
	}
	return filepath.Join(s.dir, id+ext), nil
}

// Save writes doc to <dir>/<id>.graph.json.
func (s *FileStore) Save(ctx context.Context, doc *document.Document) (_ *document.Document, err error) {
	if err := store.Prepare(doc, s.now()); err != nil {
		return nil, err
	}
	_, span := observability.StartStoreSpan(ctx, "jsonfile", "save", doc.ID)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()
	path, err := s.path(doc.ID)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("jsonfile: marshal %s: %w", doc.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create dir: %w", err)
	}
	// Write then rename so readers never see a partial file.
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("jsonfile: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("jsonfile: write %s: %w", doc.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("jsonfile: write %s: %w", doc.ID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("jsonfile: rename %s: %w", doc.ID, err)
	}
	return doc, nil
}

// Load reads a document by ID.
func (s *FileStore) Load(ctx context.Context, id string) (_ *document.Document, err error) {
	_, span := observability.StartStoreSpan(ctx, "jsonfile", "load", id)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return readFile(path)
}

// ReadFile loads a document from an arbitrary path, outside any store.
func ReadFile(path string) (*document.Document, error) {
	return readFile(path)
}

// WriteFile writes doc to path as indented JSON without touching ID or
// timestamps.
func WriteFile(path string, doc *document.Document) error {
	if err := document.Validate(doc); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func readFile(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, filepath.Base(path))
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read %s: %w", path, err)
	}
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", document.ErrInvalid, filepath.Base(path), err)
	}
	return &doc, nil
}

// Delete removes a document.
func (s *FileStore) Delete(ctx context.Context, id string) (err error) {
	_, span := observability.StartStoreSpan(ctx, "jsonfile", "delete", id)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	path, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return err
}

// List summarizes every stored document, newest first.
func (s *FileStore) List(ctx context.Context) ([]document.Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []document.Summary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read dir: %w", err)
	}

	list := []document.Summary{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := readFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		list = append(list, doc.Summarize())
	}
	document.SortSummaries(list)
	return list, nil
}
