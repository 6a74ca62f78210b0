// Package store persists graph documents.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"nodegraph/document"
)

var ErrNotFound = errors.New("store: document not found")

// Store defines the contract for persisting and retrieving documents.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Save validates doc, gives it an ID if it has none, stamps UpdatedAt and
	// replaces any stored document with the same ID.
	Save(ctx context.Context, doc *document.Document) (*document.Document, error)
	Load(ctx context.Context, id string) (*document.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]document.Summary, error)
}

// Prepare runs the checks and stamping every Save shares.
func Prepare(doc *document.Document, now time.Time) error {
	if err := document.Validate(doc); err != nil {
		return err
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.UpdatedAt = now.UTC().Truncate(time.Microsecond)
	return nil
}
