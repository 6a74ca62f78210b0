package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"nodegraph/document"
	"nodegraph/observability"
	"nodegraph/store"
)

// Save writes a full document (row, nodes and connections) in one
// transaction, replacing whatever was stored under the same ID.
func (s *PGStore) Save(ctx context.Context, doc *document.Document) (_ *document.Document, err error) {
	if err := store.Prepare(doc, s.now()); err != nil {
		return nil, err
	}

	ctx, span := observability.StartStoreSpan(ctx, backend, "save", doc.ID)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("graph: marshal metadata: %w", err)
	}
	order, err := json.Marshal(doc.Order)
	if err != nil {
		return nil, fmt.Errorf("graph: marshal order: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO graph_documents (id, name, metadata, node_order, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, metadata = EXCLUDED.metadata,
		     node_order = EXCLUDED.node_order, updated_at = EXCLUDED.updated_at`,
		doc.ID, doc.Name, metadata, order, doc.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("graph: upsert document: %w", err)
	}

	// Replace semantics: children are rewritten from scratch.
	if _, err := tx.Exec(ctx, `DELETE FROM graph_connections WHERE document_id = $1`, doc.ID); err != nil {
		return nil, fmt.Errorf("graph: delete connections: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM graph_nodes WHERE document_id = $1`, doc.ID); err != nil {
		return nil, fmt.Errorf("graph: delete nodes: %w", err)
	}

	batch := &pgx.Batch{}
	for i, n := range doc.Nodes {
		inputs, err := json.Marshal(n.Inputs)
		if err != nil {
			return nil, fmt.Errorf("graph: marshal inputs of %s: %w", n.Ref, err)
		}
		outputs, err := json.Marshal(n.Outputs)
		if err != nil {
			return nil, fmt.Errorf("graph: marshal outputs of %s: %w", n.Ref, err)
		}
		var payload []byte
		if len(n.Payload) > 0 {
			payload = n.Payload
		}
		batch.Queue(
			`INSERT INTO graph_nodes (document_id, ref, position, label, payload, x, y, inputs, outputs)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			doc.ID, n.Ref, i, n.Label, payload, n.Position.X, n.Position.Y, inputs, outputs,
		)
	}
	for i, c := range doc.Connections {
		batch.Queue(
			`INSERT INTO graph_connections (document_id, position, from_ref, from_slot, to_ref, to_slot)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			doc.ID, i, c.From.Node, c.From.Slot, c.To.Node, c.To.Slot,
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return nil, fmt.Errorf("graph: insert nodes and connections: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("graph: commit: %w", err)
	}
	return doc, nil
}

// Load retrieves a full document by its ID.
func (s *PGStore) Load(ctx context.Context, id string) (_ *document.Document, err error) {
	ctx, span := observability.StartStoreSpan(ctx, backend, "load", id)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	doc := &document.Document{
		ID:          id,
		Nodes:       []document.Node{},
		Connections: []document.Connection{},
	}
	var metadata, order []byte
	err = s.db.QueryRow(ctx,
		`SELECT name, metadata, node_order, updated_at FROM graph_documents WHERE id = $1`, id,
	).Scan(&doc.Name, &metadata, &order, &doc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("graph: query document: %w", err)
	}
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	if err := json.Unmarshal(metadata, &doc.Metadata); err != nil {
		return nil, fmt.Errorf("graph: decode metadata: %w", err)
	}
	if err := json.Unmarshal(order, &doc.Order); err != nil {
		return nil, fmt.Errorf("graph: decode order: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT ref, label, payload, x, y, inputs, outputs
		 FROM graph_nodes WHERE document_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("graph: query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n                        document.Node
			payload, inputs, outputs []byte
		)
		if err := rows.Scan(&n.Ref, &n.Label, &payload, &n.Position.X, &n.Position.Y, &inputs, &outputs); err != nil {
			return nil, fmt.Errorf("graph: scan node: %w", err)
		}
		if len(payload) > 0 {
			n.Payload = json.RawMessage(payload)
		}
		if err := json.Unmarshal(inputs, &n.Inputs); err != nil {
			return nil, fmt.Errorf("graph: decode inputs of %s: %w", n.Ref, err)
		}
		if err := json.Unmarshal(outputs, &n.Outputs); err != nil {
			return nil, fmt.Errorf("graph: decode outputs of %s: %w", n.Ref, err)
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph: rows nodes: %w", err)
	}

	rows, err = s.db.Query(ctx,
		`SELECT from_ref, from_slot, to_ref, to_slot
		 FROM graph_connections WHERE document_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("graph: query connections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c document.Connection
		if err := rows.Scan(&c.From.Node, &c.From.Slot, &c.To.Node, &c.To.Slot); err != nil {
			return nil, fmt.Errorf("graph: scan connection: %w", err)
		}
		doc.Connections = append(doc.Connections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph: rows connections: %w", err)
	}

	return doc, nil
}

// Delete removes a document; nodes and connections cascade.
func (s *PGStore) Delete(ctx context.Context, id string) (err error) {
	ctx, span := observability.StartStoreSpan(ctx, backend, "delete", id)
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	tag, err := s.db.Exec(ctx, `DELETE FROM graph_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("graph: delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// List summarizes every stored document, newest first.
func (s *PGStore) List(ctx context.Context) (_ []document.Summary, err error) {
	ctx, span := observability.StartStoreSpan(ctx, backend, "list", "")
	defer func() {
		observability.RecordError(span, err)
		span.End()
	}()

	rows, err := s.db.Query(ctx,
		`SELECT d.id, d.name, d.updated_at,
		        (SELECT COUNT(*) FROM graph_nodes n WHERE n.document_id = d.id)
		 FROM graph_documents d
		 ORDER BY d.updated_at DESC, d.id`)
	if err != nil {
		return nil, fmt.Errorf("graph: query documents: %w", err)
	}
	defer rows.Close()

	list := []document.Summary{}
	for rows.Next() {
		var sum document.Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.UpdatedAt, &sum.Nodes); err != nil {
			return nil, fmt.Errorf("graph: scan document: %w", err)
		}
		sum.UpdatedAt = sum.UpdatedAt.UTC()
		list = append(list, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("graph: rows documents: %w", err)
	}
	return list, nil
}
