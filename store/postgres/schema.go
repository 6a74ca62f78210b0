package postgres

import (
	"context"

	"nodegraph/observability"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS graph_documents (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    metadata   JSONB NOT NULL DEFAULT '{}',
    node_order JSONB NOT NULL DEFAULT '[]',
    updated_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS graph_nodes (
    document_id TEXT NOT NULL REFERENCES graph_documents(id) ON DELETE CASCADE,
    ref         TEXT NOT NULL,
    position    INTEGER NOT NULL,
    label       TEXT NOT NULL DEFAULT '',
    payload     JSONB,
    x           DOUBLE PRECISION NOT NULL,
    y           DOUBLE PRECISION NOT NULL,
    inputs      JSONB NOT NULL DEFAULT '[]',
    outputs     JSONB NOT NULL DEFAULT '[]',
    PRIMARY KEY (document_id, ref)
);

CREATE TABLE IF NOT EXISTS graph_connections (
    document_id TEXT NOT NULL REFERENCES graph_documents(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    from_ref    TEXT NOT NULL,
    from_slot   TEXT NOT NULL,
    to_ref      TEXT NOT NULL,
    to_slot     TEXT NOT NULL,
    PRIMARY KEY (document_id, to_ref, to_slot)
);

CREATE INDEX IF NOT EXISTS idx_graph_documents_updated ON graph_documents(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_graph_nodes_document    ON graph_nodes(document_id, position);
`

// CreateSchema creates the graph tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	ctx, span := observability.StartStoreSpan(ctx, backend, "create_schema", "")
	defer span.End()

	_, err := s.db.Exec(ctx, schemaSQL)
	observability.RecordError(span, err)
	return err
}

// DropSchema drops the graph tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	ctx, span := observability.StartStoreSpan(ctx, backend, "drop_schema", "")
	defer span.End()

	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS graph_connections, graph_nodes, graph_documents CASCADE;`)
	observability.RecordError(span, err)
	return err
}
