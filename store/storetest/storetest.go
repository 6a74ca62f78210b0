// Package storetest holds the behaviour every store.Store implementation
// must show.
package storetest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/document"
	"nodegraph/geom"
	"nodegraph/store"
)

// Sample returns a small valid document without an ID.
func Sample(name string) *document.Document {
	number := json.RawMessage(`"number"`)
	return &document.Document{
		Name:     name,
		Metadata: map[string]string{"author": "tests"},
		Nodes: []document.Node{
			{
				Ref:      "n1",
				Label:    "Number",
				Payload:  json.RawMessage(`{"template":"number","deletable":true}`),
				Position: geom.Pos2{X: 10, Y: 20},
				Inputs:   []document.Slot{{Name: "value", Type: number, Kind: "constant_only", Value: json.RawMessage(`4`)}},
				Outputs:  []document.Slot{{Name: "out", Type: number}},
			},
			{
				Ref:      "n2",
				Label:    "Add",
				Payload:  json.RawMessage(`{"template":"add","deletable":true}`),
				Position: geom.Pos2{X: 200, Y: 20},
				Inputs: []document.Slot{
					{Name: "a", Type: number, Kind: "connection_or_constant", Value: json.RawMessage(`0`)},
					{Name: "b", Type: number, Kind: "connection_or_constant", Value: json.RawMessage(`1`)},
				},
				Outputs: []document.Slot{{Name: "sum", Type: number}},
			},
		},
		Connections: []document.Connection{
			{From: document.Endpoint{Node: "n1", Slot: "out"}, To: document.Endpoint{Node: "n2", Slot: "a"}},
		},
		Order: []string{"n2", "n1"},
	}
}

// Run exercises s. The store must be empty and its schema created.
func Run(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("save assigns id and round trips", func(t *testing.T) {
		saved, err := s.Save(ctx, Sample("first"))
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)
		require.False(t, saved.UpdatedAt.IsZero())

		loaded, err := s.Load(ctx, saved.ID)
		require.NoError(t, err)
		opts := cmp.Options{
			cmpopts.EquateApproxTime(0),
			cmp.Transformer("json", func(m json.RawMessage) string {
				var v any
				if err := json.Unmarshal(m, &v); err != nil {
					return string(m)
				}
				out, _ := json.Marshal(v)
				return string(out)
			}),
		}
		if diff := cmp.Diff(saved, loaded, opts); diff != "" {
			t.Errorf("loaded document mismatch (-saved +loaded):\n%s", diff)
		}
	})

	t.Run("save replaces", func(t *testing.T) {
		doc, err := s.Save(ctx, Sample("replace me"))
		require.NoError(t, err)

		doc.Name = "replaced"
		doc.Nodes = doc.Nodes[:1]
		doc.Connections = nil
		doc.Order = []string{"n1"}
		_, err = s.Save(ctx, doc)
		require.NoError(t, err)

		loaded, err := s.Load(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "replaced", loaded.Name)
		assert.Len(t, loaded.Nodes, 1)
		assert.Empty(t, loaded.Connections)
	})

	t.Run("save rejects invalid", func(t *testing.T) {
		doc := Sample("bad")
		doc.Connections = append(doc.Connections, doc.Connections[0])
		_, err := s.Save(ctx, doc)
		require.ErrorIs(t, err, document.ErrInvalid)
	})

	t.Run("missing documents", func(t *testing.T) {
		_, err := s.Load(ctx, "does-not-exist")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, s.Delete(ctx, "does-not-exist"), store.ErrNotFound)
	})

	t.Run("list and delete", func(t *testing.T) {
		doc, err := s.Save(ctx, Sample("listed"))
		require.NoError(t, err)

		list, err := s.List(ctx)
		require.NoError(t, err)
		var found *document.Summary
		for i := range list {
			if list[i].ID == doc.ID {
				found = &list[i]
			}
		}
		require.NotNil(t, found, "saved document should be listed")
		assert.Equal(t, "listed", found.Name)
		assert.Equal(t, 2, found.Nodes)

		require.NoError(t, s.Delete(ctx, doc.ID))
		_, err = s.Load(ctx, doc.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("drop schema", func(t *testing.T) {
		_, err := s.Save(ctx, Sample("dropped"))
		require.NoError(t, err)
		require.NoError(t, s.DropSchema(ctx))
		require.NoError(t, s.CreateSchema(ctx))

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
