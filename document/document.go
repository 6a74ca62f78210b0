// Package document is the persisted form of an editing surface: the graph
// plus node positions and paint order. Gesture state is never part of it.
//
// Node and slot keys are not stored. Nodes are named by a document-local Ref
// and slots by name, and Decode rebuilds the graph with fresh keys.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"nodegraph/editor"
	"nodegraph/geom"
	"nodegraph/graph"
)

// ErrInvalid is returned for documents that cannot be turned into a graph.
var ErrInvalid = errors.New("invalid document")

// Document is a saved graph.
type Document struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Nodes       []Node            `json:"nodes"`
	Connections []Connection      `json:"connections"`
	// Order lists node refs from bottom to top.
	Order     []string  `json:"order"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Node is a saved node.
type Node struct {
	Ref      string          `json:"ref"`
	Label    string          `json:"label"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Position geom.Pos2       `json:"position"`
	Inputs   []Slot          `json:"inputs"`
	Outputs  []Slot          `json:"outputs"`
}

// Slot is a saved slot. Type and Value use the go-cty JSON encodings.
type Slot struct {
	Name  string          `json:"name"`
	Type  json.RawMessage `json:"type"`
	Kind  string          `json:"kind,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Endpoint names a slot by node ref and slot name.
type Endpoint struct {
	Node string `json:"node"`
	Slot string `json:"slot"`
}

// Connection is a saved connection from an output to an input.
type Connection struct {
	From Endpoint `json:"from"`
	To   Endpoint `json:"to"`
}

// Encode captures g and the persistent part of s. Refs are assigned in paint
// order. Payloads are stored with encoding/json.
func Encode[N any](g *graph.Graph[N], s *editor.Session) (*Document, error) {
	doc := &Document{
		Nodes:       []Node{},
		Connections: []Connection{},
		Order:       []string{},
	}

	order := paintOrder(g, s)
	refs := make(map[graph.NodeID]string, len(order))
	for i, id := range order {
		refs[id] = fmt.Sprintf("n%d", i+1)
	}

	slotNames := make(map[graph.SlotID]Endpoint)
	for _, id := range order {
		n, _ := g.Node(id)
		payload, err := json.Marshal(n.Payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload of %s: %w", id, err)
		}
		node := Node{
			Ref:      refs[id],
			Label:    n.Label,
			Payload:  payload,
			Position: s.NodePositions[id],
		}
		for _, ns := range n.Inputs() {
			slot, err := encodeSlot(g, ns)
			if err != nil {
				return nil, err
			}
			node.Inputs = append(node.Inputs, slot)
			slotNames[ns.ID] = Endpoint{Node: node.Ref, Slot: ns.Name}
		}
		for _, ns := range n.Outputs() {
			slot, err := encodeSlot(g, ns)
			if err != nil {
				return nil, err
			}
			node.Outputs = append(node.Outputs, slot)
			slotNames[ns.ID] = Endpoint{Node: node.Ref, Slot: ns.Name}
		}
		doc.Nodes = append(doc.Nodes, node)
		doc.Order = append(doc.Order, node.Ref)
	}

	for _, c := range g.Connections() {
		doc.Connections = append(doc.Connections, Connection{
			From: slotNames[c.Output.Slot()],
			To:   slotNames[c.Input.Slot()],
		})
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// paintOrder returns every node of g, following s.NodeOrder first.
func paintOrder[N any](g *graph.Graph[N], s *editor.Session) []graph.NodeID {
	seen := make(map[graph.NodeID]bool, g.NodeCount())
	order := make([]graph.NodeID, 0, g.NodeCount())
	for _, id := range s.NodeOrder {
		if g.HasNode(id) && !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	for _, id := range g.NodeIDs() {
		if !seen[id] {
			order = append(order, id)
		}
	}
	return order
}

func encodeSlot[N any](g *graph.Graph[N], ns graph.NamedSlot) (Slot, error) {
	s, _ := g.Slot(ns.ID)
	typ, err := ctyjson.MarshalType(s.Type)
	if err != nil {
		return Slot{}, fmt.Errorf("encode type of %s: %w", ns.ID, err)
	}
	out := Slot{Name: ns.Name, Type: typ}
	if ns.ID.IsInput() {
		out.Kind = s.Kind.String()
		if s.Value != cty.NilVal {
			val, err := ctyjson.Marshal(s.Value, s.Type)
			if err != nil {
				return Slot{}, fmt.Errorf("encode value of %s: %w", ns.ID, err)
			}
			out.Value = val
		}
	}
	return out, nil
}

// Decode rebuilds a graph and layout from doc. The returned session has no
// gesture in flight and nothing selected.
func Decode[N any](doc *Document) (*graph.Graph[N], editor.Session, error) {
	if err := Validate(doc); err != nil {
		return nil, editor.Session{}, err
	}

	g := graph.New[N]()
	s := editor.NewSession()
	ids := make(map[string]graph.NodeID, len(doc.Nodes))
	inputs := make(map[Endpoint]graph.SlotID)
	outputs := make(map[Endpoint]graph.SlotID)

	for _, n := range doc.Nodes {
		var payload N
		if len(n.Payload) > 0 {
			if err := json.Unmarshal(n.Payload, &payload); err != nil {
				return nil, editor.Session{}, fmt.Errorf("%w: payload of %s: %s", ErrInvalid, n.Ref, err)
			}
		}
		id := g.AddNode(n.Label, payload)
		ids[n.Ref] = id
		s.NodePositions[id] = n.Position

		for _, in := range n.Inputs {
			// Validate has already checked types, kinds and values.
			typ, _ := ctyjson.UnmarshalType(in.Type)
			kind, _ := graph.ParseInputKind(in.Kind)
			val, _ := decodeValue(in.Value, typ)
			inputs[Endpoint{Node: n.Ref, Slot: in.Name}] = g.AddInputSlot(id, in.Name, typ, kind, val)
		}
		for _, out := range n.Outputs {
			typ, _ := ctyjson.UnmarshalType(out.Type)
			outputs[Endpoint{Node: n.Ref, Slot: out.Name}] = g.AddOutputSlot(id, out.Name, typ)
		}
	}

	for _, c := range doc.Connections {
		if err := g.Connect(outputs[c.From], inputs[c.To]); err != nil {
			return nil, editor.Session{}, fmt.Errorf("%w: %s.%s -> %s.%s: %s", ErrInvalid, c.From.Node, c.From.Slot, c.To.Node, c.To.Slot, err)
		}
	}

	for _, ref := range doc.Order {
		s.NodeOrder = append(s.NodeOrder, ids[ref])
	}
	// Nodes the order leaves out go on top, in document order.
	listed := make(map[string]bool, len(doc.Order))
	for _, ref := range doc.Order {
		listed[ref] = true
	}
	for _, n := range doc.Nodes {
		if !listed[n.Ref] {
			s.NodeOrder = append(s.NodeOrder, ids[n.Ref])
		}
	}
	return g, s, nil
}

// decodeValue reads a slot value; an empty value is null.
func decodeValue(raw json.RawMessage, typ cty.Type) (cty.Value, error) {
	if len(raw) == 0 {
		return cty.NullVal(typ), nil
	}
	return ctyjson.Unmarshal(raw, typ)
}

// Summary describes a stored document without its contents.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summarize returns the listing entry for doc.
func (d *Document) Summarize() Summary {
	return Summary{ID: d.ID, Name: d.Name, Nodes: len(d.Nodes), UpdatedAt: d.UpdatedAt}
}

// SortSummaries orders summaries by most recently updated first, then by ID.
func SortSummaries(list []Summary) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].UpdatedAt.Equal(list[j].UpdatedAt) {
			return list[i].UpdatedAt.After(list[j].UpdatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
