package graph

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Graph owns every node, every slot and the connection table. N is the
// embedder's per-node payload.
//
// Graph is not safe for concurrent use; the editing surface that owns it is
// expected to be its only writer.
type Graph[N any] struct {
	nodes       arena[*Node[N]]
	slots       arena[*Slot]
	connections map[InputID]OutputID
}

// New creates an empty graph.
func New[N any]() *Graph[N] {
	return &Graph[N]{
		connections: make(map[InputID]OutputID),
	}
}

// AddNode inserts a node with no slots and returns its key.
func (g *Graph[N]) AddNode(label string, payload N) NodeID {
	n := &Node[N]{Label: label, Payload: payload}
	n.id = NodeID{g.nodes.insert(n)}
	return n.id
}

// AddInputSlot appends an input to the node's input list. It panics if the
// node does not exist, since node keys only ever come from this graph.
func (g *Graph[N]) AddInputSlot(node NodeID, name string, typ cty.Type, kind InputKind, value cty.Value) SlotID {
	n := g.mustNode(node)
	s := &Slot{node: node, Name: name, Type: typ, Kind: kind, Value: value, ShownInline: true}
	s.id = SlotID{key: g.slots.insert(s), role: RoleInput}
	n.inputs = append(n.inputs, NamedSlot{Name: name, ID: s.id})
	return s.id
}

// AddOutputSlot appends an output to the node's output list. It panics if the
// node does not exist.
func (g *Graph[N]) AddOutputSlot(node NodeID, name string, typ cty.Type) SlotID {
	n := g.mustNode(node)
	s := &Slot{node: node, Name: name, Type: typ, ShownInline: true}
	s.id = SlotID{key: g.slots.insert(s), role: RoleOutput}
	n.outputs = append(n.outputs, NamedSlot{Name: name, ID: s.id})
	return s.id
}

func (g *Graph[N]) mustNode(id NodeID) *Node[N] {
	n, ok := g.nodes.get(id.key)
	if !ok {
		panic(fmt.Sprintf("graph: %s does not exist", id))
	}
	return n
}

// RemoveNode deletes the node, its slots and every connection touching those
// slots. The removed connections are returned ordered by input key so callers
// can report them deterministically. Removing a missing node is a no-op.
func (g *Graph[N]) RemoveNode(id NodeID) (*Node[N], []Connection, bool) {
	n, ok := g.nodes.remove(id.key)
	if !ok {
		return nil, nil, false
	}

	owned := make(map[key]bool, len(n.inputs)+len(n.outputs))
	for _, s := range n.Slots() {
		owned[s.ID.key] = true
	}

	var removed []Connection
	for in, out := range g.connections {
		if owned[in.key] || owned[out.key] {
			removed = append(removed, Connection{Input: in, Output: out})
			delete(g.connections, in)
		}
	}
	sortConnections(removed)

	for k := range owned {
		g.slots.remove(k)
	}
	return n, removed, true
}

// Connect wires output into input, replacing whatever input was connected to.
func (g *Graph[N]) Connect(output, input SlotID) error {
	out, ok := g.slots.get(output.key)
	if !ok || out.id != output {
		return fmt.Errorf("%w: %s", ErrInvalidEndpoint, output)
	}
	in, ok := g.slots.get(input.key)
	if !ok || in.id != input {
		return fmt.Errorf("%w: %s", ErrInvalidEndpoint, input)
	}
	if !TypesEqual(out.Type, in.Type) {
		return fmt.Errorf("%w: %s is %s, %s is %s", ErrTypeMismatch,
			output, FriendlyTypeName(out.Type), input, FriendlyTypeName(in.Type))
	}
	if out.node == in.node {
		return fmt.Errorf("%w: %s", ErrSelfLoop, out.node)
	}
	if !output.IsOutput() || !input.IsInput() {
		return fmt.Errorf("%w: got %s and %s", ErrDirection, output, input)
	}

	g.connections[input.AssumeInput()] = output.AssumeOutput()
	return nil
}

// CanConnect reports whether Connect would succeed for the two slots given
// in either order, and returns them as (output, input).
func (g *Graph[N]) CanConnect(a, b SlotID) (SlotID, SlotID, bool) {
	output, input := a, b
	if a.IsInput() && b.IsOutput() {
		output, input = b, a
	}
	if !output.IsOutput() || !input.IsInput() {
		return SlotID{}, SlotID{}, false
	}
	out, ok := g.Slot(output)
	if !ok {
		return SlotID{}, SlotID{}, false
	}
	in, ok := g.Slot(input)
	if !ok {
		return SlotID{}, SlotID{}, false
	}
	if out.node == in.node || !TypesEqual(out.Type, in.Type) {
		return SlotID{}, SlotID{}, false
	}
	return output, input, true
}

// Disconnect removes the connection feeding input, if there is one.
func (g *Graph[N]) Disconnect(input InputID) (OutputID, bool) {
	out, ok := g.connections[input]
	if ok {
		delete(g.connections, input)
	}
	return out, ok
}

// ConnectionOf returns the output feeding input.
func (g *Graph[N]) ConnectionOf(input InputID) (OutputID, bool) {
	out, ok := g.connections[input]
	return out, ok
}

// IsConnected reports whether the slot takes part in any connection.
func (g *Graph[N]) IsConnected(id SlotID) bool {
	if id.IsInput() {
		_, ok := g.connections[id.AssumeInput()]
		return ok
	}
	for _, out := range g.connections {
		if out.key == id.key {
			return true
		}
	}
	return false
}

// ConnectionsFrom lists the inputs fed by output, ordered by key.
func (g *Graph[N]) ConnectionsFrom(output OutputID) []InputID {
	var inputs []InputID
	for in, out := range g.connections {
		if out == output {
			inputs = append(inputs, in)
		}
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].index < inputs[j].index })
	return inputs
}

// Connections returns the whole table ordered by input key.
func (g *Graph[N]) Connections() []Connection {
	conns := make([]Connection, 0, len(g.connections))
	for in, out := range g.connections {
		conns = append(conns, Connection{Input: in, Output: out})
	}
	sortConnections(conns)
	return conns
}

// ConnectionCount returns the number of connections.
func (g *Graph[N]) ConnectionCount() int {
	return len(g.connections)
}

// Node returns the node for id. The pointer stays valid until the node is removed.
func (g *Graph[N]) Node(id NodeID) (*Node[N], bool) {
	return g.nodes.get(id.key)
}

// HasNode reports whether id resolves.
func (g *Graph[N]) HasNode(id NodeID) bool {
	return g.nodes.contains(id.key)
}

// NodeIDs returns every live node key in arena order.
func (g *Graph[N]) NodeIDs() []NodeID {
	keys := g.nodes.keys()
	ids := make([]NodeID, len(keys))
	for i, k := range keys {
		ids[i] = NodeID{k}
	}
	return ids
}

// NodeCount returns the number of nodes.
func (g *Graph[N]) NodeCount() int {
	return g.nodes.len()
}

// Slot returns the slot for id. A key whose role tag disagrees with the
// stored slot does not resolve.
func (g *Graph[N]) Slot(id SlotID) (*Slot, bool) {
	s, ok := g.slots.get(id.key)
	if !ok || s.id.role != id.role {
		return nil, false
	}
	return s, true
}

// SlotCount returns the number of slots across all nodes.
func (g *Graph[N]) SlotCount() int {
	return g.slots.len()
}

// SlotType returns the declared type of a slot, or cty.NilType if the slot
// does not exist.
func (g *Graph[N]) SlotType(id SlotID) cty.Type {
	s, ok := g.Slot(id)
	if !ok {
		return cty.NilType
	}
	return s.Type
}

// SetValue stores an inline constant on an input, converting it to the
// input's declared type.
func (g *Graph[N]) SetValue(input InputID, v cty.Value) error {
	s, ok := g.Slot(input.Slot())
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidEndpoint, input)
	}
	if s.Type != cty.NilType {
		converted, err := convert.Convert(v, s.Type)
		if err != nil {
			return fmt.Errorf("graph: value for %s: %w", input, err)
		}
		v = converted
	}
	s.Value = v
	return nil
}

// Clone copies the topology. Payloads are copied by value.
func (g *Graph[N]) Clone() *Graph[N] {
	out := &Graph[N]{
		nodes: g.nodes.clone(func(n *Node[N]) *Node[N] {
			cp := *n
			cp.inputs = append([]NamedSlot(nil), n.inputs...)
			cp.outputs = append([]NamedSlot(nil), n.outputs...)
			return &cp
		}),
		slots: g.slots.clone(func(s *Slot) *Slot {
			cp := *s
			return &cp
		}),
		connections: make(map[InputID]OutputID, len(g.connections)),
	}
	for in, o := range g.connections {
		out.connections[in] = o
	}
	return out
}

// TypesEqual compares slot types, treating cty.NilType as equal only to itself.
func TypesEqual(a, b cty.Type) bool {
	if a == cty.NilType || b == cty.NilType {
		return a == b
	}
	return a.Equals(b)
}

// FriendlyTypeName is cty's human readable type name, tolerant of NilType.
func FriendlyTypeName(t cty.Type) string {
	if t == cty.NilType {
		return "untyped"
	}
	return t.FriendlyName()
}

func sortConnections(conns []Connection) {
	sort.Slice(conns, func(i, j int) bool {
		return conns[i].Input.index < conns[j].Input.index
	})
}
