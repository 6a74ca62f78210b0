// Package graph stores the topology edited by the node editor: nodes with
// ordered, typed input and output slots, and the table of connections between
// them. It has no knowledge of screens, pointers or layout.
package graph

import "github.com/zclconf/go-cty/cty"

// InputKind controls whether an input is fed by a connection, by an inline
// constant, or by either.
type InputKind int

const (
	ConnectionOnly InputKind = iota
	ConstantOnly
	ConnectionOrConstant
)

// String returns the string representation of an InputKind.
func (k InputKind) String() string {
	switch k {
	case ConnectionOnly:
		return "connection_only"
	case ConstantOnly:
		return "constant_only"
	case ConnectionOrConstant:
		return "connection_or_constant"
	default:
		return "unknown"
	}
}

// ParseInputKind is the inverse of InputKind.String.
func ParseInputKind(s string) (InputKind, bool) {
	switch s {
	case "connection_only":
		return ConnectionOnly, true
	case "constant_only":
		return ConstantOnly, true
	case "connection_or_constant":
		return ConnectionOrConstant, true
	default:
		return 0, false
	}
}

// HasPort reports whether inputs of this kind expose a connectable port.
func (k InputKind) HasPort() bool {
	return k != ConstantOnly
}

// NamedSlot is one entry of a node's ordered slot list.
type NamedSlot struct {
	Name string
	ID   SlotID
}

// Node represents a vertex of the graph.
type Node[N any] struct {
	id      NodeID
	inputs  []NamedSlot
	outputs []NamedSlot

	Label   string
	Payload N
}

// ID returns the key assigned when the node was added.
func (n *Node[N]) ID() NodeID { return n.id }

// Inputs returns the node's input slots in declaration order.
func (n *Node[N]) Inputs() []NamedSlot { return append([]NamedSlot(nil), n.inputs...) }

// Outputs returns the node's output slots in declaration order.
func (n *Node[N]) Outputs() []NamedSlot { return append([]NamedSlot(nil), n.outputs...) }

// Slots returns inputs followed by outputs, the order in which ports are visited.
func (n *Node[N]) Slots() []NamedSlot {
	out := make([]NamedSlot, 0, len(n.inputs)+len(n.outputs))
	out = append(out, n.inputs...)
	return append(out, n.outputs...)
}

// Slot holds the metadata of one input or output.
type Slot struct {
	id   SlotID
	node NodeID

	Name string
	Type cty.Type

	// Kind and Value are only meaningful for inputs. Value is the inline
	// constant used while the input has no connection.
	Kind  InputKind
	Value cty.Value

	// ShownInline hides the slot's row entirely when false.
	ShownInline bool
}

// ID returns the slot's key.
func (s *Slot) ID() SlotID { return s.id }

// Node returns the owning node. It never changes after creation.
func (s *Slot) Node() NodeID { return s.node }

// Connection is one entry of the connection table.
type Connection struct {
	Input  InputID
	Output OutputID
}
