package editor

import (
	"fmt"

	"nodegraph/geom"
	"nodegraph/graph"
)

// NodeResponse is an event produced while processing a frame. The embedder
// reads the ordered list returned by Editor.Update to run side effects such as
// persisting a new connection.
type NodeResponse interface {
	nodeResponse()
	fmt.Stringer
}

// ConnectEventStarted is emitted when a connection drag begins at a port.
type ConnectEventStarted struct {
	Node graph.NodeID
	Slot graph.SlotID
}

// ConnectEventEnded is emitted when a drag resolves onto a compatible port.
// The connection is already in the graph when the embedder sees it.
type ConnectEventEnded struct {
	Input  graph.InputID
	Output graph.OutputID
}

// DisconnectEvent is emitted when a connection leaves the graph, either
// because it was dragged off its input or because one endpoint was deleted.
type DisconnectEvent struct {
	Input  graph.InputID
	Output graph.OutputID
}

// CreatedNode is emitted after the node finder spawned a node.
type CreatedNode struct {
	Node graph.NodeID
}

// SelectNode is emitted by a plain click on a node.
type SelectNode struct {
	Node graph.NodeID
}

// DeleteNodeUi is the request to delete a node. The editor always follows it
// with the removal itself and a DeleteNodeFull in the same response list.
type DeleteNodeUi struct {
	Node graph.NodeID
}

// DeleteNodeFull acknowledges that the node is gone from the graph.
type DeleteNodeFull struct {
	NodeID graph.NodeID
}

// RaiseNode is emitted when a node moved to the top of the paint order.
type RaiseNode struct {
	Node graph.NodeID
}

// MoveNode carries one frame's drag delta for a node.
type MoveNode struct {
	Node  graph.NodeID
	Delta geom.Vec2
}

// User passes an embedder-defined response through unchanged.
type User struct {
	Node  graph.NodeID
	Value any
}

func (ConnectEventStarted) nodeResponse() {}
func (ConnectEventEnded) nodeResponse()   {}
func (DisconnectEvent) nodeResponse()     {}
func (CreatedNode) nodeResponse()         {}
func (SelectNode) nodeResponse()          {}
func (DeleteNodeUi) nodeResponse()        {}
func (DeleteNodeFull) nodeResponse()      {}
func (RaiseNode) nodeResponse()           {}
func (MoveNode) nodeResponse()            {}
func (User) nodeResponse()                {}

func (r ConnectEventStarted) String() string {
	return fmt.Sprintf("ConnectEventStarted(%s, %s)", r.Node, r.Slot)
}

func (r ConnectEventEnded) String() string {
	return fmt.Sprintf("ConnectEventEnded{input: %s, output: %s}", r.Input, r.Output)
}

func (r DisconnectEvent) String() string {
	return fmt.Sprintf("DisconnectEvent{input: %s, output: %s}", r.Input, r.Output)
}

func (r CreatedNode) String() string    { return fmt.Sprintf("CreatedNode(%s)", r.Node) }
func (r SelectNode) String() string     { return fmt.Sprintf("SelectNode(%s)", r.Node) }
func (r DeleteNodeUi) String() string   { return fmt.Sprintf("DeleteNodeUi(%s)", r.Node) }
func (r DeleteNodeFull) String() string { return fmt.Sprintf("DeleteNodeFull{node_id: %s}", r.NodeID) }
func (r RaiseNode) String() string      { return fmt.Sprintf("RaiseNode(%s)", r.Node) }

func (r MoveNode) String() string {
	return fmt.Sprintf("MoveNode{node: %s, delta: (%g, %g)}", r.Node, r.Delta.X, r.Delta.Y)
}

func (r User) String() string { return fmt.Sprintf("User(%s, %v)", r.Node, r.Value) }
