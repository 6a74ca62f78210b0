package editor

import (
	"nodegraph/geom"
	"nodegraph/graph"
)

// EventKind represents a discrete pointer event reported by the renderer
type EventKind int

const (
	EventClick        EventKind = iota // Press and release without movement
	EventDragStart                     // Pointer pressed and started moving
	EventDragContinue                  // Pointer still held; Delta holds this frame's movement
	EventDragRelease                   // Pointer released at the end of a drag
)

// String returns the event kind name for display
func (k EventKind) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventDragStart:
		return "drag-start"
	case EventDragContinue:
		return "drag-continue"
	case EventDragRelease:
		return "drag-release"
	default:
		return "unknown"
	}
}

// TargetKind says what the renderer's hit-test found under the pointer
type TargetKind int

const (
	TargetBackground  TargetKind = iota // Empty editor area
	TargetNode                          // A node's body, outside its ports
	TargetPort                          // A slot's port
	TargetCloseButton                   // The node's close affordance
)

// String returns the target kind name for display
func (k TargetKind) String() string {
	switch k {
	case TargetBackground:
		return "background"
	case TargetNode:
		return "node"
	case TargetPort:
		return "port"
	case TargetCloseButton:
		return "close"
	default:
		return "unknown"
	}
}

// Target is what an event hit.
type Target struct {
	Kind TargetKind
	Node graph.NodeID
	Slot graph.SlotID
}

// BackgroundTarget returns a target for the empty editor area.
func BackgroundTarget() Target { return Target{Kind: TargetBackground} }

// NodeTarget returns a target for a node body.
func NodeTarget(n graph.NodeID) Target { return Target{Kind: TargetNode, Node: n} }

// PortTarget returns a target for a slot's port.
func PortTarget(n graph.NodeID, s graph.SlotID) Target {
	return Target{Kind: TargetPort, Node: n, Slot: s}
}

// CloseTarget returns a target for a node's close affordance.
func CloseTarget(n graph.NodeID) Target { return Target{Kind: TargetCloseButton, Node: n} }

// Event is one discrete interaction within a frame.
type Event struct {
	Kind   EventKind
	Target Target
	Delta  geom.Vec2
}

// PortState is the renderer's view of one port this frame.
type PortState struct {
	Pos geom.Pos2
	// Connected is informational; the graph's connection table is authoritative.
	Connected bool
}

// UserAction is an embedder-specific response raised by a node's custom UI.
type UserAction struct {
	Node  graph.NodeID
	Value any
}

// FrameInput is everything the renderer reports for one frame.
type FrameInput struct {
	NodeRects map[graph.NodeID]geom.Rect
	Ports     map[graph.SlotID]PortState
	Events    []Event
	User      []UserAction

	Pointer    geom.Pos2
	HasPointer bool

	// AnyReleased is set when the pointer button went up anywhere this frame.
	AnyReleased bool
}

func (in *FrameInput) released() bool {
	if in.AnyReleased {
		return true
	}
	for _, ev := range in.Events {
		if ev.Kind == EventDragRelease {
			return true
		}
	}
	return false
}
