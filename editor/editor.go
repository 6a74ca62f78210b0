// Package editor turns per-frame pointer input into graph edits. The renderer
// draws the graph, hit-tests the pointer and reports what it found in a
// FrameInput; Update applies the consequences and returns the ordered
// NodeResponse list for the embedder.
package editor

import (
	"log/slog"

	"nodegraph/geom"
	"nodegraph/graph"
)

// DefaultCaptureRadius is how close, in screen units, a released drag must be
// to a port for the connection to be made.
const DefaultCaptureRadius = 10.0

// Deletable is implemented by node payloads that control whether the node
// shows a close affordance. Payloads without it are deletable.
type Deletable interface {
	CanDelete() bool
}

// Options configures an Editor.
type Options[N any] struct {
	CaptureRadius float64
	HistorySize   int
	Logger        *slog.Logger

	// BeforeDelete runs after a node's DeleteNodeUi and before it leaves the
	// graph, while its connections are still present.
	BeforeDelete func(*graph.Node[N])
}

// Editor represents the interaction controller for one editing surface
type Editor[N any] struct {
	graph   *graph.Graph[N]
	session Session
	finder  *Finder
	history *History[N]
	opts    Options[N]
	log     *slog.Logger

	// Responses produced between frames, flushed by the next Update
	pending []NodeResponse

	// A node drag moved something that is not in history yet
	moved bool
}

// New creates an editor over g with an empty layout.
func New[N any](g *graph.Graph[N], opts Options[N]) *Editor[N] {
	if opts.CaptureRadius <= 0 {
		opts.CaptureRadius = DefaultCaptureRadius
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := &Editor[N]{
		opts: opts,
		log:  opts.Logger.With("component", "editor"),
	}
	e.Reset(g, NewSession())
	return e
}

// Reset replaces the graph and layout, for example after loading a document.
// Gesture state and history start over.
func (e *Editor[N]) Reset(g *graph.Graph[N], s Session) {
	e.graph = g
	e.session = s
	e.session.ResetGestures()
	syncSession(&e.session, e.graph)
	e.finder = nil
	e.pending = nil
	e.moved = false
	e.history = NewHistory[N](e.opts.HistorySize)
	e.history.SaveState(e.graph, &e.session)
}

// Graph returns the graph being edited. The pointer stays valid across undo.
func (e *Editor[N]) Graph() *graph.Graph[N] {
	return e.graph
}

// Session returns the live editing state. Renderers read it; embedders may
// adjust NodePositions directly.
func (e *Editor[N]) Session() *Session {
	return &e.session
}

// Place records a node's position and puts it on top of the paint order.
// It does not add an undo step.
func (e *Editor[N]) Place(id graph.NodeID, pos geom.Pos2) {
	if !e.graph.HasNode(id) {
		return
	}
	e.session.NodePositions[id] = pos
	syncSession(&e.session, e.graph)
	e.session.Raise(id)
	e.history.Amend(e.graph, &e.session)
}

// CanDelete reports whether a node exposes the close affordance.
func (e *Editor[N]) CanDelete(id graph.NodeID) bool {
	n, ok := e.graph.Node(id)
	if !ok {
		return false
	}
	if d, ok := any(n.Payload).(Deletable); ok {
		return d.CanDelete()
	}
	return true
}

// Update processes one frame of input. Nodes are visited bottom to top in
// paint order, then the background, then every collected response is
// applied in order. Graph edits happen only here.
func (e *Editor[N]) Update(in FrameInput) []NodeResponse {
	syncSession(&e.session, e.graph)

	responses := e.pending
	e.pending = nil

	byNode := make(map[graph.NodeID][]Event)
	var background []Event
	for _, ev := range in.Events {
		if ev.Target.Kind == TargetBackground {
			background = append(background, ev)
			continue
		}
		if !e.graph.HasNode(ev.Target.Node) {
			e.log.Debug("event for unknown node dropped", "node", ev.Target.Node, "kind", ev.Kind)
			continue
		}
		byNode[ev.Target.Node] = append(byNode[ev.Target.Node], ev)
	}
	user := make(map[graph.NodeID][]UserAction)
	for _, u := range in.User {
		user[u.Node] = append(user[u.Node], u)
	}

	f := frame{
		in:       &in,
		released: in.released(),
		ongoing:  e.session.ConnectionInProgress,
	}
	for _, id := range append([]graph.NodeID(nil), e.session.NodeOrder...) {
		responses = append(responses, e.nodeFrame(id, byNode[id], user[id], &f)...)
	}
	e.backgroundFrame(background, &f)

	out := e.apply(responses)

	if f.released {
		if e.session.ConnectionInProgress != nil && !f.connected {
			e.log.Debug("connection drag ended without a target", "origin", e.session.ConnectionInProgress.Slot)
		}
		e.session.ConnectionInProgress = nil
		if e.moved {
			e.history.SaveState(e.graph, &e.session)
			e.moved = false
		}
	}
	return out
}

// frame carries the cross-node state of one Update call.
type frame struct {
	in       *FrameInput
	released bool
	// Drag state as of the start of the frame
	ongoing *DragOrigin
	// A port already started a drag this frame
	started bool
	// The ongoing drag already resolved onto a port this frame
	connected bool
}

// nodeFrame produces the responses of a single node, in the order ports,
// close affordance, movement, selection.
func (e *Editor[N]) nodeFrame(id graph.NodeID, events []Event, user []UserAction, f *frame) []NodeResponse {
	n, ok := e.graph.Node(id)
	if !ok {
		return nil
	}

	var rs []NodeResponse
	for _, u := range user {
		rs = append(rs, User{Node: id, Value: u.Value})
	}

	for _, ns := range n.Slots() {
		rs = append(rs, e.portFrame(id, ns.ID, events, f)...)
	}

	if e.CanDelete(id) && hasEvent(events, EventClick, TargetCloseButton) {
		rs = append(rs, DeleteNodeUi{Node: id})
	}

	var delta geom.Vec2
	dragged := false
	for _, ev := range events {
		if ev.Target.Kind != TargetNode {
			continue
		}
		switch ev.Kind {
		case EventDragStart:
			dragged = true
		case EventDragContinue:
			delta = delta.Add(ev.Delta)
			dragged = true
		}
	}
	if dragged && !delta.IsZero() {
		rs = append(rs, MoveNode{Node: id, Delta: delta}, RaiseNode{Node: id})
	}

	if len(rs) == 0 && hasEvent(events, EventClick, TargetNode) {
		rs = append(rs, SelectNode{Node: id}, RaiseNode{Node: id})
	}
	return rs
}

func hasEvent(events []Event, kind EventKind, target TargetKind) bool {
	for _, ev := range events {
		if ev.Kind == kind && ev.Target.Kind == target {
			return true
		}
	}
	return false
}

// apply resolves the collected responses against the graph and session and
// returns them, expanded with the consequences of each delete.
func (e *Editor[N]) apply(responses []NodeResponse) []NodeResponse {
	out := make([]NodeResponse, 0, len(responses))
	changed := false
	for _, r := range responses {
		if !e.resolves(r) {
			e.log.Debug("response for removed node dropped", "response", r)
			continue
		}
		switch r := r.(type) {
		case ConnectEventStarted:
			e.session.ConnectionInProgress = &DragOrigin{Node: r.Node, Slot: r.Slot}
			out = append(out, r)

		case ConnectEventEnded:
			if err := e.graph.Connect(r.Output.Slot(), r.Input.Slot()); err != nil {
				e.log.Debug("connection rejected", "input", r.Input, "output", r.Output, "error", err)
				continue
			}
			changed = true
			out = append(out, r)

		case DisconnectEvent:
			if prev, ok := e.graph.ConnectionOf(r.Input); !ok || prev != r.Output {
				e.log.Debug("disconnect for missing connection dropped", "input", r.Input)
				continue
			}
			e.graph.Disconnect(r.Input)
			changed = true
			out = append(out, r)

		case SelectNode:
			e.session.SelectedNodes = []graph.NodeID{r.Node}
			out = append(out, r)

		case DeleteNodeUi:
			out = append(out, r)
			out = append(out, e.removeNode(r.Node)...)
			changed = true

		case RaiseNode:
			e.session.Raise(r.Node)
			out = append(out, r)

		case MoveNode:
			e.moveNode(r.Node, r.Delta)
			e.moved = true
			out = append(out, r)

		default:
			out = append(out, r)
		}
	}
	if changed {
		e.history.SaveState(e.graph, &e.session)
		// The snapshot already holds any positions moved this frame.
		e.moved = false
	}
	return out
}

// resolves reports whether the node a response is about still exists. A
// delete earlier in the same pass, or an undo since the response was queued,
// leaves it stale.
func (e *Editor[N]) resolves(r NodeResponse) bool {
	switch r := r.(type) {
	case ConnectEventStarted:
		_, ok := e.graph.Slot(r.Slot)
		return ok && e.graph.HasNode(r.Node)
	case CreatedNode:
		return e.graph.HasNode(r.Node)
	case SelectNode:
		return e.graph.HasNode(r.Node)
	case DeleteNodeUi:
		return e.graph.HasNode(r.Node)
	case RaiseNode:
		return e.graph.HasNode(r.Node)
	case MoveNode:
		return e.graph.HasNode(r.Node)
	case User:
		return e.graph.HasNode(r.Node)
	}
	return true
}

// Undo restores the previous graph and layout. It reports false when there
// is nothing to undo.
func (e *Editor[N]) Undo() bool {
	g, s, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(g, s)
	return true
}

// Redo reapplies the state that the last Undo left.
func (e *Editor[N]) Redo() bool {
	g, s, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(g, s)
	return true
}

// CanUndo reports whether Undo would change anything.
func (e *Editor[N]) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (e *Editor[N]) CanRedo() bool { return e.history.CanRedo() }

func (e *Editor[N]) restore(g *graph.Graph[N], s Session) {
	*e.graph = *g
	selected := e.session.SelectedNodes
	e.session = s
	e.session.SelectedNodes = selected
	e.moved = false
	e.pending = nil
	syncSession(&e.session, e.graph)
}
