package editor

import (
	"slices"

	"nodegraph/geom"
	"nodegraph/graph"
)

// DragOrigin is the port a connection drag started from.
type DragOrigin struct {
	Node graph.NodeID
	Slot graph.SlotID
}

// Session is the per-surface editing state layered over a graph. Only
// NodePositions and NodeOrder outlive a gesture; the other fields describe
// gestures in flight and are never persisted.
type Session struct {
	ConnectionInProgress *DragOrigin
	SelectedNodes        []graph.NodeID
	OngoingBoxSelection  *geom.Pos2
	NodePositions        map[graph.NodeID]geom.Pos2
	NodeOrder            []graph.NodeID
}

// NewSession returns an idle session.
func NewSession() Session {
	return Session{NodePositions: make(map[graph.NodeID]geom.Pos2)}
}

// Raise moves id to the end of the paint order. Raising the last node, or a
// node missing from the order, changes nothing.
func (s *Session) Raise(id graph.NodeID) {
	i := slices.Index(s.NodeOrder, id)
	if i < 0 || i == len(s.NodeOrder)-1 {
		return
	}
	s.NodeOrder = append(slices.Delete(s.NodeOrder, i, i+1), id)
}

// IsSelected reports whether id is part of the selection.
func (s *Session) IsSelected(id graph.NodeID) bool {
	return slices.Contains(s.SelectedNodes, id)
}

// Forget drops every reference to a node.
func (s *Session) Forget(id graph.NodeID) {
	delete(s.NodePositions, id)
	s.NodeOrder = slices.DeleteFunc(s.NodeOrder, func(n graph.NodeID) bool { return n == id })
	s.SelectedNodes = slices.DeleteFunc(s.SelectedNodes, func(n graph.NodeID) bool { return n == id })
	if s.ConnectionInProgress != nil && s.ConnectionInProgress.Node == id {
		s.ConnectionInProgress = nil
	}
}

// ResetGestures clears the state that only exists while a gesture is in flight.
func (s *Session) ResetGestures() {
	s.ConnectionInProgress = nil
	s.OngoingBoxSelection = nil
}

// Clone copies the session.
func (s *Session) Clone() Session {
	out := Session{
		SelectedNodes: slices.Clone(s.SelectedNodes),
		NodePositions: make(map[graph.NodeID]geom.Pos2, len(s.NodePositions)),
		NodeOrder:     slices.Clone(s.NodeOrder),
	}
	for id, p := range s.NodePositions {
		out.NodePositions[id] = p
	}
	if s.ConnectionInProgress != nil {
		origin := *s.ConnectionInProgress
		out.ConnectionInProgress = &origin
	}
	if s.OngoingBoxSelection != nil {
		anchor := *s.OngoingBoxSelection
		out.OngoingBoxSelection = &anchor
	}
	return out
}

// sync brings the order and positions in line with the graph: nodes added
// straight to the graph are appended, removed ones are forgotten.
func syncSession[N any](s *Session, g *graph.Graph[N]) {
	if s.NodePositions == nil {
		s.NodePositions = make(map[graph.NodeID]geom.Pos2)
	}
	for _, id := range slices.Clone(s.NodeOrder) {
		if !g.HasNode(id) {
			s.Forget(id)
		}
	}
	for _, id := range slices.Clone(s.SelectedNodes) {
		if !g.HasNode(id) {
			s.Forget(id)
		}
	}
	for id := range s.NodePositions {
		if !g.HasNode(id) {
			delete(s.NodePositions, id)
		}
	}
	if len(s.NodeOrder) == g.NodeCount() {
		return
	}
	for _, id := range g.NodeIDs() {
		if !slices.Contains(s.NodeOrder, id) {
			s.NodeOrder = append(s.NodeOrder, id)
		}
	}
}
