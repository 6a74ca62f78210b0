package editor

import (
	"nodegraph/geom"
	"nodegraph/graph"
)

// backgroundFrame handles events on the empty editor area: a click clears the
// selection and closes the finder, a drag-start anchors a box selection.
func (e *Editor[N]) backgroundFrame(events []Event, f *frame) {
	for _, ev := range events {
		switch ev.Kind {
		case EventClick:
			e.session.SelectedNodes = nil
			e.finder = nil
		case EventDragStart:
			if f.ongoing == nil && f.in.HasPointer {
				anchor := f.in.Pointer
				e.session.OngoingBoxSelection = &anchor
			}
		}
	}

	if e.session.OngoingBoxSelection != nil && f.in.HasPointer {
		box := geom.RectFromTwoPos(*e.session.OngoingBoxSelection, f.in.Pointer)
		e.session.SelectedNodes = e.nodesInBox(box, f.in.NodeRects)
	}
	if f.released {
		e.session.OngoingBoxSelection = nil
	}
}

// nodesInBox lists, in paint order, the nodes whose rectangle touches box.
func (e *Editor[N]) nodesInBox(box geom.Rect, rects map[graph.NodeID]geom.Rect) []graph.NodeID {
	var ids []graph.NodeID
	for _, id := range e.session.NodeOrder {
		if r, ok := rects[id]; ok && r.Intersects(box) {
			ids = append(ids, id)
		}
	}
	return ids
}

// SelectedNodes returns a copy of the selection.
func (e *Editor[N]) SelectedNodes() []graph.NodeID {
	return append([]graph.NodeID(nil), e.session.SelectedNodes...)
}

// Select replaces the selection with the given live nodes.
func (e *Editor[N]) Select(ids ...graph.NodeID) {
	e.session.SelectedNodes = e.session.SelectedNodes[:0]
	for _, id := range ids {
		if e.graph.HasNode(id) && !e.session.IsSelected(id) {
			e.session.SelectedNodes = append(e.session.SelectedNodes, id)
		}
	}
}
