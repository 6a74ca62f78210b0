package editor

import (
	"nodegraph/geom"
	"nodegraph/graph"
)

// moveNode shifts a node by delta. A node that is part of a multi-node
// selection carries the rest of the selection with it.
func (e *Editor[N]) moveNode(id graph.NodeID, delta geom.Vec2) {
	if len(e.session.SelectedNodes) > 1 && e.session.IsSelected(id) {
		for _, sel := range e.session.SelectedNodes {
			e.translate(sel, delta)
		}
		return
	}
	e.translate(id, delta)
}

func (e *Editor[N]) translate(id graph.NodeID, delta geom.Vec2) {
	e.session.NodePositions[id] = e.session.NodePositions[id].Add(delta)
}

// Position returns where a node is drawn.
func (e *Editor[N]) Position(id graph.NodeID) (geom.Pos2, bool) {
	p, ok := e.session.NodePositions[id]
	return p, ok
}
