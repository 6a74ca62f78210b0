package editor

import (
	"nodegraph/graph"
)

// removeNode runs the second phase of a delete: the hook, the cascade of the
// node's connections, the session cleanup and the final acknowledgement.
func (e *Editor[N]) removeNode(id graph.NodeID) []NodeResponse {
	n, ok := e.graph.Node(id)
	if !ok {
		return nil
	}
	if e.opts.BeforeDelete != nil {
		e.opts.BeforeDelete(n)
	}

	_, removed, _ := e.graph.RemoveNode(id)
	rs := make([]NodeResponse, 0, len(removed)+1)
	for _, c := range removed {
		rs = append(rs, DisconnectEvent{Input: c.Input, Output: c.Output})
	}
	e.session.Forget(id)

	e.log.Debug("node deleted", "node", id, "connections", len(removed))
	return append(rs, DeleteNodeFull{NodeID: id})
}

// DeleteSelected queues a delete request for every selected node that can be
// deleted. The requests are carried out by the next Update.
func (e *Editor[N]) DeleteSelected() int {
	queued := 0
	for _, id := range e.session.SelectedNodes {
		if !e.CanDelete(id) {
			continue
		}
		e.pending = append(e.pending, DeleteNodeUi{Node: id})
		queued++
	}
	return queued
}
