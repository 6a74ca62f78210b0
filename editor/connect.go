package editor

import (
	"nodegraph/graph"
)

// portFrame handles one port of one node. With no drag in flight a
// drag-start either picks a connection up off a connected input or starts a
// new drag. With a drag in flight the port only takes part in resolution.
func (e *Editor[N]) portFrame(node graph.NodeID, id graph.SlotID, events []Event, f *frame) []NodeResponse {
	slot, ok := e.graph.Slot(id)
	if !ok || (id.IsInput() && !slot.Kind.HasPort()) {
		return nil
	}

	if f.ongoing == nil {
		if f.started || !portEvent(events, id, EventDragStart) {
			return nil
		}
		f.started = true
		if id.IsInput() {
			input := id.AssumeInput()
			if output, connected := e.graph.ConnectionOf(input); connected {
				return []NodeResponse{DisconnectEvent{Input: input, Output: output}}
			}
		}
		return []NodeResponse{ConnectEventStarted{Node: node, Slot: id}}
	}

	if !f.released || f.connected || !f.in.HasPointer || f.ongoing.Node == node {
		return nil
	}
	port, laidOut := f.in.Ports[id]
	if !laidOut || port.Pos.Distance(f.in.Pointer) >= e.opts.CaptureRadius {
		return nil
	}
	output, input, ok := e.graph.CanConnect(f.ongoing.Slot, id)
	if !ok {
		e.log.Debug("incompatible port under released drag",
			"origin", f.ongoing.Slot, "target", id,
			"origin_type", graph.FriendlyTypeName(e.graph.SlotType(f.ongoing.Slot)),
			"target_type", graph.FriendlyTypeName(slot.Type))
		return nil
	}
	f.connected = true
	return []NodeResponse{ConnectEventEnded{Input: input.AssumeInput(), Output: output.AssumeOutput()}}
}

func portEvent(events []Event, id graph.SlotID, kind EventKind) bool {
	for _, ev := range events {
		if ev.Kind == kind && ev.Target.Kind == TargetPort && ev.Target.Slot == id {
			return true
		}
	}
	return false
}
