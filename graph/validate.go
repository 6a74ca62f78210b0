package graph

import "fmt"

// ValidationError describes one broken invariant.
type ValidationError struct {
	Subject string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("graph: %s: %s", e.Subject, e.Message)
}

// Validate checks the structural invariants of the graph: every slot is owned
// by a live node that lists it, and every connection joins an existing output
// to an existing input of the same type on a different node. A graph built
// only through this package's operations always validates.
func (g *Graph[N]) Validate() []error {
	var errs []error
	report := func(subject fmt.Stringer, format string, args ...any) {
		errs = append(errs, ValidationError{Subject: subject.String(), Message: fmt.Sprintf(format, args...)})
	}

	listed := make(map[SlotID]NodeID)
	for _, id := range g.NodeIDs() {
		n, _ := g.Node(id)
		for _, ns := range n.inputs {
			if !ns.ID.IsInput() {
				report(id, "input list holds %s", ns.ID)
			}
			listed[ns.ID] = id
		}
		for _, ns := range n.outputs {
			if !ns.ID.IsOutput() {
				report(id, "output list holds %s", ns.ID)
			}
			listed[ns.ID] = id
		}
	}

	for _, k := range g.slots.keys() {
		s, _ := g.slots.get(k)
		owner, ok := listed[s.id]
		switch {
		case !g.HasNode(s.node):
			report(s.id, "owned by missing %s", s.node)
		case !ok:
			report(s.id, "not listed by %s", s.node)
		case owner != s.node:
			report(s.id, "listed by %s but owned by %s", owner, s.node)
		}
	}
	for sid, owner := range listed {
		if _, ok := g.Slot(sid); !ok {
			report(owner, "lists missing %s", sid)
		}
	}

	for _, c := range g.Connections() {
		in, okIn := g.Slot(c.Input.Slot())
		out, okOut := g.Slot(c.Output.Slot())
		if !okIn || !okOut {
			report(c.Input, "dangling connection to %s", c.Output)
			continue
		}
		if in.node == out.node {
			report(c.Input, "self loop on %s", in.node)
		}
		if !TypesEqual(in.Type, out.Type) {
			report(c.Input, "type %s connected to %s", FriendlyTypeName(in.Type), FriendlyTypeName(out.Type))
		}
	}
	return errs
}
