package terminal

import (
	"math"

	"github.com/mattn/go-runewidth"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"nodegraph/editor"
	"nodegraph/geom"
	"nodegraph/graph"
	"nodegraph/templates"
)

const minBoxWidth = 12

// row is one slot line of a box. Either side may be empty.
type row struct {
	input  *graph.NamedSlot
	output *graph.NamedSlot
	// inline is the constant shown next to an unconnected input.
	inline string
}

// Box is a laid out node in cell coordinates.
type Box struct {
	Node     graph.NodeID
	Rect     geom.Rect
	Label    string
	CanClose bool
	rows     []row
}

// closeCell is the cell holding the close affordance.
func (b *Box) closeCell() geom.Pos2 {
	return geom.Pos2{X: b.Rect.Max.X - 2, Y: b.Rect.Min.Y}
}

// Layout places every node of an editor on the cell grid. Boxes are kept in
// paint order, bottom first.
type Layout struct {
	boxes []*Box
	ports map[graph.SlotID]geom.Pos2
}

// NewLayout lays out the editor's graph at the session's node positions.
func NewLayout(ed *editor.Editor[templates.Payload]) *Layout {
	g := ed.Graph()
	s := ed.Session()
	l := &Layout{ports: make(map[graph.SlotID]geom.Pos2)}

	for _, id := range s.NodeOrder {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		pos := s.NodePositions[id]
		x0, y0 := math.Floor(pos.X), math.Floor(pos.Y)

		var ins, outs []graph.NamedSlot
		for _, ns := range n.Inputs() {
			if slot, ok := g.Slot(ns.ID); ok && slot.ShownInline {
				ins = append(ins, ns)
			}
		}
		for _, ns := range n.Outputs() {
			if slot, ok := g.Slot(ns.ID); ok && slot.ShownInline {
				outs = append(outs, ns)
			}
		}

		b := &Box{Node: id, Label: n.Label, CanClose: ed.CanDelete(id)}
		leftW, rightW := 0, 0
		for i := 0; i < len(ins) || i < len(outs); i++ {
			var r row
			if i < len(ins) {
				r.input = &ins[i]
				r.inline = inlineValue(g, ins[i].ID)
				w := runewidth.StringWidth(ins[i].Name)
				if r.inline != "" {
					w += 1 + runewidth.StringWidth(r.inline)
				}
				leftW = max(leftW, w)
			}
			if i < len(outs) {
				r.output = &outs[i]
				rightW = max(rightW, runewidth.StringWidth(outs[i].Name))
			}
			b.rows = append(b.rows, r)
		}

		width := max(minBoxWidth, runewidth.StringWidth(n.Label)+6, leftW+rightW+5)
		height := len(b.rows) + 2
		b.Rect = geom.RectFromMinSize(geom.Pos2{X: x0, Y: y0}, geom.Vec2{X: float64(width), Y: float64(height)})

		for i, r := range b.rows {
			y := y0 + 1 + float64(i)
			if r.input != nil && hasPort(g, r.input.ID) {
				l.ports[r.input.ID] = geom.Pos2{X: x0, Y: y}
			}
			if r.output != nil {
				l.ports[r.output.ID] = geom.Pos2{X: b.Rect.Max.X - 1, Y: y}
			}
		}
		l.boxes = append(l.boxes, b)
	}
	return l
}

func hasPort(g *graph.Graph[templates.Payload], id graph.SlotID) bool {
	slot, ok := g.Slot(id)
	return ok && (id.IsOutput() || slot.Kind.HasPort())
}

// inlineValue renders the constant of an input that is not fed by a
// connection.
func inlineValue(g *graph.Graph[templates.Payload], id graph.SlotID) string {
	slot, ok := g.Slot(id)
	if !ok || slot.Kind == graph.ConnectionOnly || g.IsConnected(id) {
		return ""
	}
	if slot.Value.IsNull() || !slot.Value.IsWhollyKnown() {
		return ""
	}
	data, err := ctyjson.Marshal(slot.Value, slot.Value.Type())
	if err != nil {
		return ""
	}
	return runewidth.Truncate(string(data), 16, "…")
}

// Boxes returns the laid out nodes in paint order.
func (l *Layout) Boxes() []*Box { return l.boxes }

// Port returns the cell of a slot's port.
func (l *Layout) Port(id graph.SlotID) (geom.Pos2, bool) {
	p, ok := l.ports[id]
	return p, ok
}

// Box returns the box of a node.
func (l *Layout) Box(id graph.NodeID) (*Box, bool) {
	for _, b := range l.boxes {
		if b.Node == id {
			return b, true
		}
	}
	return nil, false
}

// Frame fills the geometry part of a FrameInput.
func (l *Layout) Frame(in *editor.FrameInput) {
	in.NodeRects = make(map[graph.NodeID]geom.Rect, len(l.boxes))
	for _, b := range l.boxes {
		in.NodeRects[b.Node] = b.Rect
	}
	in.Ports = make(map[graph.SlotID]editor.PortState, len(l.ports))
	for id, p := range l.ports {
		in.Ports[id] = editor.PortState{Pos: p}
	}
}

// HitTest reports what lies under a cell, topmost box first.
func (l *Layout) HitTest(p geom.Pos2) editor.Target {
	for i := len(l.boxes) - 1; i >= 0; i-- {
		b := l.boxes[i]
		if !b.Rect.Contains(p) {
			continue
		}
		for _, r := range b.rows {
			for _, ns := range []*graph.NamedSlot{r.input, r.output} {
				if ns == nil {
					continue
				}
				if port, ok := l.ports[ns.ID]; ok && port == p {
					return editor.PortTarget(b.Node, ns.ID)
				}
			}
		}
		if b.CanClose && b.closeCell() == p {
			return editor.CloseTarget(b.Node)
		}
		return editor.NodeTarget(b.Node)
	}
	return editor.BackgroundTarget()
}
