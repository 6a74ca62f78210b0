package terminal

import (
	"github.com/gdamore/tcell/v2"

	"nodegraph/editor"
	"nodegraph/geom"
)

// mouse turns tcell's button-state reports into discrete editor events.
// tcell only says which buttons are down at each report, so presses,
// drags and releases are reconstructed here.
type mouse struct {
	down    bool
	moved   bool
	started bool
	press   geom.Pos2
	last    geom.Pos2
	target  editor.Target
}

// translate returns the frames one mouse report produces. Most reports
// produce one frame; starting a box selection produces two so the box is
// anchored where the button went down.
func (m *mouse) translate(ev *tcell.EventMouse, l *Layout) []editor.FrameInput {
	x, y := ev.Position()
	p := geom.Pos2{X: float64(x), Y: float64(y)}
	in := editor.FrameInput{Pointer: p, HasPointer: true}
	pressed := ev.Buttons()&tcell.Button1 != 0

	switch {
	case pressed && !m.down:
		*m = mouse{down: true, press: p, last: p, target: l.HitTest(p)}
		if m.target.Kind == editor.TargetPort {
			in.Events = append(in.Events, editor.Event{Kind: editor.EventDragStart, Target: m.target})
			m.started = true
		}
		return []editor.FrameInput{in}

	case pressed && m.down:
		if p == m.last {
			return nil
		}
		delta := p.Sub(m.last)
		m.last = p
		m.moved = true

		switch m.target.Kind {
		case editor.TargetNode, editor.TargetCloseButton:
			node := editor.NodeTarget(m.target.Node)
			if !m.started {
				in.Events = append(in.Events, editor.Event{Kind: editor.EventDragStart, Target: node})
				m.started = true
			}
			in.Events = append(in.Events, editor.Event{Kind: editor.EventDragContinue, Target: node, Delta: delta})
		case editor.TargetBackground:
			if !m.started {
				m.started = true
				anchor := editor.FrameInput{
					Pointer:    m.press,
					HasPointer: true,
					Events:     []editor.Event{{Kind: editor.EventDragStart, Target: editor.BackgroundTarget()}},
				}
				return []editor.FrameInput{anchor, in}
			}
		}
		return []editor.FrameInput{in}

	case !pressed && m.down:
		m.down = false
		in.AnyReleased = true
		switch {
		case !m.moved && m.target.Kind != editor.TargetPort:
			in.Events = append(in.Events, editor.Event{Kind: editor.EventClick, Target: m.target})
		case m.started && m.target.Kind != editor.TargetPort && m.target.Kind != editor.TargetBackground:
			in.Events = append(in.Events, editor.Event{Kind: editor.EventDragRelease, Target: editor.NodeTarget(m.target.Node)})
		}
		return []editor.FrameInput{in}
	}

	// Hover.
	m.last = p
	return []editor.FrameInput{in}
}
