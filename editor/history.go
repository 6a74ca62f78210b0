package editor

import (
	"nodegraph/graph"
)

// snapshot is one undo step: the graph plus the layout that survives gestures.
type snapshot[N any] struct {
	graph   *graph.Graph[N]
	session Session
}

// History manages undo/redo by keeping deep copies of the graph and layout
type History[N any] struct {
	states  []snapshot[N]
	current int // Current position in history
	max     int // Maximum number of states to keep
}

// NewHistory creates a new history manager
func NewHistory[N any](max int) *History[N] {
	if max <= 0 {
		max = 50
	}
	return &History[N]{
		states:  make([]snapshot[N], 0, min(max, 64)),
		current: -1,
		max:     max,
	}
}

// SaveState records a deep copy of g and the persistent part of s
func (h *History[N]) SaveState(g *graph.Graph[N], s *Session) {
	layout := s.Clone()
	layout.ResetGestures()
	layout.SelectedNodes = nil

	// Drop the redo tail
	if h.current < len(h.states)-1 {
		h.states = h.states[:h.current+1]
	}

	h.states = append(h.states, snapshot[N]{graph: g.Clone(), session: layout})

	if len(h.states) > h.max {
		h.states = h.states[1:]
	} else {
		h.current++
	}
}

// Amend replaces the current state without adding an undo step
func (h *History[N]) Amend(g *graph.Graph[N], s *Session) {
	if h.current < 0 {
		h.SaveState(g, s)
		return
	}
	layout := s.Clone()
	layout.ResetGestures()
	layout.SelectedNodes = nil
	h.states[h.current] = snapshot[N]{graph: g.Clone(), session: layout}
}

// CanUndo returns true if we can undo
func (h *History[N]) CanUndo() bool {
	return h.current > 0
}

// CanRedo returns true if we can redo
func (h *History[N]) CanRedo() bool {
	return h.current < len(h.states)-1
}

// Undo goes back one state. The returned copies are safe to modify.
func (h *History[N]) Undo() (*graph.Graph[N], Session, bool) {
	if !h.CanUndo() {
		return nil, Session{}, false
	}
	h.current--
	return h.at(h.current)
}

// Redo goes forward one state
func (h *History[N]) Redo() (*graph.Graph[N], Session, bool) {
	if !h.CanRedo() {
		return nil, Session{}, false
	}
	h.current++
	return h.at(h.current)
}

func (h *History[N]) at(i int) (*graph.Graph[N], Session, bool) {
	st := h.states[i]
	return st.graph.Clone(), st.session.Clone(), true
}

// Clear clears all history
func (h *History[N]) Clear() {
	h.states = h.states[:0]
	h.current = -1
}

// Stats returns current position and total states
func (h *History[N]) Stats() (current, total int) {
	return h.current + 1, len(h.states)
}
