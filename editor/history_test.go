package editor

import (
	"testing"

	"nodegraph/geom"
	"nodegraph/graph"
)

func TestHistoryManager(t *testing.T) {
	h := NewHistory[testPayload](5)
	s := NewSession()

	g := graph.New[testPayload]()
	for i := 0; i < 3; i++ {
		g.AddNode("Node", testPayload{})
		h.SaveState(g, &s)
	}

	current, total := h.Stats()
	if total != 3 || current != 3 {
		t.Errorf("Expected position 3 of 3, got %d of %d", current, total)
	}

	if !h.CanUndo() {
		t.Fatal("Should be able to undo")
	}
	undone, _, ok := h.Undo()
	if !ok || undone.NodeCount() != 2 {
		t.Errorf("Undo returned wrong state: %v", undone)
	}

	if !h.CanRedo() {
		t.Fatal("Should be able to redo")
	}
	redone, _, ok := h.Redo()
	if !ok || redone.NodeCount() != 3 {
		t.Errorf("Redo returned wrong state: %v", redone)
	}
	if h.CanRedo() {
		t.Error("Should not be able to redo at the newest state")
	}
}

func TestHistoryTruncatesRedoTail(t *testing.T) {
	h := NewHistory[testPayload](10)
	s := NewSession()
	g := graph.New[testPayload]()

	h.SaveState(g, &s)
	g.AddNode("A", testPayload{})
	h.SaveState(g, &s)
	h.Undo()

	g2 := graph.New[testPayload]()
	g2.AddNode("B", testPayload{})
	g2.AddNode("C", testPayload{})
	h.SaveState(g2, &s)

	if h.CanRedo() {
		t.Error("Saving after undo should drop the redo tail")
	}
	if _, total := h.Stats(); total != 2 {
		t.Errorf("Expected 2 states, got %d", total)
	}
}

func TestHistoryCapacity(t *testing.T) {
	h := NewHistory[testPayload](3)
	s := NewSession()
	g := graph.New[testPayload]()

	for i := 0; i < 10; i++ {
		g.AddNode("n", testPayload{})
		h.SaveState(g, &s)
	}

	current, total := h.Stats()
	if total != 3 || current != 3 {
		t.Errorf("Expected 3 of 3 states kept, got %d of %d", current, total)
	}
	h.Undo()
	oldest, _, _ := h.Undo()
	if oldest.NodeCount() != 8 {
		t.Errorf("Expected oldest kept state to have 8 nodes, got %d", oldest.NodeCount())
	}
	if h.CanUndo() {
		t.Error("Should not undo past capacity")
	}
}

func TestHistorySnapshotsAreIndependent(t *testing.T) {
	h := NewHistory[testPayload](5)
	s := NewSession()
	g := graph.New[testPayload]()
	a := g.AddNode("A", testPayload{})
	s.NodePositions[a] = geom.Pos2{X: 1, Y: 1}
	h.SaveState(g, &s)

	g.RemoveNode(a)
	s.NodePositions[a] = geom.Pos2{X: 9, Y: 9}
	h.SaveState(g, &s)

	restored, layout, _ := h.Undo()
	if !restored.HasNode(a) {
		t.Error("Snapshot should not see later edits to the graph")
	}
	if layout.NodePositions[a] != (geom.Pos2{X: 1, Y: 1}) {
		t.Errorf("Snapshot should not see later layout edits, got %v", layout.NodePositions[a])
	}
}

func TestUndoRedoConnection(t *testing.T) {
	f := newFixture(t)
	f.ed.Update(f.frame(dragStart(PortTarget(f.a, f.aOut))))
	f.ed.Update(f.release(geom.Pos2{X: 200, Y: 30}))
	if f.g.ConnectionCount() != 1 {
		t.Fatal("Setup: expected a connection")
	}

	if !f.ed.Undo() {
		t.Fatal("Undo should succeed")
	}
	if f.ed.Graph() != f.g {
		t.Error("Undo must keep the graph pointer")
	}
	if f.g.ConnectionCount() != 0 {
		t.Error("Undo should remove the connection")
	}

	if !f.ed.Redo() {
		t.Fatal("Redo should succeed")
	}
	if _, ok := f.g.ConnectionOf(f.bIn.AssumeInput()); !ok {
		t.Error("Redo should restore the connection")
	}
}

func TestUndoDeleteRestoresNodeAndLayout(t *testing.T) {
	f := newFixture(t)
	f.ed.Update(f.frame(click(CloseTarget(f.b))))
	if f.g.HasNode(f.b) {
		t.Fatal("Setup: expected B deleted")
	}

	f.ed.Undo()
	if !f.g.HasNode(f.b) {
		t.Fatal("Undo should restore B with its old key")
	}
	if pos, ok := f.ed.Position(f.b); !ok || pos != (geom.Pos2{X: 200, Y: 0}) {
		t.Errorf("Expected B back at (200,0), got %v", pos)
	}
	if _, ok := f.g.Slot(f.bIn); !ok {
		t.Error("B's slots should resolve again")
	}
}

func TestUndoMoveAfterRelease(t *testing.T) {
	f := newFixture(t)
	f.ed.Update(f.frame(drag(NodeTarget(f.a), 30, 0)))
	f.ed.Update(f.frame(drag(NodeTarget(f.a), 20, 0)))
	f.ed.Update(f.release(geom.Pos2{X: 50, Y: 0}))

	if pos, _ := f.ed.Position(f.a); pos.X != 50 {
		t.Fatalf("Setup: expected A at x=50, got %v", pos)
	}
	f.ed.Undo()
	if pos, _ := f.ed.Position(f.a); pos.X != 0 {
		t.Errorf("Expected the whole drag undone, got %v", pos)
	}
}

func TestUndoWithNothingToUndo(t *testing.T) {
	f := newFixture(t)
	if f.ed.CanUndo() || f.ed.Undo() {
		t.Error("Fresh editor should have nothing to undo")
	}
	if f.ed.Redo() {
		t.Error("Fresh editor should have nothing to redo")
	}
}

func TestUndoSpawnDropsCreatedNode(t *testing.T) {
	f := newFixture(t)
	id := f.ed.Spawn(testTemplate{"Add"}, geom.Pos2{X: 50, Y: 100})

	if !f.ed.Undo() {
		t.Fatal("Undo should succeed")
	}
	if f.g.HasNode(id) {
		t.Fatal("Undo should remove the spawned node")
	}
	if rs := f.ed.Update(f.frame()); len(rs) != 0 {
		t.Errorf("Expected no responses after undoing the spawn, got %v", responseStrings(rs))
	}
}

func TestUndoDropsQueuedDelete(t *testing.T) {
	f := newFixture(t)
	f.ed.Update(f.frame(dragStart(PortTarget(f.a, f.aOut))))
	f.ed.Update(f.release(geom.Pos2{X: 200, Y: 30}))

	f.ed.Select(f.b)
	f.ed.DeleteSelected()
	f.ed.Undo()

	if rs := f.ed.Update(f.frame()); len(rs) != 0 {
		t.Errorf("Expected the queued delete dropped, got %v", responseStrings(rs))
	}
	if !f.g.HasNode(f.b) {
		t.Error("B should survive the undo")
	}
}

func TestConnectWithMoveIsOneUndoStep(t *testing.T) {
	f := newFixture(t)
	f.ed.Update(f.frame(dragStart(PortTarget(f.a, f.aOut))))
	f.ed.Update(f.frame(drag(NodeTarget(f.c), 10, 0)))
	f.ed.Update(f.release(geom.Pos2{X: 200, Y: 30}))
	if f.g.ConnectionCount() != 1 {
		t.Fatal("Setup: expected a connection")
	}

	f.ed.Undo()
	if f.g.ConnectionCount() != 0 {
		t.Error("One undo should remove the connection")
	}
	if pos, _ := f.ed.Position(f.c); pos.X != 400 {
		t.Errorf("One undo should also revert the move, got %v", pos)
	}
}
