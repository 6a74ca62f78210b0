package graph

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/zclconf/go-cty/cty"
)

type testPayload struct {
	Name string
}

// twoNodes builds "src" with a number output and "dst" with a number input.
func twoNodes(t *testing.T) (*Graph[testPayload], NodeID, NodeID, SlotID, SlotID) {
	t.Helper()
	g := New[testPayload]()
	src := g.AddNode("Source", testPayload{Name: "src"})
	dst := g.AddNode("Sink", testPayload{Name: "dst"})
	out := g.AddOutputSlot(src, "value", cty.Number)
	in := g.AddInputSlot(dst, "value", cty.Number, ConnectionOrConstant, cty.NumberIntVal(0))
	return g, src, dst, out, in
}

func TestAddNodeAssignsDistinctKeys(t *testing.T) {
	g := New[testPayload]()
	a := g.AddNode("A", testPayload{})
	b := g.AddNode("B", testPayload{})

	if a == b {
		t.Fatal("Expected distinct node keys")
	}
	if a.IsZero() || b.IsZero() {
		t.Error("Assigned keys should never be zero")
	}
	n, ok := g.Node(a)
	if !ok || n.Label != "A" || n.ID() != a {
		t.Errorf("Node lookup failed: %+v", n)
	}
	if len(n.Inputs()) != 0 || len(n.Outputs()) != 0 {
		t.Error("New node should have no slots")
	}
}

func TestSlotsKeepDeclarationOrder(t *testing.T) {
	g := New[testPayload]()
	n := g.AddNode("Math", testPayload{})
	a := g.AddInputSlot(n, "a", cty.Number, ConnectionOnly, cty.NullVal(cty.Number))
	b := g.AddInputSlot(n, "b", cty.Number, ConstantOnly, cty.NumberIntVal(1))
	sum := g.AddOutputSlot(n, "sum", cty.Number)

	node, _ := g.Node(n)
	inputs := node.Inputs()
	if len(inputs) != 2 || inputs[0].ID != a || inputs[1].ID != b {
		t.Errorf("Unexpected input order: %+v", inputs)
	}
	if outputs := node.Outputs(); len(outputs) != 1 || outputs[0].ID != sum {
		t.Errorf("Unexpected outputs: %+v", outputs)
	}
	slots := node.Slots()
	if len(slots) != 3 || slots[2].ID != sum {
		t.Errorf("Slots should list inputs before outputs: %+v", slots)
	}
	if !a.IsInput() || !sum.IsOutput() {
		t.Error("Role tags were not assigned")
	}

	s, ok := g.Slot(b)
	if !ok || s.Node() != n || s.Kind != ConstantOnly {
		t.Errorf("Unexpected slot record: %+v", s)
	}
}

func TestConnectAndQuery(t *testing.T) {
	g, _, _, out, in := twoNodes(t)

	if err := g.Connect(out, in); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	got, ok := g.ConnectionOf(in.AssumeInput())
	if !ok || got != out.AssumeOutput() {
		t.Errorf("Expected %s, got %s (ok=%v)", out, got, ok)
	}
	if !g.IsConnected(in) || !g.IsConnected(out) {
		t.Error("Both endpoints should report connected")
	}
	if g.SlotType(in) != cty.Number {
		t.Errorf("Unexpected slot type %s", FriendlyTypeName(g.SlotType(in)))
	}
}

func TestConnectReplacesExistingConnection(t *testing.T) {
	g, _, _, out, in := twoNodes(t)
	other := g.AddNode("Other", testPayload{})
	out2 := g.AddOutputSlot(other, "value", cty.Number)

	if err := g.Connect(out, in); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(out2, in); err != nil {
		t.Fatal(err)
	}

	if g.ConnectionCount() != 1 {
		t.Errorf("Input should hold one connection, table has %d", g.ConnectionCount())
	}
	if got, _ := g.ConnectionOf(in.AssumeInput()); got != out2.AssumeOutput() {
		t.Errorf("Expected replacement by %s, got %s", out2, got)
	}
}

func TestConnectFanOut(t *testing.T) {
	g, _, _, out, in := twoNodes(t)
	third := g.AddNode("Third", testPayload{})
	in2 := g.AddInputSlot(third, "x", cty.Number, ConnectionOnly, cty.NullVal(cty.Number))

	if err := g.Connect(out, in); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(out, in2); err != nil {
		t.Fatal(err)
	}

	fed := g.ConnectionsFrom(out.AssumeOutput())
	if len(fed) != 2 {
		t.Errorf("Expected output to feed two inputs, got %v", fed)
	}
}

func TestConnectErrors(t *testing.T) {
	g, src, dst, out, in := twoNodes(t)
	strIn := g.AddInputSlot(dst, "label", cty.String, ConnectionOnly, cty.NullVal(cty.String))
	loopIn := g.AddInputSlot(src, "feedback", cty.Number, ConnectionOnly, cty.NullVal(cty.Number))
	otherIn := g.AddInputSlot(src, "other", cty.Number, ConnectionOnly, cty.NullVal(cty.Number))

	tests := []struct {
		name   string
		output SlotID
		input  SlotID
		want   error
	}{
		{"type mismatch", out, strIn, ErrTypeMismatch},
		{"self loop", out, loopIn, ErrSelfLoop},
		{"input to input", otherIn, in, ErrDirection},
		{"zero key", SlotID{}, in, ErrInvalidEndpoint},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Connect(tt.output, tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if g.ConnectionCount() != 0 {
				t.Error("Failed connect must not change the table")
			}
		})
	}
}

func TestCanConnectResolvesRoles(t *testing.T) {
	g, _, _, out, in := twoNodes(t)

	o, i, ok := g.CanConnect(in, out)
	if !ok || o != out || i != in {
		t.Errorf("Expected (%s, %s), got (%s, %s, %v)", out, in, o, i, ok)
	}
	if _, _, ok := g.CanConnect(in, in); ok {
		t.Error("Input-input pair should be rejected")
	}
}

func TestDisconnect(t *testing.T) {
	g, _, _, out, in := twoNodes(t)
	if err := g.Connect(out, in); err != nil {
		t.Fatal(err)
	}

	prev, ok := g.Disconnect(in.AssumeInput())
	if !ok || prev != out.AssumeOutput() {
		t.Errorf("Disconnect returned %s, %v", prev, ok)
	}
	if _, ok := g.ConnectionOf(in.AssumeInput()); ok {
		t.Error("Connection should be gone")
	}
	if _, ok := g.Disconnect(in.AssumeInput()); ok {
		t.Error("Second disconnect should be a no-op")
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	g, src, dst, out, in := twoNodes(t)
	third := g.AddNode("Third", testPayload{})
	in3 := g.AddInputSlot(third, "x", cty.Number, ConnectionOnly, cty.NullVal(cty.Number))
	if err := g.Connect(out, in); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(out, in3); err != nil {
		t.Fatal(err)
	}

	removed, conns, ok := g.RemoveNode(src)
	if !ok || removed.Label != "Source" {
		t.Fatalf("RemoveNode returned %v, %v", removed, ok)
	}
	if len(conns) != 2 {
		t.Errorf("Expected two cascaded connections, got %d", len(conns))
	}
	if g.ConnectionCount() != 0 {
		t.Error("No connection should survive")
	}
	if _, ok := g.Slot(out); ok {
		t.Error("Output slot of removed node still resolves")
	}
	if g.SlotType(out) != cty.NilType {
		t.Error("SlotType of a removed slot should be NilType")
	}
	if g.HasNode(src) {
		t.Error("Removed node still resolves")
	}
	if !g.HasNode(dst) || !g.HasNode(third) {
		t.Error("Unrelated nodes were removed")
	}
	if errs := g.Validate(); len(errs) != 0 {
		t.Errorf("Graph invalid after removal: %v", errs)
	}

	if _, _, ok := g.RemoveNode(src); ok {
		t.Error("Removing twice should be a no-op")
	}
}

func TestStaleKeysDoNotResolveAfterReuse(t *testing.T) {
	g := New[testPayload]()
	a := g.AddNode("A", testPayload{})
	g.RemoveNode(a)
	b := g.AddNode("B", testPayload{})

	if a == b {
		t.Fatal("Reused index must carry a new generation")
	}
	if g.HasNode(a) {
		t.Error("Stale key resolved to the new node")
	}
	if n, ok := g.Node(b); !ok || n.Label != "B" {
		t.Error("New node should resolve")
	}
}

func TestAssumeRolePanics(t *testing.T) {
	_, _, _, out, _ := twoNodes(t)

	defer func() {
		if recover() == nil {
			t.Error("AssumeInput on an output should panic")
		}
	}()
	out.AssumeInput()
}

func TestAddSlotOnMissingNodePanics(t *testing.T) {
	g := New[testPayload]()
	n := g.AddNode("gone", testPayload{})
	g.RemoveNode(n)

	defer func() {
		if recover() == nil {
			t.Error("Adding a slot to a missing node should panic")
		}
	}()
	g.AddOutputSlot(n, "x", cty.Number)
}

func TestSetValueConverts(t *testing.T) {
	g, _, _, _, in := twoNodes(t)

	if err := g.SetValue(in.AssumeInput(), cty.StringVal("42")); err != nil {
		t.Fatalf("SetValue failed: %v", err)
	}
	s, _ := g.Slot(in)
	if !s.Value.RawEquals(cty.NumberIntVal(42)) {
		t.Errorf("Expected converted number, got %#v", s.Value)
	}
	if err := g.SetValue(in.AssumeInput(), cty.StringVal("not a number")); err == nil {
		t.Error("Expected conversion error")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g, src, _, out, in := twoNodes(t)
	if err := g.Connect(out, in); err != nil {
		t.Fatal(err)
	}

	c := g.Clone()
	g.RemoveNode(src)

	if !c.HasNode(src) {
		t.Error("Clone lost a node removed from the original")
	}
	if _, ok := c.ConnectionOf(in.AssumeInput()); !ok {
		t.Error("Clone lost a connection")
	}
	n, _ := c.Node(src)
	n.Label = "changed"
	if errs := c.Validate(); len(errs) != 0 {
		t.Errorf("Clone invalid: %v", errs)
	}
}

func TestKeyTextRoundTrip(t *testing.T) {
	_, src, _, out, _ := twoNodes(t)

	b, _ := src.MarshalText()
	var n NodeID
	if err := n.UnmarshalText(b); err != nil || n != src {
		t.Errorf("NodeID round trip failed: %s -> %s (%v)", src, n, err)
	}

	b, _ = out.MarshalText()
	var s SlotID
	if err := s.UnmarshalText(b); err != nil || s != out {
		t.Errorf("SlotID round trip failed: %s -> %s (%v)", out, s, err)
	}
	if err := s.UnmarshalText([]byte("sideways:1v1")); err == nil {
		t.Error("Expected error for unknown role")
	}
}

// TestRandomEditsKeepInvariants drives random add/connect/disconnect/remove
// sequences and checks the table after every step.
func TestRandomEditsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := []cty.Type{cty.Number, cty.String, cty.Bool}
	g := New[testPayload]()

	var nodes []NodeID
	var inputs, outputs []SlotID
	removed := map[NodeID][]SlotID{}

	for step := 0; step < 2000; step++ {
		switch op := rng.Intn(6); {
		case op == 0 || len(nodes) < 2:
			n := g.AddNode("n", testPayload{})
			nodes = append(nodes, n)
			for i := 0; i < 2; i++ {
				typ := types[rng.Intn(len(types))]
				inputs = append(inputs, g.AddInputSlot(n, "in", typ, ConnectionOrConstant, cty.NullVal(typ)))
				outputs = append(outputs, g.AddOutputSlot(n, "out", types[rng.Intn(len(types))]))
			}
		case op <= 2 && len(inputs) > 0:
			out := outputs[rng.Intn(len(outputs))]
			in := inputs[rng.Intn(len(inputs))]
			before := g.ConnectionCount()
			if err := g.Connect(out, in); err != nil && g.ConnectionCount() != before {
				t.Fatalf("step %d: failed connect changed the table", step)
			}
		case op == 3 && len(inputs) > 0:
			g.Disconnect(inputs[rng.Intn(len(inputs))].AssumeInput())
		default:
			victim := nodes[rng.Intn(len(nodes))]
			if n, _, ok := g.RemoveNode(victim); ok {
				for _, s := range n.Slots() {
					removed[victim] = append(removed[victim], s.ID)
				}
			}
		}

		seen := map[InputID]bool{}
		for _, c := range g.Connections() {
			if seen[c.Input] {
				t.Fatalf("step %d: input %s holds two connections", step, c.Input)
			}
			seen[c.Input] = true
		}
		if errs := g.Validate(); len(errs) != 0 {
			t.Fatalf("step %d: %v", step, errs)
		}
	}

	for node, slots := range removed {
		if g.HasNode(node) {
			t.Errorf("%s resolves after removal", node)
		}
		for _, s := range slots {
			if _, ok := g.Slot(s); ok {
				t.Errorf("%s resolves after its node was removed", s)
			}
			if g.IsConnected(s) {
				t.Errorf("%s still takes part in a connection", s)
			}
		}
	}
}
