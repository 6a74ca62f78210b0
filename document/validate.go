package document

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"nodegraph/graph"
)

type slotInfo struct {
	typ  cty.Type
	kind graph.InputKind
}

// Validate reports every reason doc could not be decoded, wrapped in
// ErrInvalid.
func Validate(doc *Document) error {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	inputs := make(map[Endpoint]slotInfo)
	outputs := make(map[Endpoint]slotInfo)
	refs := make(map[string]bool, len(doc.Nodes))

	for i, n := range doc.Nodes {
		if n.Ref == "" {
			fail("node %d has no ref", i)
			continue
		}
		if refs[n.Ref] {
			fail("duplicate node ref %q", n.Ref)
			continue
		}
		refs[n.Ref] = true

		names := make(map[string]bool)
		for _, in := range n.Inputs {
			ep := Endpoint{Node: n.Ref, Slot: in.Name}
			if names[in.Name] {
				fail("%s: duplicate slot %q", n.Ref, in.Name)
				continue
			}
			names[in.Name] = true
			typ, err := ctyjson.UnmarshalType(in.Type)
			if err != nil {
				fail("%s.%s: bad type: %s", n.Ref, in.Name, err)
				continue
			}
			kind, ok := graph.ParseInputKind(in.Kind)
			if !ok {
				fail("%s.%s: unknown kind %q", n.Ref, in.Name, in.Kind)
				continue
			}
			if _, err := decodeValue(in.Value, typ); err != nil {
				fail("%s.%s: bad value: %s", n.Ref, in.Name, err)
				continue
			}
			inputs[ep] = slotInfo{typ: typ, kind: kind}
		}
		for _, out := range n.Outputs {
			if names[out.Name] {
				fail("%s: duplicate slot %q", n.Ref, out.Name)
				continue
			}
			names[out.Name] = true
			typ, err := ctyjson.UnmarshalType(out.Type)
			if err != nil {
				fail("%s.%s: bad type: %s", n.Ref, out.Name, err)
				continue
			}
			outputs[Endpoint{Node: n.Ref, Slot: out.Name}] = slotInfo{typ: typ}
		}
	}

	fed := make(map[Endpoint]bool)
	for _, c := range doc.Connections {
		name := fmt.Sprintf("%s.%s -> %s.%s", c.From.Node, c.From.Slot, c.To.Node, c.To.Slot)
		out, okOut := outputs[c.From]
		in, okIn := inputs[c.To]
		switch {
		case !okOut:
			fail("%s: no output %s.%s", name, c.From.Node, c.From.Slot)
		case !okIn:
			fail("%s: no input %s.%s", name, c.To.Node, c.To.Slot)
		case c.From.Node == c.To.Node:
			fail("%s: self loop", name)
		case !graph.TypesEqual(out.typ, in.typ):
			fail("%s: %s does not match %s", name, graph.FriendlyTypeName(out.typ), graph.FriendlyTypeName(in.typ))
		case !in.kind.HasPort():
			fail("%s: input is constant only", name)
		case fed[c.To]:
			fail("%s: input already connected", name)
		default:
			fed[c.To] = true
		}
	}

	seen := make(map[string]bool, len(doc.Order))
	for _, ref := range doc.Order {
		if !refs[ref] {
			fail("order lists unknown node %q", ref)
		}
		if seen[ref] {
			fail("order lists %q twice", ref)
		}
		seen[ref] = true
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}
