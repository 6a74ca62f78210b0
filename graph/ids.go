package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// key addresses one entry of an arena. Generation zero is never handed out,
// so the zero key never resolves.
type key struct {
	index uint32
	gen   uint32
}

func (k key) String() string {
	return strconv.FormatUint(uint64(k.index), 10) + "v" + strconv.FormatUint(uint64(k.gen), 10)
}

func parseKey(s string) (key, error) {
	idx, gen, ok := strings.Cut(s, "v")
	if !ok {
		return key{}, fmt.Errorf("graph: malformed key %q", s)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return key{}, fmt.Errorf("graph: malformed key %q: %w", s, err)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil {
		return key{}, fmt.Errorf("graph: malformed key %q: %w", s, err)
	}
	return key{index: uint32(i), gen: uint32(g)}, nil
}

// NodeID identifies a node for the lifetime of the graph that created it.
type NodeID struct{ key }

// IsZero reports whether the id was never assigned by a graph.
func (id NodeID) IsZero() bool { return id.gen == 0 }

func (id NodeID) String() string { return "node:" + id.key.String() }

// MarshalText implements encoding.TextMarshaler.
func (id NodeID) MarshalText() ([]byte, error) { return []byte(id.key.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *NodeID) UnmarshalText(b []byte) error {
	k, err := parseKey(string(b))
	if err != nil {
		return err
	}
	id.key = k
	return nil
}

// SlotRole tells whether a slot accepts or produces connections.
type SlotRole uint8

const (
	RoleInput SlotRole = iota + 1
	RoleOutput
)

// String returns the string representation of a SlotRole.
func (r SlotRole) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	default:
		return "unknown"
	}
}

// SlotID identifies an input or output slot. Inputs and outputs share one key
// space; the role tag travels with the key so callers can narrow it without a
// graph lookup.
type SlotID struct {
	key
	role SlotRole
}

// Role returns the role the slot was created with.
func (id SlotID) Role() SlotRole { return id.role }

// IsZero reports whether the id was never assigned by a graph.
func (id SlotID) IsZero() bool { return id.gen == 0 }

// IsInput reports whether the slot is an input.
func (id SlotID) IsInput() bool { return id.role == RoleInput }

// IsOutput reports whether the slot is an output.
func (id SlotID) IsOutput() bool { return id.role == RoleOutput }

func (id SlotID) String() string {
	switch id.role {
	case RoleInput:
		return "in:" + id.key.String()
	case RoleOutput:
		return "out:" + id.key.String()
	default:
		return "slot:" + id.key.String()
	}
}

// AssumeInput narrows the id to an InputID. It panics if the slot is an output.
func (id SlotID) AssumeInput() InputID {
	if id.role != RoleInput {
		panic(fmt.Sprintf("graph: %s is not an input slot", id))
	}
	return InputID{id.key}
}

// AssumeOutput narrows the id to an OutputID. It panics if the slot is an input.
func (id SlotID) AssumeOutput() OutputID {
	if id.role != RoleOutput {
		panic(fmt.Sprintf("graph: %s is not an output slot", id))
	}
	return OutputID{id.key}
}

// MarshalText implements encoding.TextMarshaler.
func (id SlotID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *SlotID) UnmarshalText(b []byte) error {
	role, rest, ok := strings.Cut(string(b), ":")
	if !ok {
		return fmt.Errorf("graph: malformed slot id %q", b)
	}
	switch role {
	case "in":
		id.role = RoleInput
	case "out":
		id.role = RoleOutput
	default:
		return fmt.Errorf("graph: unknown slot role %q", role)
	}
	k, err := parseKey(rest)
	if err != nil {
		return err
	}
	id.key = k
	return nil
}

// InputID is a SlotID known to be an input.
type InputID struct{ key }

// Slot widens the id back to a SlotID.
func (id InputID) Slot() SlotID { return SlotID{key: id.key, role: RoleInput} }

func (id InputID) String() string { return id.Slot().String() }

// OutputID is a SlotID known to be an output.
type OutputID struct{ key }

// Slot widens the id back to a SlotID.
func (id OutputID) Slot() SlotID { return SlotID{key: id.key, role: RoleOutput} }

func (id OutputID) String() string { return id.Slot().String() }
