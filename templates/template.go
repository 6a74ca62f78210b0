// Package templates loads node templates from HCL catalog files. A template
// names a kind of node and declares its slots:
//
//	template "add" {
//	  label = "Add"
//	  color = "#4caf50"
//
//	  input "a" {
//	    type    = number
//	    kind    = "connection_or_constant"
//	    default = 0
//	  }
//
//	  output "sum" { type = number }
//	}
//
// Catalog templates satisfy editor.NodeTemplate, so the node finder can spawn
// them directly.
package templates

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"nodegraph/editor"
	"nodegraph/graph"
)

// Payload is the per-node data carried by nodes spawned from a template.
type Payload struct {
	Template  string `json:"template"`
	Color     string `json:"color,omitempty"`
	Deletable bool   `json:"deletable"`
}

// CanDelete reports whether the node shows a close affordance.
func (p Payload) CanDelete() bool { return p.Deletable }

// Input declares one input slot.
type Input struct {
	Name    string
	Type    cty.Type
	Kind    graph.InputKind
	Default cty.Value
}

// Output declares one output slot.
type Output struct {
	Name string
	Type cty.Type
}

// Template is a parsed `template` block.
type Template struct {
	Name      string
	Label     string
	Color     string
	Deletable bool
	Inputs    []Input
	Outputs   []Output

	DefRange hcl.Range
}

func (t *Template) FinderLabel() string { return t.Label }
func (t *Template) NodeLabel() string   { return t.Label }

func (t *Template) Payload() Payload {
	return Payload{Template: t.Name, Color: t.Color, Deletable: t.Deletable}
}

// BuildNode adds the template's slots to id in declaration order.
func (t *Template) BuildNode(g *graph.Graph[Payload], id graph.NodeID) {
	for _, in := range t.Inputs {
		g.AddInputSlot(id, in.Name, in.Type, in.Kind, in.Default)
	}
	for _, out := range t.Outputs {
		g.AddOutputSlot(id, out.Name, out.Type)
	}
}

var _ editor.NodeTemplate[Payload] = (*Template)(nil)

// Catalog is a set of templates keyed by name.
type Catalog struct {
	byName map[string]*Template
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*Template)}
}

// Get looks a template up by name.
func (c *Catalog) Get(name string) (*Template, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Len returns the number of templates.
func (c *Catalog) Len() int { return len(c.byName) }

// Names returns the template names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeTemplates returns every template as a finder entry, sorted by name.
func (c *Catalog) NodeTemplates() []editor.NodeTemplate[Payload] {
	out := make([]editor.NodeTemplate[Payload], 0, len(c.byName))
	for _, name := range c.Names() {
		out = append(out, c.byName[name])
	}
	return out
}

// add registers t, reporting a diagnostic when the name is taken.
func (c *Catalog) add(t *Template) hcl.Diagnostics {
	if prev, exists := c.byName[t.Name]; exists {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Duplicate template definition",
			Detail:   "A template named '" + t.Name + "' was already defined at " + prev.DefRange.String() + ".",
			Subject:  t.DefRange.Ptr(),
		}}
	}
	c.byName[t.Name] = t
	return nil
}

// Merge adds every template of other, reporting duplicates.
func (c *Catalog) Merge(other *Catalog) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, name := range other.Names() {
		diags = append(diags, c.add(other.byName[name])...)
	}
	return diags
}
