package templates

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"nodegraph/graph"
)

//go:embed builtin.hcl
var builtinSource []byte

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "template", LabelNames: []string{"name"}},
	},
}

var templateSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "label"},
		{Name: "color"},
		{Name: "deletable"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "input", LabelNames: []string{"name"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

var inputSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		// `type` is checked by hand for a clearer message.
		{Name: "type"},
		{Name: "kind"},
		{Name: "default"},
	},
}

var outputSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
	},
}

// Builtin returns the catalog shipped with the binary.
func Builtin() *Catalog {
	c, diags := Parse(builtinSource, "builtin.hcl")
	if diags.HasErrors() {
		panic(fmt.Sprintf("templates: builtin catalog: %s", diags.Error()))
	}
	return c
}

// Parse decodes a catalog from HCL source. The returned catalog holds every
// template that decoded cleanly, even when diagnostics report errors.
func Parse(src []byte, filename string) (*Catalog, hcl.Diagnostics) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return NewCatalog(), diags
	}
	return decodeFile(file)
}

// LoadFile parses a single catalog file.
func LoadFile(path string) (*Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, diags)
	}
	c, diags := decodeFile(file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode template file %s: %w", path, diags)
	}
	return c, nil
}

// Load reads every .hcl file found under the given paths into one catalog.
// Missing paths are skipped.
func Load(paths ...string) (*Catalog, error) {
	files, err := findHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	catalog := NewCatalog()
	for _, path := range files {
		c, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if diags := catalog.Merge(c); diags.HasErrors() {
			return nil, fmt.Errorf("failed to merge template file %s: %w", path, diags)
		}
	}
	return catalog, nil
}

func findHCLFiles(paths []string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if _, ok := seen[path]; !ok {
				files = append(files, path)
				seen[path] = struct{}{}
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				if _, ok := seen[p]; !ok {
					files = append(files, p)
					seen[p] = struct{}{}
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func decodeFile(file *hcl.File) (*Catalog, hcl.Diagnostics) {
	catalog := NewCatalog()
	content, diags := file.Body.Content(rootSchema)
	for _, block := range content.Blocks.OfType("template") {
		t, tDiags := decodeTemplate(block)
		diags = append(diags, tDiags...)
		if tDiags.HasErrors() {
			continue
		}
		diags = append(diags, catalog.add(t)...)
	}
	return catalog, diags
}

func decodeTemplate(block *hcl.Block) (*Template, hcl.Diagnostics) {
	t := &Template{
		Name:      block.Labels[0],
		Label:     block.Labels[0],
		Deletable: true,
		DefRange:  block.DefRange,
	}
	content, diags := block.Body.Content(templateSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	if attr, ok := content.Attributes["label"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &t.Label)...)
	}
	if attr, ok := content.Attributes["color"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &t.Color)...)
	}
	if attr, ok := content.Attributes["deletable"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &t.Deletable)...)
	}

	names := make(map[string]hcl.Range)
	unique := func(b *hcl.Block) bool {
		name := b.Labels[0]
		if prev, dup := names[name]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate slot definition",
				Detail:   fmt.Sprintf("A slot named '%s' was already defined at %s.", name, prev),
				Subject:  b.DefRange.Ptr(),
			})
			return false
		}
		names[name] = b.DefRange
		return true
	}

	for _, b := range content.Blocks.OfType("input") {
		if !unique(b) {
			continue
		}
		in, inDiags := decodeInput(b)
		diags = append(diags, inDiags...)
		if !inDiags.HasErrors() {
			t.Inputs = append(t.Inputs, in)
		}
	}
	for _, b := range content.Blocks.OfType("output") {
		if !unique(b) {
			continue
		}
		out, outDiags := decodeOutput(b)
		diags = append(diags, outDiags...)
		if !outDiags.HasErrors() {
			t.Outputs = append(t.Outputs, out)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return t, diags
}

func decodeInput(block *hcl.Block) (Input, hcl.Diagnostics) {
	in := Input{Name: block.Labels[0], Kind: graph.ConnectionOrConstant}
	content, diags := block.Body.Content(inputSchema)
	if diags.HasErrors() {
		return in, diags
	}

	ty, typeDiags := slotType(block, content)
	diags = append(diags, typeDiags...)
	if typeDiags.HasErrors() {
		return in, diags
	}
	in.Type = ty
	in.Default = cty.NullVal(ty)

	if attr, ok := content.Attributes["kind"]; ok {
		var kind string
		kindDiags := gohcl.DecodeExpression(attr.Expr, nil, &kind)
		diags = append(diags, kindDiags...)
		if kindDiags.HasErrors() {
			return in, diags
		}
		k, valid := graph.ParseInputKind(kind)
		if !valid {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid input kind",
				Detail:   fmt.Sprintf("The kind '%s' is not valid. Use connection_only, constant_only or connection_or_constant.", kind),
				Subject:  attr.Expr.Range().Ptr(),
			})
			return in, diags
		}
		in.Kind = k
	}

	if attr, ok := content.Attributes["default"]; ok {
		// Defaults must be literal values.
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			return in, diags
		}
		converted, err := convert.Convert(val, ty)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid default value type",
				Detail:   fmt.Sprintf("The default value for '%s' is not compatible with its type, '%s': %s.", in.Name, ty.FriendlyName(), err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			return in, diags
		}
		in.Default = converted
	}
	return in, diags
}

func decodeOutput(block *hcl.Block) (Output, hcl.Diagnostics) {
	out := Output{Name: block.Labels[0]}
	content, diags := block.Body.Content(outputSchema)
	if diags.HasErrors() {
		return out, diags
	}
	ty, typeDiags := slotType(block, content)
	out.Type = ty
	return out, append(diags, typeDiags...)
}

// slotType reads the required `type` attribute. Slot types must be exact,
// so `any` is rejected at any depth.
func slotType(block *hcl.Block, content *hcl.BodyContent) (cty.Type, hcl.Diagnostics) {
	attr, ok := content.Attributes["type"]
	if !ok {
		missing := block.Body.MissingItemRange()
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing 'type' attribute",
			Detail:   fmt.Sprintf("The 'type' attribute is required for %s blocks.", block.Type),
			Subject:  &missing,
		}}
	}
	ty, diags := typeexpr.TypeConstraint(attr.Expr)
	if diags.HasErrors() {
		return cty.NilType, diags
	}
	if ty.HasDynamicTypes() {
		return cty.NilType, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unsupported type",
			Detail:   "Slot types must be exact; 'any' cannot be connected by type.",
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return ty, diags
}
