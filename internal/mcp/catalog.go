package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Operation names advertised in the catalog.
const (
	OpTriggerKernelBuild = "trigger_kernel_build"
	OpCheckBuildStatus   = "check_build_status"
)

// FieldKind is the input type of one operation field.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindEnum   FieldKind = "enum"
)

// FieldSpec describes one input field. Every field carries a default, so an
// operation is always callable with no arguments.
type FieldSpec struct {
	Name          string
	Kind          FieldKind
	Description   string
	Default       any // string for string/enum fields, float64 for number fields
	AllowedValues []string
	Min           float64 // number fields only; zero means unbounded
	Max           float64
}

// OperationDescriptor identifies one supported operation and its input contract.
type OperationDescriptor struct {
	Name        string
	Description string
	Fields      []FieldSpec
}

// catalog is the fixed, ordered set of operations. It is never mutated.
var catalog = []OperationDescriptor{
	{
		Name:        OpTriggerKernelBuild,
		Description: "Dispatches a remote CachyOS Kernel build (Haswell-Optimized + BORE Scheduler).",
		Fields: []FieldSpec{
			{
				Name:        "ref",
				Kind:        KindString,
				Description: "Git branch to build from",
				Default:     "main",
			},
			{
				Name:          "opt_level",
				Kind:          KindEnum,
				Description:   "GCC optimization level (Default: O3 for speed)",
				Default:       "O3",
				AllowedValues: []string{"O2", "O3"},
			},
		},
	},
	{
		Name:        OpCheckBuildStatus,
		Description: "Lists recent GitHub Action runs to check build progress.",
		Fields: []FieldSpec{
			{
				Name:        "limit",
				Kind:        KindNumber,
				Description: "Number of recent runs to show",
				Default:     float64(3),
				Min:         1,
				Max:         100,
			},
		},
	},
}

// Operations returns the catalog in declaration order. The result is a copy;
// callers cannot modify the catalog through it.
func Operations() []OperationDescriptor {
	out := make([]OperationDescriptor, len(catalog))
	for i, op := range catalog {
		out[i] = op.clone()
	}
	return out
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (OperationDescriptor, bool) {
	for _, op := range catalog {
		if op.Name == name {
			return op.clone(), true
		}
	}
	return OperationDescriptor{}, false
}

func (d OperationDescriptor) clone() OperationDescriptor {
	fields := make([]FieldSpec, len(d.Fields))
	for i, f := range d.Fields {
		if f.AllowedValues != nil {
			f.AllowedValues = append([]string(nil), f.AllowedValues...)
		}
		fields[i] = f
	}
	d.Fields = fields
	return d
}

// BuildMCPTool converts an OperationDescriptor into an mcp.Tool whose input
// schema carries the same defaults, enums and bounds.
func BuildMCPTool(op OperationDescriptor) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(op.Description)}
	for _, f := range op.Fields {
		opts = append(opts, buildFieldOption(f))
	}
	return mcp.NewTool(op.Name, opts...)
}

// buildFieldOption maps a FieldSpec to the appropriate mcp-go tool option.
func buildFieldOption(f FieldSpec) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if f.Description != "" {
		opts = append(opts, mcp.Description(f.Description))
	}

	switch f.Kind {
	case KindNumber:
		if d, ok := f.Default.(float64); ok {
			opts = append(opts, mcp.DefaultNumber(d))
		}
		if f.Min != 0 {
			opts = append(opts, mcp.Min(f.Min))
		}
		if f.Max != 0 {
			opts = append(opts, mcp.Max(f.Max))
		}
		return mcp.WithNumber(f.Name, opts...)
	case KindEnum:
		opts = append(opts, mcp.Enum(f.AllowedValues...))
		fallthrough
	default:
		if d, ok := f.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(d))
		}
		return mcp.WithString(f.Name, opts...)
	}
}
