// Command shadeflowc is the reference conformance harness described in
// spec.md's external-interfaces section: it loads a document, binds
// scalar inputs and preloaded resource data from the command line, runs
// the entry point through the interpreter, and prints the resulting
// resource states and return value as a single JSON object.
//
// Usage:
//
//	shadeflowc [document] [resource-specs...] -i name:value -d datafile.json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/shadeflow"
	"github.com/gogpu/shadeflow/eval"
	"github.com/gogpu/shadeflow/ir"
	"github.com/gogpu/shadeflow/resource"
)

var (
	inputFlags []string
	dataFile   string
)

func main() {
	root := &cobra.Command{
		Use:   "shadeflowc [document] [resource-specs...]",
		Short: "Run a shadeflow document against the interpreter and print its result as JSON",
		Long: `shadeflowc loads a document (the only artifact this pure-Go engine
compiles or executes; there is no separate on-disk device-library
format), optionally synthesizes its resource list from trailing
positional specs, binds scalar inputs and preloaded resource data, runs
the document's entry point, and writes { resources, returnValue, log }
to stdout.`,
		RunE:         run,
		SilenceUsage: true,
	}
	root.Flags().StringArrayVarP(&inputFlags, "input", "i", nil, "scalar input, name:value (vector components as name_0:value, name_1:value, ...)")
	root.Flags().StringVarP(&dataFile, "data", "d", "", "JSON file preloading resource data: {\"<resourceIndex>\": [floats...]}")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	var docPath string
	var specs []string
	if len(args) > 0 {
		docPath = args[0]
		specs = args[1:]
	}

	data, err := readDocument(docPath)
	if err != nil {
		return err
	}
	doc, err := ir.LoadDocument(data)
	if err != nil {
		return fmt.Errorf("loading document: %w", err)
	}

	if len(specs) > 0 {
		resources, err := parseResourceSpecs(specs)
		if err != nil {
			return fmt.Errorf("parsing resource specs: %w", err)
		}
		doc.Resources = resources
	}

	engine := shadeflow.New(doc)
	if errs := engine.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", errs[0].Error())
	}

	entry := findFunction(doc, doc.EntryPoint)
	if entry == nil {
		return fmt.Errorf("entry point %q does not exist", doc.EntryPoint)
	}
	inputArgs, err := parseInputFlags(entry.Inputs, inputFlags)
	if err != nil {
		return fmt.Errorf("parsing -i flags: %w", err)
	}

	ctx := eval.NewContext(doc, engine.Registry)
	evaluator := eval.NewEvaluator(ctx)
	if dataFile != "" {
		if err := preloadData(ctx.Store, doc.Resources, dataFile); err != nil {
			return fmt.Errorf("preloading %s: %w", dataFile, err)
		}
	}
	ret, err := evaluator.Invoke(inputArgs)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	fmt.Println(renderResult(doc, ctx, ret))
	return nil
}

func readDocument(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func findFunction(doc *ir.Document, id string) *ir.Function {
	for i := range doc.Functions {
		if doc.Functions[i].ID == id {
			return &doc.Functions[i]
		}
	}
	return nil
}

// parseResourceSpecs turns the trailing positional arguments into a
// fresh Resources list, in the documented "T:w:h:wrap" (wrap 0=repeat,
// 1=clamp) / "B:size:stride" shapes. The document's own declared
// resources (if any) are replaced, since the reference harness is meant
// to drive a document whose resources are supplied at the command line
// rather than authored inline.
func parseResourceSpecs(specs []string) ([]ir.Resource, error) {
	out := make([]ir.Resource, 0, len(specs))
	for i, spec := range specs {
		fields := strings.Split(spec, ":")
		if len(fields) == 0 {
			return nil, fmt.Errorf("empty resource spec at position %d", i)
		}
		id := fmt.Sprintf("r%d", i)
		switch strings.ToUpper(fields[0]) {
		case "T":
			if len(fields) != 4 {
				return nil, fmt.Errorf("texture spec %q: want T:w:h:wrap", spec)
			}
			w, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("texture spec %q: bad width: %w", spec, err)
			}
			h, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("texture spec %q: bad height: %w", spec, err)
			}
			wrapCode, err := strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("texture spec %q: bad wrap: %w", spec, err)
			}
			wrap := ir.WrapRepeat
			if wrapCode == 1 {
				wrap = ir.WrapClamp
			}
			out = append(out, ir.Resource{
				ID:          id,
				Kind:        ir.ResourceTexture2D,
				ElementType: ir.Float4(),
				Size:        ir.SizeSpec{Width: w, Height: h},
				Sampler:     &ir.Sampler{Filter: ir.FilterLinear, Wrap: wrap},
			})
		case "B":
			if len(fields) != 3 {
				return nil, fmt.Errorf("buffer spec %q: want B:size:stride", spec)
			}
			size, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("buffer spec %q: bad size: %w", spec, err)
			}
			stride, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("buffer spec %q: bad stride: %w", spec, err)
			}
			out = append(out, ir.Resource{
				ID:          id,
				Kind:        ir.ResourceBuffer,
				ElementType: elementTypeForStride(stride),
				Size:        ir.SizeSpec{Width: size},
			})
		default:
			return nil, fmt.Errorf("resource spec %q: unknown kind %q (want T or B)", spec, fields[0])
		}
	}
	return out, nil
}

func elementTypeForStride(stride int) ir.Type {
	switch stride {
	case 2:
		return ir.Float2()
	case 3:
		return ir.Float3()
	case 4:
		return ir.Float4()
	default:
		return ir.Float()
	}
}

// parseInputFlags groups "-i name:value" / "-i name_N:value" pairs by
// base name and assembles one eval.Value per declared entry input,
// typed per its declaration (spec section 6: "arrays as name_0:...").
func parseInputFlags(inputs []ir.Input, flags []string) (map[string]eval.Value, error) {
	components := map[string]map[int]float32{}
	for _, kv := range flags {
		name, valStr, ok := strings.Cut(kv, ":")
		if !ok {
			return nil, fmt.Errorf("malformed -i %q, want name:value", kv)
		}
		val, err := strconv.ParseFloat(valStr, 32)
		if err != nil {
			return nil, fmt.Errorf("-i %s: %w", name, err)
		}
		base, idx := splitComponentIndex(name)
		if components[base] == nil {
			components[base] = map[int]float32{}
		}
		components[base][idx] = float32(val)
	}

	args := map[string]eval.Value{}
	for _, in := range inputs {
		group, ok := components[in.Name]
		if !ok {
			continue
		}
		if arity, isVec := in.Type.VectorArity(); isVec {
			v := eval.Value{Type: in.Type}
			for i := 0; i < arity; i++ {
				v.Vec[i] = group[i]
			}
			args[in.Name] = v
			continue
		}
		switch in.Type.Kind {
		case ir.KindInt:
			args[in.Name] = eval.Int(int32(group[0]))
		case ir.KindBool:
			args[in.Name] = eval.Bool(group[0] != 0)
		default:
			args[in.Name] = eval.Float(group[0])
		}
	}
	return args, nil
}

func splitComponentIndex(name string) (string, int) {
	i := strings.LastIndex(name, "_")
	if i < 0 {
		return name, 0
	}
	idx, err := strconv.Atoi(name[i+1:])
	if err != nil {
		return name, 0
	}
	return name[:i], idx
}

// preloadData applies a {"<resourceIndex>": [floats...]} JSON document
// to store, indexing resources by their position in the document's
// declaration order (spec section 6).
func preloadData(store *resource.Store, resources []ir.Resource, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var byIndex map[string][]float32
	if err := json.Unmarshal(raw, &byIndex); err != nil {
		return fmt.Errorf("decoding: %w", err)
	}
	for key, floats := range byIndex {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(resources) {
			return fmt.Errorf("resource index %q out of range", key)
		}
		st, ok := store.Get(resources[idx].ID)
		if !ok {
			continue
		}
		n := len(floats)
		if n > len(st.Data) {
			n = len(st.Data)
		}
		copy(st.Data, floats[:n])
	}
	return nil
}

// renderResult assembles the documented stdout JSON object by hand
// rather than through encoding/json, since the contract requires
// non-finite floats to render as the literal tokens null/1e999/-1e999
// (spec section 6), which encoding/json's float encoder rejects
// outright.
func renderResult(doc *ir.Document, ctx *eval.Context, ret eval.Value) string {
	var b strings.Builder
	b.WriteString(`{"resources":[`)
	for i, r := range doc.Resources {
		if i > 0 {
			b.WriteByte(',')
		}
		writeResourceEntry(&b, ctx, r)
	}
	b.WriteString(`],"returnValue":`)
	writeFloatArray(&b, flattenReturn(ret, doc.Structs))
	b.WriteString(`,"log":[`)
	for i, entry := range ctx.Log {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"type":%s}`, jsonString(entry.Channel))
	}
	b.WriteString(`]}`)
	return b.String()
}

func writeResourceEntry(b *strings.Builder, ctx *eval.Context, r ir.Resource) {
	st, ok := ctx.Store.Get(r.ID)
	if !ok {
		b.WriteString(`{}`)
		return
	}
	b.WriteByte('{')
	wroteField := false
	if r.Kind == ir.ResourceTexture2D {
		fmt.Fprintf(b, `"width":%d,"height":%d`, st.Width, st.Height)
		wroteField = true
	} else if st.Width > 0 {
		fmt.Fprintf(b, `"width":%d`, st.Width)
		wroteField = true
	}
	if wroteField {
		b.WriteByte(',')
	}
	fmt.Fprintf(b, `"type":%s,"data":`, jsonString(resourceKindName(r.Kind)))
	if r.Kind == ir.ResourceAtomicCounter {
		writeIntArray(b, st.Cells)
	} else {
		writeFloatArray(b, st.Data)
	}
	b.WriteByte('}')
}

func resourceKindName(k ir.ResourceKind) string {
	switch k {
	case ir.ResourceTexture2D:
		return "texture2d"
	case ir.ResourceAtomicCounter:
		return "atomic_counter"
	default:
		return "buffer"
	}
}

// flattenReturn serialises a single return Value via the canonical
// flat-ABI encoder so its vector/matrix/struct/array layout matches
// resource.Flatten's documented order exactly.
func flattenReturn(ret eval.Value, structs []ir.Struct) []float32 {
	if ret.Type.Kind == ir.KindInvalid {
		return nil
	}
	layout := resource.Layout{Inputs: []ir.Input{{Name: "ret", Type: ret.Type}}}
	args := map[string]resource.Value{"ret": eval.ToResourceValue(ret, structs)}
	return resource.Flatten(layout, args, resource.Builtins{})
}

func writeFloatArray(b *strings.Builder, vals []float32) {
	b.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(formatFloat(v))
	}
	b.WriteByte(']')
}

func writeIntArray(b *strings.Builder, vals []int32) {
	b.WriteByte('[')
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(b, "%d", v)
	}
	b.WriteByte(']')
}

// formatFloat renders one ABI float per spec section 6: ten
// significant digits, NaN as null, +/-Inf as the out-of-range literal
// tokens 1e999/-1e999 that overflow back to +/-Inf on parse.
func formatFloat(f float32) string {
	switch {
	case math.IsNaN(float64(f)):
		return "null"
	case math.IsInf(float64(f), 1):
		return "1e999"
	case math.IsInf(float64(f), -1):
		return "-1e999"
	default:
		return strconv.FormatFloat(float64(f), 'g', 10, 32)
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
