package ir

// Document is the top-level value an Engine validates and executes
// (spec section 3).
type Document struct {
	Version     int        `yaml:"version"`
	Meta        Meta       `yaml:"meta"`
	EntryPoint  string     `yaml:"entryPoint"`
	Inputs      []Input    `yaml:"inputs"`
	Resources   []Resource `yaml:"resources"`
	Structs     []Struct   `yaml:"structs"`
	Functions   []Function `yaml:"functions"`
}

// Meta carries free-form document metadata (authoring surface concern,
// opaque to the engine beyond round-tripping it).
type Meta struct {
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// Input describes a value the host entry function receives from the
// caller, outside of resources (e.g. a scalar uniform).
type Input struct {
	Name string `yaml:"name"`
	Type Type   `yaml:"type"`
}

// ResourceKind enumerates the three kinds of storage a Resource may
// back (spec section 3).
type ResourceKind uint8

const (
	ResourceBuffer ResourceKind = iota
	ResourceTexture2D
	ResourceAtomicCounter
)

// TextureFormat enumerates the texture element formats the engine
// understands for marshalling and sampling purposes.
type TextureFormat uint8

const (
	FormatRGBA8Unorm TextureFormat = iota
	FormatRGBA32Float
	FormatR32Float
	FormatR32Uint
)

// SizeSpec describes a resource's dimensions: either a fixed
// scalar/pair, or a flag that ties the size to the active viewport.
type SizeSpec struct {
	Width           int  `yaml:"width,omitempty"`
	Height          int  `yaml:"height,omitempty"`
	TracksViewport  bool `yaml:"tracksViewport,omitempty"`
}

// Persistence groups the lifecycle flags a Resource may declare.
type Persistence struct {
	Retain         bool     `yaml:"retain,omitempty"`
	ClearEveryFrame bool    `yaml:"clearEveryFrame,omitempty"`
	ClearOnResize  bool     `yaml:"clearOnResize,omitempty"`
	CPUAccess      bool     `yaml:"cpuAccess,omitempty"`
	ClearValue     *float64 `yaml:"clearValue,omitempty"`
}

// WrapMode enumerates texture sampler wrap behavior.
type WrapMode uint8

const (
	WrapClamp WrapMode = iota
	WrapRepeat
	WrapMirror
)

// FilterMode enumerates texture sampler filtering.
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// Sampler describes a texture resource's sampling behavior. Samplers
// apply only to ResourceTexture2D; the validator rejects one on a
// buffer or atomic counter.
type Sampler struct {
	Filter FilterMode `yaml:"filter"`
	Wrap   WrapMode   `yaml:"wrap"`
}

// Resource describes a buffer, texture, or atomic counter that
// functions read and write by id (spec section 3).
type Resource struct {
	ID          string        `yaml:"id"`
	Kind        ResourceKind  `yaml:"kind"`
	ElementType Type          `yaml:"elementType"`
	Format      TextureFormat `yaml:"format,omitempty"`
	Size        SizeSpec      `yaml:"size"`
	Persistence Persistence   `yaml:"persistence"`
	Sampler     *Sampler      `yaml:"sampler,omitempty"`
	IsOutput    bool          `yaml:"isOutput,omitempty"`
}

// Struct describes a user-declared aggregate type (spec section 3).
type Struct struct {
	ID      string         `yaml:"id"`
	Members []StructMember `yaml:"members"`
}

// Builtin enumerates the CPU-injected / stage builtins a struct member
// or node may reference (spec sections 4.6 and 3).
type Builtin string

const (
	BuiltinTime        Builtin = "time"
	BuiltinDeltaTime   Builtin = "delta_time"
	BuiltinBPM         Builtin = "bpm"
	BuiltinBeatNumber  Builtin = "beat_number"
	BuiltinBeatDelta   Builtin = "beat_delta"
	BuiltinOutputSize  Builtin = "output_size"
	BuiltinPosition    Builtin = "position"
	BuiltinVertexIndex Builtin = "vertex_index"
)

// StructMember is one ordered field of a Struct, with optional
// vertex/fragment staging decorations.
type StructMember struct {
	Name     string   `yaml:"name"`
	Type     Type     `yaml:"type"`
	Builtin  *Builtin `yaml:"builtin,omitempty"`
	Location *int     `yaml:"location,omitempty"`
}

// FunctionKind classifies a Function as host-side control flow or one
// of the three device-side stages.
type FunctionKind uint8

const (
	FuncCPU FunctionKind = iota
	FuncShader
	FuncVertex
	FuncFragment
)

// LocalVar is a function-local variable, zero-initialised on first
// frame-push unless InitialValue is set (spec section 3).
type LocalVar struct {
	Name         string      `yaml:"name"`
	Type         Type        `yaml:"type"`
	InitialValue interface{} `yaml:"initialValue,omitempty"`
}

// Function is one graph of operation Nodes (spec section 3).
type Function struct {
	ID            string     `yaml:"id"`
	Kind          FunctionKind `yaml:"kind"`
	Inputs        []Input    `yaml:"inputs"`
	Outputs       []Input    `yaml:"outputs"`
	WorkgroupSize [3]int     `yaml:"workgroupSize,omitempty"`
	LocalVars     []LocalVar `yaml:"localVars"`
	Nodes         []Node     `yaml:"nodes"`

	// nodeIndex maps node id -> index into Nodes, built by Index().
	nodeIndex map[string]int
}

// Index builds (or rebuilds) the function's node-id lookup table. It
// must be called after mutating Nodes directly; LoadDocument calls it
// automatically.
func (f *Function) Index() {
	f.nodeIndex = make(map[string]int, len(f.Nodes))
	for i, n := range f.Nodes {
		f.nodeIndex[n.ID] = i
	}
}

// Node looks up a node by id within this function, returning ok=false
// if no such node exists or Index has not been called.
func (f *Function) Node(id string) (*Node, bool) {
	if f.nodeIndex == nil {
		f.Index()
	}
	i, ok := f.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &f.Nodes[i], true
}

// Node is one operation in a function's graph (spec section 3). Args
// holds every argument field the op accepts, keyed by argument name;
// values are either literals (numbers, strings, bools, arrays) or
// strings that resolve to another node's id (optionally with a
// ".<swizzle>" suffix) — see edges.go for how these are classified.
type Node struct {
	ID      string                 `yaml:"id"`
	Op      string                 `yaml:"op"`
	Args    map[string]interface{} `yaml:"-"`
	Comment string                 `yaml:"comment,omitempty"`

	// Execution-flow fields, present only on nodes whose op has
	// ExecKindControlFlow or ExecKindSideEffecting.
	ExecIn        string `yaml:"exec_in,omitempty"`
	ExecOut       string `yaml:"exec_out,omitempty"`
	ExecTrue      string `yaml:"exec_true,omitempty"`
	ExecFalse     string `yaml:"exec_false,omitempty"`
	ExecBody      string `yaml:"exec_body,omitempty"`
	ExecCompleted string `yaml:"exec_completed,omitempty"`
	Next          string `yaml:"next,omitempty"`

	// Threads canonicalises a cmd_dispatch node's dimension field,
	// regardless of whether the document spelled it "threads",
	// "dispatch", or an inferred-dimension array (spec section 9,
	// Open Question: dispatch-size field spelling).
	Threads [3]int `yaml:"threads,omitempty"`
}

// normalizeThreads fills Node.Threads from whichever spelling the
// document used. Called by the document codec at load time.
func normalizeThreads(args map[string]interface{}) [3]int {
	for _, key := range []string{"threads", "dispatch", "dimensions"} {
		if v, ok := args[key]; ok {
			return asDim3(v)
		}
	}
	return [3]int{1, 1, 1}
}

func asDim3(v interface{}) [3]int {
	out := [3]int{1, 1, 1}
	switch arr := v.(type) {
	case []interface{}:
		for i := 0; i < len(arr) && i < 3; i++ {
			if n, ok := toInt(arr[i]); ok {
				out[i] = n
			}
		}
	case []int:
		for i := 0; i < len(arr) && i < 3; i++ {
			out[i] = arr[i]
		}
	}
	return out
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	}
	return 0, false
}
