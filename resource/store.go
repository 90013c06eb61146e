package resource

import "github.com/gogpu/shadeflow/ir"

// State is the live backing storage for one resource (spec section
// 4.5): a buffer or texture's flat element array, or an atomic
// counter's cell array.
type State struct {
	Kind        ir.ResourceKind
	ElementType ir.Type
	Width       int
	Height      int

	// Data backs buffer and texture resources, laid out row-major for
	// textures, one ElementType.FlatSize() slice of float32 per
	// element.
	Data []float32

	// Cells backs atomic_counter resources: one int32 per cell.
	Cells []int32

	persistence ir.Persistence
}

// Store owns every resource's live State for one execution context
// (spec section 5: "the resource store is exclusively owned by the
// active context; no cross-context sharing").
type Store struct {
	byID map[string]*State
	order []string
}

// NewStore allocates a fresh Store from a document's resource
// declarations (spec section 3: "resources are allocated when the
// context is built").
func NewStore(resources []ir.Resource) *Store {
	s := &Store{byID: make(map[string]*State, len(resources))}
	for _, r := range resources {
		st := allocate(r)
		s.byID[r.ID] = st
		s.order = append(s.order, r.ID)
	}
	return s
}

func allocate(r ir.Resource) *State {
	st := &State{Kind: r.Kind, ElementType: r.ElementType, persistence: r.Persistence}
	switch r.Kind {
	case ir.ResourceAtomicCounter:
		st.Width = r.Size.Width
		st.Cells = make([]int32, st.Width)
	case ir.ResourceTexture2D:
		st.Width, st.Height = r.Size.Width, r.Size.Height
		st.Data = make([]float32, st.Width*st.Height*elementWidth(r.ElementType))
	default: // buffer
		st.Width = r.Size.Width
		st.Data = make([]float32, st.Width*elementWidth(r.ElementType))
	}
	if r.Persistence.ClearValue != nil {
		fillValue(st, float32(*r.Persistence.ClearValue))
	}
	return st
}

func elementWidth(t ir.Type) int {
	if n := t.FlatSize(); n > 0 {
		return n
	}
	return 1
}

// Get returns the live state for id, or ok=false if no such resource
// was declared.
func (s *Store) Get(id string) (*State, bool) {
	st, ok := s.byID[id]
	return st, ok
}

// IDs returns every resource id in declaration order, used by backends
// to derive the canonical binding-slot order (spec section 4.6).
func (s *Store) IDs() []string {
	return s.order
}

// ClearFrameResources zeroes every resource declared clearEveryFrame,
// called once per host entry invocation (spec section 3).
func (s *Store) ClearFrameResources(resources []ir.Resource) {
	for _, r := range resources {
		if r.Persistence.ClearEveryFrame {
			if st, ok := s.byID[r.ID]; ok {
				fillValue(st, 0)
			}
		}
	}
}

func fillValue(st *State, v float32) {
	for i := range st.Data {
		st.Data[i] = v
	}
	for i := range st.Cells {
		st.Cells[i] = int32(v)
	}
}

// Resize changes a buffer or texture's width/height in place, honoring
// its clearOnResize policy (spec sections 4.5 and 8 Property 6):
// clearOnResize=true zero-fills the whole backing store, false
// preserves the overlapping prefix and truncates/grows around it.
func (s *Store) Resize(id string, width, height int) error {
	st, ok := s.byID[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	width_ := width
	if width_ <= 0 {
		width_ = st.Width
	}
	height_ := height
	if height_ <= 0 && st.Kind == ir.ResourceTexture2D {
		height_ = st.Height
	}

	elemW := elementWidth(st.ElementType)
	var newData []float32
	switch st.Kind {
	case ir.ResourceTexture2D:
		newData = make([]float32, width_*height_*elemW)
	default:
		newData = make([]float32, width_*elemW)
	}

	if !st.persistence.ClearOnResize {
		copyOverlap(st, newData, width_, height_, elemW)
	}

	st.Data = newData
	st.Width = width_
	if st.Kind == ir.ResourceTexture2D {
		st.Height = height_
	}
	return nil
}

// copyOverlap preserves the prefix common to the old and new sizes
// (min(old,new) per dimension) when clearOnResize is false.
func copyOverlap(st *State, newData []float32, newWidth, newHeight, elemW int) {
	if st.Kind != ir.ResourceTexture2D {
		n := min(len(st.Data), len(newData))
		copy(newData, st.Data[:n])
		return
	}
	rows := min(st.Height, newHeight)
	cols := min(st.Width, newWidth)
	for row := 0; row < rows; row++ {
		srcOff := row * st.Width * elemW
		dstOff := row * newWidth * elemW
		n := cols * elemW
		copy(newData[dstOff:dstOff+n], st.Data[srcOff:srcOff+n])
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// NotFoundError is returned when an operation names an undeclared
// resource id.
type NotFoundError struct{ ID string }

func (e *NotFoundError) Error() string { return "resource: no such resource '" + e.ID + "'" }

// AtomicRMW applies fn to cell index, returning the value strictly
// before the modification (spec sections 4.5 and 8 Property 5). The
// caller is responsible for whatever concurrency discipline the
// backend provides; this method performs the read-modify-write as one
// atomic step from the Store's point of view.
func (s *Store) AtomicRMW(id string, index int, fn func(old int32) int32) (int32, error) {
	st, ok := s.byID[id]
	if !ok {
		return 0, &NotFoundError{ID: id}
	}
	if index < 0 || index >= len(st.Cells) {
		return 0, &OOBError{ID: id, Index: index, Size: len(st.Cells)}
	}
	old := st.Cells[index]
	st.Cells[index] = fn(old)
	return old, nil
}

// OOBError is a dynamic out-of-bounds access at runtime (spec section
// 7: "Runtime Error: buffer_load OOB").
type OOBError struct {
	ID    string
	Index int
	Size  int
}

func (e *OOBError) Error() string {
	return "resource: index out of bounds"
}

// CopyBuffer performs an elementwise copy between two resources of
// identical element type and size (spec section 4.5). Atomic
// counter<->buffer copies are permitted when element types agree.
func (s *Store) CopyBuffer(srcID, dstID string) error {
	src, ok := s.byID[srcID]
	if !ok {
		return &NotFoundError{ID: srcID}
	}
	dst, ok := s.byID[dstID]
	if !ok {
		return &NotFoundError{ID: dstID}
	}
	if !src.ElementType.Equal(dst.ElementType) {
		return &ir.ValidationError{Kind: ir.ErrTypeMismatch, Message: "cmd_copy_buffer: element types differ"}
	}
	switch {
	case src.Kind == ir.ResourceAtomicCounter && dst.Kind == ir.ResourceAtomicCounter:
		copy(dst.Cells, src.Cells)
	case src.Kind == ir.ResourceAtomicCounter:
		for i, v := range src.Cells {
			if i < len(dst.Data) {
				dst.Data[i] = float32(v)
			}
		}
	case dst.Kind == ir.ResourceAtomicCounter:
		for i := range dst.Cells {
			if i < len(src.Data) {
				dst.Cells[i] = int32(src.Data[i])
			}
		}
	default:
		copy(dst.Data, src.Data)
	}
	return nil
}
