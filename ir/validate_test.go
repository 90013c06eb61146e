package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docWithNodes(nodes ...Node) *Document {
	return &Document{
		EntryPoint: "main",
		Functions: []Function{
			{ID: "main", Kind: FuncCPU, Nodes: nodes},
		},
	}
}

func kindsOf(errs []ValidationError) []ErrorKind {
	out := make([]ErrorKind, len(errs))
	for i, e := range errs {
		out[i] = e.Kind
	}
	return out
}

func TestValidateUnknownOp(t *testing.T) {
	doc := docWithNodes(Node{ID: "n", Op: "not_a_real_op"})
	errs := Validate(doc, NewRegistry())
	require.Len(t, errs, 1)
	assert.Equal(t, ErrSchema, errs[0].Kind)
}

func TestValidateMissingRequiredArg(t *testing.T) {
	doc := docWithNodes(Node{ID: "n", Op: "buffer_load", Args: map[string]interface{}{"buffer": "buf"}})
	errs := Validate(doc, NewRegistry())
	require.NotEmpty(t, errs)
	assert.Contains(t, kindsOf(errs), ErrMissingArg)
}

func TestValidateUnresolvedResource(t *testing.T) {
	doc := docWithNodes(Node{
		ID: "n", Op: "buffer_load",
		Args: map[string]interface{}{"buffer": "does_not_exist", "index": 0},
	})
	errs := Validate(doc, NewRegistry())
	require.NotEmpty(t, errs)
	assert.Contains(t, kindsOf(errs), ErrUnresolved)
}

func TestValidateResourceKindMismatch(t *testing.T) {
	doc := docWithNodes(Node{
		ID: "n", Op: "buffer_load",
		Args: map[string]interface{}{"buffer": "tex", "index": 0},
	})
	doc.Resources = []Resource{{ID: "tex", Kind: ResourceTexture2D, ElementType: Float4()}}
	errs := Validate(doc, NewRegistry())
	require.NotEmpty(t, errs)
	assert.Contains(t, kindsOf(errs), ErrTypeMismatch)
}

func TestValidateStaticOOBOnLiteralIndex(t *testing.T) {
	doc := docWithNodes(Node{
		ID: "n", Op: "buffer_store",
		Args: map[string]interface{}{"buffer": "buf", "index": 5, "value": 1.0},
	})
	doc.Resources = []Resource{{ID: "buf", Kind: ResourceBuffer, ElementType: Float(), Size: SizeSpec{Width: 2}}}
	errs := Validate(doc, NewRegistry())
	require.NotEmpty(t, errs)
	assert.Contains(t, kindsOf(errs), ErrStaticOOB)
}

func TestValidateNegativeIndex(t *testing.T) {
	doc := docWithNodes(Node{
		ID: "n", Op: "buffer_store",
		Args: map[string]interface{}{"buffer": "buf", "index": -1, "value": 1.0},
	})
	doc.Resources = []Resource{{ID: "buf", Kind: ResourceBuffer, ElementType: Float(), Size: SizeSpec{Width: 4}}}
	errs := Validate(doc, NewRegistry())
	require.NotEmpty(t, errs)
	assert.Contains(t, kindsOf(errs), ErrNegativeIndex)
}

func TestValidateNonLiteralIndexSkipsStaticCheck(t *testing.T) {
	doc := &Document{
		EntryPoint: "main",
		Resources:  []Resource{{ID: "buf", Kind: ResourceBuffer, ElementType: Float(), Size: SizeSpec{Width: 2}}},
		Functions: []Function{{
			ID:   "main",
			Kind: FuncCPU,
			Nodes: []Node{
				{ID: "idx", Op: "var_get", Args: map[string]interface{}{"name": "i"}},
				{ID: "store", Op: "buffer_store", Args: map[string]interface{}{"buffer": "buf", "index": "idx", "value": 1.0}},
			},
		}},
	}
	errs := Validate(doc, NewRegistry())
	assert.NotContains(t, kindsOf(errs), ErrStaticOOB)
}

func TestValidateQuatRejectsBothForms(t *testing.T) {
	doc := docWithNodes(Node{
		ID: "q", Op: "quat",
		Args: map[string]interface{}{"axis": "a", "angle": "b", "x": 0.0, "y": 0.0, "z": 0.0, "w": 1.0},
	})
	doc.Functions[0].Nodes = append(doc.Functions[0].Nodes,
		Node{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 0.0}},
		Node{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 0.0}},
	)
	errs := Validate(doc, NewRegistry())
	require.NotEmpty(t, errs)
	assert.Contains(t, kindsOf(errs), ErrSchema)
}

func TestValidateQuatRejectsNeitherForm(t *testing.T) {
	doc := docWithNodes(Node{ID: "q", Op: "quat", Args: map[string]interface{}{}})
	errs := Validate(doc, NewRegistry())
	require.NotEmpty(t, errs)
	assert.Contains(t, kindsOf(errs), ErrSchema)
}

func TestValidateCleanDocumentHasNoErrors(t *testing.T) {
	doc := docWithNodes(
		Node{ID: "ret", Op: "func_return", Args: map[string]interface{}{"value": "sum"}},
		Node{ID: "a", Op: "literal", Args: map[string]interface{}{"value": 1.0, "type": "float"}},
		Node{ID: "b", Op: "literal", Args: map[string]interface{}{"value": 2.0, "type": "float"}},
		Node{ID: "sum", Op: "math_add", Args: map[string]interface{}{"a": "a", "b": "b"}},
	)
	errs := Validate(doc, NewRegistry())
	assert.Empty(t, errs)
}

func TestErrorKindStructural(t *testing.T) {
	assert.True(t, ErrSchema.Structural())
	assert.True(t, ErrMissingArg.Structural())
	assert.False(t, ErrStaticOOB.Structural())
	assert.False(t, ErrTypeMismatch.Structural())
}

func TestValidationErrorMessageIncludesLocation(t *testing.T) {
	err := ValidationError{Kind: ErrSchema, Message: "boom", Function: "main", Node: "n1"}
	assert.Contains(t, err.Error(), "main")
	assert.Contains(t, err.Error(), "n1")
	assert.Contains(t, err.Error(), "boom")
}
