package eval

import (
	"testing"

	"github.com/gogpu/shadeflow/ir"
)

func TestZeroUninitializedLocal(t *testing.T) {
	z := Zero(ir.Float3())
	if z.Vec != [4]float32{0, 0, 0, 0} {
		t.Fatalf("expected zero vector, got %v", z.Vec)
	}

	za := Zero(ir.ArrayOf(ir.Float(), 3))
	if len(za.Arr) != 3 {
		t.Fatalf("expected 3 zero elements, got %d", len(za.Arr))
	}

	zs := Zero(ir.StructOf("Particle"))
	if zs.Struct == nil {
		t.Fatal("expected non-nil empty struct map")
	}
}

func TestValueEqual(t *testing.T) {
	a := Float(1.5)
	b := Float(1.5)
	if !a.Equal(b) {
		t.Fatal("expected equal scalars to compare equal")
	}
	if Float(1).Equal(Float(2)) {
		t.Fatal("expected unequal scalars to compare unequal")
	}

	v1 := Value{Type: ir.Float3(), Vec: [4]float32{1, 2, 3, 0}}
	v2 := Value{Type: ir.Float3(), Vec: [4]float32{1, 2, 3, 0}}
	if !v1.Equal(v2) {
		t.Fatal("expected equal vectors to compare equal")
	}
}

func TestWidenCastIntToFloat(t *testing.T) {
	i := Int(3)
	w := Widen(i, ir.CastIntToFloat, ir.Float())
	if w.Type.Kind != ir.KindFloat || w.Num != 3 {
		t.Fatalf("expected float 3, got %+v", w)
	}
}

func TestWidenCastBroadcast(t *testing.T) {
	s := Float(2)
	w := Widen(s, ir.CastBroadcast, ir.Float3())
	want := [4]float32{2, 2, 2, 0}
	if w.Vec != want {
		t.Fatalf("expected broadcast %v, got %v", want, w.Vec)
	}
}

func TestAsInt32TruncatesTowardZero(t *testing.T) {
	if Float(-3.9).AsInt32() != -3 {
		t.Fatalf("expected truncation toward zero, got %d", Float(-3.9).AsInt32())
	}
	if Float(3.9).AsInt32() != 3 {
		t.Fatalf("expected truncation toward zero, got %d", Float(3.9).AsInt32())
	}
}

func TestToResourceValueVector(t *testing.T) {
	v := Value{Type: ir.Float2(), Vec: [4]float32{1, 2, 0, 0}}
	rv := ToResourceValue(v, nil)
	if rv.Vector != v.Vec {
		t.Fatalf("expected vector round trip, got %v", rv.Vector)
	}
}

func TestToResourceValueStructUsesDeclaredMemberOrder(t *testing.T) {
	structs := []ir.Struct{
		{ID: "Particle", Members: []ir.StructMember{
			{Name: "mass", Type: ir.Float()},
			{Name: "pos", Type: ir.Float2()},
		}},
	}
	v := Value{
		Type: ir.StructOf("Particle"),
		Struct: map[string]Value{
			"pos":  {Type: ir.Float2(), Vec: [4]float32{3, 4, 0, 0}},
			"mass": Float(2),
		},
	}
	// Run several times: map iteration order would make this flaky if
	// ToResourceValue still depended on it.
	for i := 0; i < 10; i++ {
		rv := ToResourceValue(v, structs)
		if len(rv.Fields) != 2 {
			t.Fatalf("expected 2 fields, got %d", len(rv.Fields))
		}
		if rv.Fields[0].Scalar != 2 {
			t.Fatalf("expected mass (declared first) at index 0, got %+v", rv.Fields[0])
		}
		if rv.Fields[1].Vector != [4]float32{3, 4, 0, 0} {
			t.Fatalf("expected pos (declared second) at index 1, got %+v", rv.Fields[1])
		}
	}
}
