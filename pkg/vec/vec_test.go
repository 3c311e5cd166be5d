package vec

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestDist(t *testing.T) {
	a := V3{0, 0, 0}
	b := V3{3, 4, 0}

	if got := Dist(a, b); !almostEqual(got, 5) {
		t.Errorf("Dist() = %v, want 5", got)
	}
	if got := DistSq(a, b); !almostEqual(got, 25) {
		t.Errorf("DistSq() = %v, want 25", got)
	}
}

func TestNormalize(t *testing.T) {
	v := V3{0, 3, 4}.Normalize()
	if !almostEqual(v.Length(), 1) {
		t.Errorf("Normalize().Length() = %v, want 1", v.Length())
	}

	// Zero vector must come back unchanged, not NaN.
	z := V3{}.Normalize()
	if z != (V3{}) {
		t.Errorf("Normalize(zero) = %v, want zero", z)
	}
}

func TestSwizzle(t *testing.T) {
	got := Swizzle(V3{1, 2, 3})
	want := V3{-1, 3, 2}
	if got != want {
		t.Errorf("Swizzle() = %v, want %v", got, want)
	}
}

func TestSwizzleTwiceIsIdentity(t *testing.T) {
	// Applying the axis mapping twice restores the original coordinates:
	// (x,y,z) → (-x,z,y) → (x,y,z).
	cases := []V3{
		{0, 0, 0},
		{1, 2, 3},
		{-4.5, 0.25, 17},
	}
	for _, v := range cases {
		if got := Swizzle(Swizzle(v)); got != v {
			t.Errorf("Swizzle(Swizzle(%v)) = %v, want identity", v, got)
		}
	}
}

func TestAABBNormalization(t *testing.T) {
	b := NewAABB(V3{5, 0, 3}, V3{1, 2, -1})
	if b.Min != (V3{1, 0, -1}) || b.Max != (V3{5, 2, 3}) {
		t.Errorf("NewAABB corners not normalized: %+v", b)
	}
}

func TestAABBContains(t *testing.T) {
	b := NewAABB(V3{0, 0, 0}, V3{10, 10, 10})

	if !b.Contains(V3{5, 5, 5}) {
		t.Error("interior point should be contained")
	}
	// Boundary is exclusive.
	if b.Contains(V3{0, 5, 5}) {
		t.Error("boundary point should not be contained")
	}
	if b.Contains(V3{11, 5, 5}) {
		t.Error("exterior point should not be contained")
	}
}

func TestAABBAdjust(t *testing.T) {
	b := NewAABB(V3{0, 0, 0}, V3{10, 10, 10}).Adjust(-1)
	if b.Min != (V3{1, 1, 1}) || b.Max != (V3{9, 9, 9}) {
		t.Errorf("Adjust(-1) = %+v, want shrunk box", b)
	}
}
