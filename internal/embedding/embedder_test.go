package embedding

import (
	"errors"
	"math"
	"testing"

	"edurag/internal/domain"
)

func TestL2Normalize(t *testing.T) {
	v := []float32{3, 4}
	L2Normalize(v)
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Fatalf("L2Normalize() = %v, want [0.6 0.8]", v)
	}
	zero := []float32{0, 0, 0}
	L2Normalize(zero)
	for _, x := range zero {
		if x != 0 {
			t.Fatalf("zero vector changed: %v", zero)
		}
	}
}

func TestCheckBatch(t *testing.T) {
	texts := []string{"a", "b"}
	if dim, err := CheckBatch(texts, [][]float32{{1, 2}, {3, 4}}); err != nil || dim != 2 {
		t.Fatalf("CheckBatch() = %d, %v; want 2, nil", dim, err)
	}
	if _, err := CheckBatch(texts, [][]float32{{1, 2}}); err == nil {
		t.Fatal("expected error for missing vector")
	}
	if _, err := CheckBatch(texts, [][]float32{{1, 2}, {}}); err == nil {
		t.Fatal("expected error for empty vector")
	}
	if _, err := CheckBatch(texts, [][]float32{{1, 2}, {1, 2, 3}}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}
