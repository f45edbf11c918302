package embedding

import (
	"context"
	"math"
	"testing"
)

func TestHashingEmbedderDeterministic(t *testing.T) {
	e := NewHashing(64)
	a, err := e.EmbedMany(context.Background(), []string{"quarterly audit report"})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	b, err := e.EmbedMany(context.Background(), []string{"quarterly audit report"})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	for i := range a[0] {
		if a[0][i] != b[0][i] {
			t.Fatalf("vector differs at %d: %f vs %f", i, a[0][i], b[0][i])
		}
	}
}

func TestHashingEmbedderNormalized(t *testing.T) {
	e := NewHashing(128)
	vecs, err := e.EmbedMany(context.Background(), []string{"pending invoices from Cloud Services Inc"})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("expected unit norm, got %f", norm)
	}
}

func TestHashingEmbedderEmptyInput(t *testing.T) {
	e := NewHashing(32)
	vecs, err := e.EmbedMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if vecs != nil {
		t.Fatalf("expected nil for empty input, got %v", vecs)
	}
	empty, err := e.EmbedMany(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if len(empty) != 1 || len(empty[0]) != 32 {
		t.Fatalf("expected one zero vector of dims 32")
	}
}
