package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/fintelligent/auditor/provider"
)

// Embedder produces dense vectors for texts.
type Embedder interface {
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// providerEmbedder delegates to a configured LLM provider.
type providerEmbedder struct {
	provider provider.Provider
	dims     int
}

// New returns a provider-backed embedder when p is non-nil, otherwise the
// deterministic hashing embedder so retrieval keeps working offline.
func New(p provider.Provider, dims int) Embedder {
	if p == nil {
		return NewHashing(dims)
	}
	return &providerEmbedder{provider: p, dims: dims}
}

func (e *providerEmbedder) Dimensions() int { return e.dims }

func (e *providerEmbedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.provider.CreateEmbedding(ctx, texts)
}

// HashingEmbedder maps whitespace tokens into a fixed number of buckets by
// FNV hash and L2-normalizes the counts. The same text always embeds to the
// same vector, which keeps hybrid retrieval deterministic without a model.
type HashingEmbedder struct {
	dims int
}

func NewHashing(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Dimensions() int { return h.dims }

func (h *HashingEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *HashingEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dims)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		hasher := fnv.New32a()
		_, _ = hasher.Write([]byte(tok))
		vec[int(hasher.Sum32())%h.dims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}
