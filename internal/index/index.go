package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve"

	"github.com/fintelligent/auditor/internal/embedding"
)

// Chunk is one unit of retrievable text. Chunks are immutable once indexed.
type Chunk struct {
	Content  string
	Metadata map[string]string
}

// Result pairs a chunk with its relevance signal for one query.
type Result struct {
	Chunk Chunk
	Score float64
}

// Index is the hybrid retriever: an in-memory vector list for dense
// similarity plus a bleve mem-only index for lexical scoring, kept over the
// identical chunk set. The lexical index is rebuilt from scratch on every
// mutation so its term statistics stay exact. The RWMutex keeps a query
// from ever observing a half-rebuilt index.
type Index struct {
	mu       sync.RWMutex
	embedder embedding.Embedder
	lexical  bleve.Index
	chunks   []Chunk
	vectors  [][]float32
}

type lexicalDoc struct {
	Content string `json:"content"`
}

// New creates an empty index. Queries against it return no results.
func New(embedder embedding.Embedder) *Index {
	return &Index{embedder: embedder}
}

// Initialize replaces any existing index, building both sub-indexes from
// scratch. Zero chunks resets to an empty index rather than erroring;
// downstream callers see no results, not a failure.
func (ix *Index) Initialize(ctx context.Context, chunks []Chunk) error {
	if len(chunks) == 0 {
		ix.mu.Lock()
		ix.lexical = nil
		ix.chunks = nil
		ix.vectors = nil
		ix.mu.Unlock()
		return nil
	}

	vectors, err := ix.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}
	lexical, err := buildLexical(chunks)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	ix.chunks = append([]Chunk(nil), chunks...)
	ix.vectors = vectors
	ix.lexical = lexical
	ix.mu.Unlock()
	return nil
}

// Add appends chunks to the index. With no prior index it behaves as
// Initialize; otherwise it extends the vector list and rebuilds the lexical
// index over the full extended corpus.
func (ix *Index) Add(ctx context.Context, chunks []Chunk) error {
	ix.mu.RLock()
	initialized := ix.lexical != nil
	ix.mu.RUnlock()
	if !initialized {
		return ix.Initialize(ctx, chunks)
	}
	if len(chunks) == 0 {
		return nil
	}

	vectors, err := ix.embedChunks(ctx, chunks)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.chunks = append(ix.chunks, chunks...)
	ix.vectors = append(ix.vectors, vectors...)
	lexical, err := buildLexical(ix.chunks)
	if err != nil {
		return err
	}
	ix.lexical = lexical
	return nil
}

// Size reports the number of indexed chunks.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

// HybridRetrieve returns up to k chunks for the query: the top-k by dense
// similarity unioned with the top-k by lexical score, deduplicated by
// content (first occurrence wins) and truncated to k. A chunk found by
// either signal surfaces; the merge does not re-rank across signals.
// Querying before initialization returns an empty result set.
func (ix *Index) HybridRetrieve(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	empty := ix.lexical == nil || len(ix.chunks) == 0
	ix.mu.RUnlock()
	if empty {
		return nil, nil
	}

	// Embed outside the read lock; provider-backed embedders do network I/O.
	qvecs, err := ix.embedder.EmbedMany(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.lexical == nil || len(ix.chunks) == 0 {
		return nil, nil
	}

	// An embedder may legally return zero vectors (an upstream
	// provider answering with an empty data array); fall back to
	// lexical-only retrieval rather than failing the query.
	var dense []Result
	if len(qvecs) > 0 {
		dense = ix.vectorSearch(qvecs[0], k)
	}
	sparse, err := ix.lexicalSearch(query, k)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	seen := make(map[string]struct{}, k)
	out := make([]Result, 0, k)
	for _, r := range append(dense, sparse...) {
		if _, ok := seen[r.Chunk.Content]; ok {
			continue
		}
		seen[r.Chunk.Content] = struct{}{}
		out = append(out, r)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (ix *Index) embedChunks(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ix.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}

func buildLexical(chunks []Chunk) (bleve.Index, error) {
	lexical, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	for i, c := range chunks {
		if err := lexical.Index(strconv.Itoa(i), lexicalDoc{Content: c.Content}); err != nil {
			return nil, err
		}
	}
	return lexical, nil
}

func (ix *Index) vectorSearch(q []float32, k int) []Result {
	type scored struct {
		idx   int
		score float64
	}
	scoreds := make([]scored, 0, len(ix.vectors))
	for i, v := range ix.vectors {
		scoreds = append(scoreds, scored{idx: i, score: cosine(q, v)})
	}
	sort.SliceStable(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })
	out := make([]Result, 0, k)
	for _, sc := range scoreds {
		out = append(out, Result{Chunk: ix.chunks[sc.idx], Score: sc.score})
		if len(out) == k {
			break
		}
	}
	return out
}

func (ix *Index) lexicalSearch(query string, k int) ([]Result, error) {
	match := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequestOptions(match, k, 0, false)
	res, err := ix.lexical.Search(req)
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if hit.Score <= 0 {
			continue
		}
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(ix.chunks) {
			continue
		}
		out = append(out, Result{Chunk: ix.chunks[i], Score: hit.Score})
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
