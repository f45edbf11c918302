// Package ingest turns report files on disk into indexed document chunks.
// It understands plain text, markdown and HTML; HTML goes through a
// readability pass so boilerplate never reaches the index.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-shiori/go-readability"

	"github.com/fintelligent/auditor/internal/index"
)

// Sink is the slice of the document index the pipeline writes to.
type Sink interface {
	Add(ctx context.Context, chunks []index.Chunk) error
}

// Pipeline reads report files, splits them into overlapping chunks and
// feeds them to the index. It remembers content hashes per path so a
// rescan or watcher event on an unchanged file is a no-op.
type Pipeline struct {
	sink         Sink
	chunkSize    int
	chunkOverlap int
	logger       *log.Logger

	mu   sync.Mutex
	seen map[string]string // path -> content hash
}

func NewPipeline(sink Sink, chunkSize, chunkOverlap int, logger *log.Logger) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 100
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Pipeline{
		sink:         sink,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
		seen:         make(map[string]string),
	}
}

// supported lists the file extensions the pipeline accepts.
var supported = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
}

// Supported reports whether path has an ingestible extension.
func Supported(path string) bool {
	return supported[strings.ToLower(filepath.Ext(path))]
}

// ProcessFile ingests a single file and returns the number of chunks
// added. Unchanged files (same content hash as last time) return 0.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (int, error) {
	if !Supported(path) {
		return 0, fmt.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("ingest: read %s: %w", path, err)
	}

	text, title, err := extractText(path, raw)
	if err != nil {
		return 0, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}

	hash := sha1Hex(text)
	p.mu.Lock()
	if p.seen[path] == hash {
		p.mu.Unlock()
		return 0, nil
	}
	p.mu.Unlock()

	parts := splitChunks(text, p.chunkSize, p.chunkOverlap)
	chunks := make([]index.Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, index.Chunk{
			Content: part,
			Metadata: map[string]string{
				"source":       filepath.Base(path),
				"title":        title,
				"content_hash": hash,
				"chunk":        fmt.Sprintf("%03d", i),
			},
		})
	}

	if err := p.sink.Add(ctx, chunks); err != nil {
		return 0, fmt.Errorf("ingest: index %s: %w", path, err)
	}

	p.mu.Lock()
	p.seen[path] = hash
	p.mu.Unlock()

	p.logger.Printf("ingested %s: %d chunks", path, len(chunks))
	return len(chunks), nil
}

// ScanDir walks dir and ingests every supported file. It keeps going
// past individual file failures so a single bad report cannot block a
// rescan; the first error is reported after the walk completes.
func (p *Pipeline) ScanDir(ctx context.Context, dir string) (int, error) {
	total := 0
	var firstErr error
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		n, err := p.ProcessFile(ctx, path)
		if err != nil {
			p.logger.Printf("skipping %s: %v", path, err)
			if firstErr == nil {
				firstErr = err
			}
			return nil
		}
		total += n
		return nil
	})
	if err != nil {
		return total, err
	}
	return total, firstErr
}

// extractText pulls the indexable text out of a file. HTML goes through
// readability so navigation and markup don't pollute retrieval; text and
// markdown are taken as-is.
func extractText(path string, raw []byte) (text, title string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		article, err := readability.FromReader(strings.NewReader(string(raw)), &url.URL{Scheme: "file", Path: path})
		if err != nil {
			return "", "", fmt.Errorf("ingest: extract %s: %w", path, err)
		}
		return article.TextContent, article.Title, nil
	default:
		return string(raw), strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), nil
	}
}

// splitChunks cuts text into approx-sized pieces with the given overlap.
func splitChunks(text string, approx, overlap int) []string {
	text = strings.TrimSpace(text)
	if len(text) <= approx {
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(text); {
		end := start + approx
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

func sha1Hex(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}
