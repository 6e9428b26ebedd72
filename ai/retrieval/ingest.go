package retrieval

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"

	"github.com/mlmentor/mlmentor/ai/core/embedding"
	"github.com/mlmentor/mlmentor/store"
)

// maxChunkSize bounds the chunk length in bytes. Blocks are never split,
// so a single oversized paragraph still becomes one chunk.
const maxChunkSize = 1200

var chapterPattern = regexp.MustCompile(`(?i)\bchapter\s+(\d+)\b`)

// Ingestor parses course markdown files into embedded chunks.
type Ingestor struct {
	courses  CourseStore
	embedder embedding.Service
	model    string
	md       goldmark.Markdown
}

// NewIngestor creates a new Ingestor. model names the embedding model the
// vectors are produced with and is recorded on every chunk.
func NewIngestor(courses CourseStore, embedder embedding.Service, model string) *Ingestor {
	return &Ingestor{
		courses:  courses,
		embedder: embedder,
		model:    model,
		md:       goldmark.New(),
	}
}

// IngestDir walks dir recursively and ingests every markdown file found.
// Returns the total number of chunks stored.
func (g *Ingestor) IngestDir(ctx context.Context, dir string) (int, error) {
	total := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = d.Name()
		}
		n, err := g.IngestFile(ctx, path, rel)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", rel, err)
		}
		total += n
		return nil
	})
	return total, err
}

// IngestFile ingests a single markdown file. source is the label stored on
// each chunk, normally the path relative to the ingest root.
func (g *Ingestor) IngestFile(ctx context.Context, path, source string) (int, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	chunks := g.chunk(src)
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.content
	}
	vectors, err := g.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(chunks))
	}

	now := time.Now().Unix()
	for i, c := range chunks {
		create := &store.CourseChunk{
			Source:    source,
			Chapter:   c.chapter,
			Content:   c.content,
			Model:     g.model,
			Embedding: vectors[i],
			CreatedTs: now,
		}
		if _, err := g.courses.CreateCourseChunk(ctx, create); err != nil {
			return i, fmt.Errorf("store chunk %d: %w", i, err)
		}
	}
	slog.Info("ingested course document", "source", source, "chunks", len(chunks))
	return len(chunks), nil
}

type chunk struct {
	content string
	chapter string
}

// chunk splits markdown into chunks of at most maxChunkSize bytes, breaking
// only on block boundaries. Level-1/2 headings always start a new chunk and,
// when they name a chapter, retag the following chunks.
func (g *Ingestor) chunk(src []byte) []chunk {
	doc := g.md.Parser().Parse(gmtext.NewReader(src))

	var chunks []chunk
	var cur strings.Builder
	chapter := ""

	flush := func() {
		content := strings.TrimSpace(cur.String())
		cur.Reset()
		if content != "" {
			chunks = append(chunks, chunk{content: content, chapter: chapter})
		}
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		text := blockText(node, src)
		if text == "" {
			continue
		}

		if h, ok := node.(*ast.Heading); ok && h.Level <= 2 {
			flush()
			if m := chapterPattern.FindStringSubmatch(text); m != nil {
				chapter = m[1]
			}
		} else if cur.Len() > 0 && cur.Len()+len(text) > maxChunkSize {
			flush()
		}

		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(text)
	}
	flush()
	return chunks
}

// blockText extracts the source text of a top-level block node.
func blockText(node ast.Node, src []byte) string {
	lines := node.Lines()
	if lines == nil || lines.Len() == 0 {
		// Lists keep their lines on nested children.
		var b strings.Builder
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			if t := blockText(child, src); t != "" {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				b.WriteString(t)
			}
		}
		return strings.TrimSpace(b.String())
	}

	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimSpace(b.String())
}
