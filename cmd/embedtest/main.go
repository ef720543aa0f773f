// Command embedtest is a development harness for the embedding providers.
// It embeds the given texts with the provider selected by the environment
// and prints the pairwise cosine similarity, which makes provider and cache
// behavior easy to eyeball without starting the MCP server.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/codescout-dev/codescout/internal/embedder"
)

func main() {
	log.SetOutput(os.Stderr)

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <text> [text...]\n", os.Args[0])
		os.Exit(2)
	}
	texts := os.Args[1:]

	emb, err := embedder.NewFromEnv()
	if err != nil {
		log.Fatalf("create embedder: %v", err)
	}
	defer func() { _ = emb.Close() }()

	fmt.Printf("provider=%s dimension=%d\n", emb.Provider(), emb.Dimension())

	ctx := context.Background()
	embeddings := make([]*embedder.Embedding, len(texts))
	for i, text := range texts {
		e, err := emb.Embed(ctx, text)
		if err != nil {
			log.Fatalf("embed %q: %v", text, err)
		}
		embeddings[i] = e
		fmt.Printf("[%d] %q hash=%s len=%d\n", i, text, e.Hash[:12], len(e.Vector))
	}

	for i := range embeddings {
		for j := i + 1; j < len(embeddings); j++ {
			fmt.Printf("cosine(%d,%d) = %.4f\n", i, j, cosine(embeddings[i].Vector, embeddings[j].Vector))
		}
	}
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
