package embedder

import (
	"context"
	"crypto/sha256"
)

const (
	// ProviderLocal is the deterministic offline provider.
	ProviderLocal = "local"

	// LocalDimension is the local provider's vector size.
	LocalDimension = 256
)

// LocalProvider produces deterministic hash-derived vectors without any
// network dependency. It keeps the engine usable offline and gives tests a
// provider whose output is stable across runs. It is not a real semantic
// model: two texts are close only when their hashes happen to be.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates the offline provider.
func NewLocalProvider(cache *Cache) *LocalProvider {
	return &LocalProvider{cache: cache}
}

// Embed derives a unit vector from the text's SHA-256 digest.
func (l *LocalProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	if err := validateText(text); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	digest := sha256.Sum256([]byte(text))
	vector := make([]float32, LocalDimension)
	for i := range vector {
		b := digest[i%len(digest)]
		// Rotate through the digest so every dimension is populated.
		vector[i] = (float32(b) - 127.5) / 127.5
		digest = sha256.Sum256(digest[:])
	}

	emb := &Embedding{
		Vector:    NormalizeVector(vector),
		Dimension: LocalDimension,
		Provider:  ProviderLocal,
		Model:     "hash-v1",
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}

	return emb, nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Close() error {
	return nil
}
