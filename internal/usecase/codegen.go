package usecase

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"

	"serial-codegen/internal/domain"
	"serial-codegen/internal/domain/model"
)

const (
	// collectHint caps the up-front allocation in CollectUnique.
	collectHint = 4096

	// codeAlphabet is the 26 uppercase Latin letters.
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// retryMultiplier bounds generation at count*retryMultiplier attempts.
	retryMultiplier = 10
)

// RandSource is the randomness generation draws from. *rand.Rand satisfies it.
type RandSource interface {
	IntN(n int) int
}

// NewCryptoSource returns a ChaCha8 generator seeded from the OS CSPRNG.
func NewCryptoSource() (*rand.Rand, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("seed random source: %w", err)
	}
	return rand.New(rand.NewChaCha8(seed)), nil
}

// NewSeededSource returns a deterministic generator for reproducible batches.
func NewSeededSource(seed uint64) *rand.Rand {
	var b [32]byte
	binary.LittleEndian.PutUint64(b[:8], seed)
	return rand.New(rand.NewChaCha8(b))
}

// generateCode draws length letters independently and uniformly from codeAlphabet.
func generateCode(src RandSource, length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = codeAlphabet[src.IntN(len(codeAlphabet))]
	}
	return string(buf)
}

// GenerateUniqueCodes draws candidates until count distinct codes are collected
// or count*10 attempts are spent. Running out of attempts is not an error: the
// returned batch is simply short, and callers check batch.Short().
// Codes are returned in lexicographic order.
func GenerateUniqueCodes(src RandSource, count, length int) (*model.CodeBatch, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil random source", domain.ErrInvalidArgument)
	}
	if count < 0 || count > model.MaxBatchCount {
		return nil, fmt.Errorf("%w: count must be in 0..%d, got %d", domain.ErrInvalidArgument, model.MaxBatchCount, count)
	}
	if length <= 0 || length > model.MaxCodeLength {
		return nil, fmt.Errorf("%w: length must be in 1..%d, got %d", domain.ErrInvalidArgument, model.MaxCodeLength, length)
	}

	codes, attempts := CollectUnique(count, count*retryMultiplier, func() string {
		return generateCode(src, length)
	})
	slices.Sort(codes)

	return &model.CodeBatch{
		Codes:     codes,
		Requested: count,
		Attempts:  attempts,
	}, nil
}

// CollectUnique calls draw until want distinct values have been seen or
// maxAttempts draws were made, whichever comes first. It returns the distinct
// values in first-seen order together with the number of draws used.
func CollectUnique[T comparable](want, maxAttempts int, draw func() T) ([]T, int) {
	if want <= 0 || maxAttempts <= 0 {
		return []T{}, 0
	}
	hint := min(want, maxAttempts, collectHint)
	seen := make(map[T]struct{}, hint)
	out := make([]T, 0, hint)
	attempts := 0
	for len(out) < want && attempts < maxAttempts {
		v := draw()
		attempts++
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, attempts
}
