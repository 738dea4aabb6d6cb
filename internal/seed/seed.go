// Package seed supplies the unpredictable bytes winning numbers are derived from.
package seed

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

// Size is the length of a seed in bytes.
const Size = 32

var ErrShortData = errors.New("not enough data to sample a seed")

// Source returns a fresh seed each time a draw is made.
type Source interface {
	Seed(ctx context.Context) ([Size]byte, error)
}

// Sample copies Size bytes of data starting at offset.
func Sample(data []byte, offset int) ([Size]byte, error) {
	var out [Size]byte
	if offset < 0 || len(data) < offset+Size {
		return out, fmt.Errorf("%w: have %d bytes, need %d", ErrShortData, len(data), offset+Size)
	}
	copy(out[:], data[offset:offset+Size])
	return out, nil
}

// Sampler extracts a seed from a larger blob fetched on demand, such as a
// serialized list of recent block hashes where the newest hash sits at a
// known offset.
type Sampler struct {
	Fetch  func(ctx context.Context) ([]byte, error)
	Offset int
}

func (s Sampler) Seed(ctx context.Context) ([Size]byte, error) {
	data, err := s.Fetch(ctx)
	if err != nil {
		return [Size]byte{}, fmt.Errorf("fetch seed data: %w", err)
	}
	return Sample(data, s.Offset)
}

// CryptoSource reads seeds from the operating system's CSPRNG.
type CryptoSource struct{}

func (CryptoSource) Seed(ctx context.Context) ([Size]byte, error) {
	var out [Size]byte
	if err := ctx.Err(); err != nil {
		return out, err
	}
	if _, err := rand.Read(out[:]); err != nil {
		return out, fmt.Errorf("read random seed: %w", err)
	}
	return out, nil
}

// Fixed always returns the same seed.
type Fixed [Size]byte

func (f Fixed) Seed(context.Context) ([Size]byte, error) {
	return f, nil
}
