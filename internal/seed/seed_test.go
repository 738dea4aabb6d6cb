package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	data := make([]byte, 17+Size)
	for i := range data {
		data[i] = byte(i)
	}

	got, err := Sample(data, 17)
	require.NoError(t, err)
	assert.Equal(t, byte(17), got[0])
	assert.Equal(t, byte(17+Size-1), got[Size-1])

	_, err = Sample(data, 18)
	assert.ErrorIs(t, err, ErrShortData)
	_, err = Sample(data, -1)
	assert.ErrorIs(t, err, ErrShortData)
}

func TestSampler(t *testing.T) {
	s := Sampler{
		Fetch: func(context.Context) ([]byte, error) {
			return append([]byte{0xff}, make([]byte, Size)...), nil
		},
		Offset: 1,
	}
	got, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [Size]byte{}, got)

	failing := Sampler{Fetch: func(context.Context) ([]byte, error) { return nil, errors.New("rpc down") }}
	_, err = failing.Seed(context.Background())
	assert.EqualError(t, err, "fetch seed data: rpc down")
}

func TestCryptoSource(t *testing.T) {
	a, err := CryptoSource{}.Seed(context.Background())
	require.NoError(t, err)
	b, err := CryptoSource{}.Seed(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = CryptoSource{}.Seed(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixed(t *testing.T) {
	f := Fixed{1, 2, 3}
	got, err := f.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, [Size]byte(f), got)
}
