package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBatch_AlignedResults(t *testing.T) {
	c := NewCache(100, DefaultTTL, newFakeClock())

	texts := make([]string, 25)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}

	fn := func(ctx context.Context, text string) ([]float32, error) {
		var n float32
		fmt.Sscanf(text, "text %f", &n)
		return []float32{n}, nil
	}

	vectors, err := c.GenerateBatch(context.Background(), texts, fn, BatchConfig{BatchSize: 10, Pause: time.Millisecond})
	require.NoError(t, err)
	require.Len(t, vectors, 25)

	for i, v := range vectors {
		assert.Equal(t, []float32{float32(i)}, v)
	}
}

func TestGenerateBatch_RespectsBatchSize(t *testing.T) {
	c := NewCache(100, DefaultTTL, newFakeClock())

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0

	fn := func(ctx context.Context, text string) ([]float32, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return []float32{1}, nil
	}

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}

	_, err := c.GenerateBatch(context.Background(), texts, fn, BatchConfig{BatchSize: 4, Pause: time.Millisecond})
	require.NoError(t, err)
	assert.LessOrEqual(t, maxInFlight, 4)
}

func TestGenerateBatch_UsesCache(t *testing.T) {
	c := NewCache(100, DefaultTTL, newFakeClock())
	fn, calls := countingCompute([]float32{1})

	texts := []string{"same", "same", "other"}
	_, err := c.GenerateBatch(context.Background(), texts, fn, BatchConfig{BatchSize: 1, Pause: time.Millisecond})
	require.NoError(t, err)

	// "same" computed once, "other" once.
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateBatch_AbortsOnFailure(t *testing.T) {
	c := NewCache(100, DefaultTTL, newFakeClock())
	wantErr := errors.New("quota exceeded")

	fn := func(ctx context.Context, text string) ([]float32, error) {
		if text == "bad" {
			return nil, wantErr
		}
		return []float32{1}, nil
	}

	_, err := c.GenerateBatch(context.Background(), []string{"ok", "bad"}, fn, BatchConfig{BatchSize: 10, Pause: time.Millisecond})
	assert.ErrorIs(t, err, wantErr)
}

func TestGenerateBatch_Empty(t *testing.T) {
	c := NewCache(100, DefaultTTL, newFakeClock())
	fn, calls := countingCompute([]float32{1})

	vectors, err := c.GenerateBatch(context.Background(), nil, fn, BatchConfig{})
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Equal(t, int32(0), calls.Load())
}

func TestGenerateBatch_CancelledBetweenBatches(t *testing.T) {
	c := NewCache(100, DefaultTTL, newFakeClock())
	ctx, cancel := context.WithCancel(context.Background())

	fn := func(fnCtx context.Context, text string) ([]float32, error) {
		cancel()
		return []float32{1}, nil
	}

	texts := []string{"a", "b"}
	_, err := c.GenerateBatch(ctx, texts, fn, BatchConfig{BatchSize: 1, Pause: time.Hour})
	assert.ErrorIs(t, err, context.Canceled)
}
