package domain

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuerySequence_AppendRules(t *testing.T) {
	q := NewQuerySequence()
	require.NoError(t, q.Append(KeyFrame{Index: 0}))
	require.NoError(t, q.Append(KeyFrame{Index: 15}))
	assert.ErrorIs(t, q.Append(KeyFrame{Index: 15}), ErrOutOfOrder)

	q.Close()
	q.Close()
	assert.True(t, q.Ended())
	assert.ErrorIs(t, q.Append(KeyFrame{Index: 30}), ErrStreamClosed)
	assert.Equal(t, 2, q.Len())
}

func TestQuerySequence_WaitEnded(t *testing.T) {
	q, err := NewEndedQuerySequence(KeyFrame{Index: 0})
	require.NoError(t, err)

	ok, err := q.Wait(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.Wait(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok, "stream ended before index 1")
}

func TestQuerySequence_WaitCancelled(t *testing.T) {
	q := NewQuerySequence()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ok, err := q.Wait(ctx, 0)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// Whatever the interleaving, a reader blocked in Wait sees exactly the N
// appended keyframes, in order, once each.
func TestQuerySequence_ProducerConsumer(t *testing.T) {
	const n = 200

	for round := 0; round < 5; round++ {
		q := NewQuerySequence()
		rng := rand.New(rand.NewSource(int64(round)))
		delays := make([]time.Duration, n)
		for i := range delays {
			delays[i] = time.Duration(rng.Intn(50)) * time.Microsecond
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer q.Close()
			for i := 0; i < n; i++ {
				time.Sleep(delays[i])
				if err := q.Append(KeyFrame{Index: i * 3, Keypoints: i}); err != nil {
					t.Errorf("append %d: %v", i, err)
					return
				}
			}
		}()

		var got []int
		for i := 0; ; i++ {
			ok, err := q.Wait(context.Background(), i)
			require.NoError(t, err)
			if !ok {
				break
			}
			got = append(got, q.At(i).Keypoints)
		}
		wg.Wait()

		require.Len(t, got, n)
		for i, v := range got {
			assert.Equal(t, i, v, "round %d position %d", round, i)
		}
	}
}
