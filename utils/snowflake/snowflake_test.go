package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	t.Run("valid IDs", func(t *testing.T) {
		gen, err := NewGenerator(1, 1)
		require.NoError(t, err)
		assert.NotNil(t, gen)
	})

	t.Run("datacenter ID out of range", func(t *testing.T) {
		_, err := NewGenerator(maxDatacenterID+1, 0)
		assert.ErrorIs(t, err, ErrInvalidDatacenterID)

		_, err = NewGenerator(-1, 0)
		assert.ErrorIs(t, err, ErrInvalidDatacenterID)
	})

	t.Run("worker ID out of range", func(t *testing.T) {
		_, err := NewGenerator(0, maxWorkerID+1)
		assert.ErrorIs(t, err, ErrInvalidWorkerID)

		_, err = NewGenerator(0, -1)
		assert.ErrorIs(t, err, ErrInvalidWorkerID)
	})
}

func TestGenerator_NextID(t *testing.T) {
	t.Run("IDs are unique", func(t *testing.T) {
		gen, err := NewGenerator(1, 1)
		require.NoError(t, err)

		seen := make(map[int64]bool)
		for range 10000 {
			id, err := gen.NextID()
			require.NoError(t, err)
			require.False(t, seen[id], "duplicate ID %d", id)
			seen[id] = true
		}
	})

	t.Run("IDs are strictly increasing", func(t *testing.T) {
		gen, err := NewGenerator(2, 3)
		require.NoError(t, err)

		var last int64 = -1
		for range 1000 {
			id, err := gen.NextID()
			require.NoError(t, err)
			assert.Greater(t, id, last)
			last = id
		}
	})

	t.Run("concurrent generation stays unique", func(t *testing.T) {
		gen, err := NewGenerator(1, 1)
		require.NoError(t, err)

		const workers = 8
		const perWorker = 1000

		var mu sync.Mutex
		seen := make(map[int64]bool)

		var wg sync.WaitGroup
		for range workers {
			wg.Go(func() {
				for range perWorker {
					id, err := gen.NextID()
					if err != nil {
						t.Error(err)
						return
					}
					mu.Lock()
					if seen[id] {
						t.Errorf("duplicate ID %d", id)
					}
					seen[id] = true
					mu.Unlock()
				}
			})
		}
		wg.Wait()

		assert.Len(t, seen, workers*perWorker)
	})
}

func TestParse(t *testing.T) {
	gen, err := NewGenerator(7, 13)
	require.NoError(t, err)

	before := time.Now().UnixMilli()
	id, err := gen.NextID()
	require.NoError(t, err)
	after := time.Now().UnixMilli()

	timestamp, datacenterID, workerID, sequence := Parse(id)
	assert.Equal(t, int64(7), datacenterID)
	assert.Equal(t, int64(13), workerID)
	assert.GreaterOrEqual(t, sequence, int64(0))
	assert.GreaterOrEqual(t, timestamp, before)
	assert.LessOrEqual(t, timestamp, after)
}
