package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndSnapshot(t *testing.T) {
	r := New[int](4)
	r.Append(1)
	r.Append(2)
	r.Append(3)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{1, 2, 3}, r.Snapshot())
}

func TestEvictsOldestWhenFull(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 5; i++ {
		r.Append(i)
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{3, 4, 5}, r.Snapshot())
}

func TestLenNeverExceedsCap(t *testing.T) {
	r := New[int](48)
	for i := 0; i < 100; i++ {
		r.Append(i)
	}

	assert.Equal(t, 48, r.Len())
	snap := r.Snapshot()
	require.Len(t, snap, 48)
	assert.Equal(t, 52, snap[0])
	assert.Equal(t, 99, snap[47])
}

func TestMinimumCapacity(t *testing.T) {
	r := New[string](0)
	assert.Equal(t, 1, r.Cap())
	r.Append("a")
	r.Append("b")
	assert.Equal(t, []string{"b"}, r.Snapshot())
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New[int](2)
	r.Append(1)
	snap := r.Snapshot()
	snap[0] = 99

	assert.Equal(t, []int{1}, r.Snapshot())
}

func TestConcurrentAppend(t *testing.T) {
	r := New[int](16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Append(j)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, r.Len())
}
