package parallel

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	cfg := DefaultConfig()

	var counter int64
	n := 1000

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestFor_EachIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}

	seen := make([]int32, 37)
	For(len(seen), func(i int) {
		atomic.AddInt32(&seen[i], 1)
	}, cfg)

	for i, v := range seen {
		assert.Equal(t, int32(1), v, "index %d", i)
	}
}

func TestFor_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}

	var order []int
	For(5, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_SmallChunk(t *testing.T) {
	// Small work units fall back to sequential.
	cfg := DefaultConfig()

	var counter int64
	n := cfg.MinChunkSize - 1

	For(n, func(_ int) {
		atomic.AddInt64(&counter, 1)
	}, cfg)

	assert.Equal(t, int64(n), counter)
}

func TestWithWorkers(t *testing.T) {
	cfg := DefaultConfig().WithWorkers(1)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.NumWorkers)

	cfg = DefaultConfig().WithWorkers(0)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 1, cfg.NumWorkers)

	cfg = DefaultConfig().WithWorkers(6)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 6, cfg.NumWorkers)
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  []Range
	}{
		{"even", 6, 3, []Range{{0, 2}, {2, 4}, {4, 6}}},
		{"uneven", 7, 3, []Range{{0, 3}, {3, 5}, {5, 7}}},
		{"more parts than items", 2, 5, []Range{{0, 1}, {1, 2}}},
		{"single part", 4, 1, []Range{{0, 4}}},
		{"zero parts", 3, 0, []Range{{0, 3}}},
		{"empty", 0, 4, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Partition(tt.n, tt.parts))
		})
	}
}

func TestForRanges(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}

	var mu sync.Mutex
	got := make(map[int]Range)
	total := 0
	ForRanges(10, func(worker int, r Range) {
		mu.Lock()
		defer mu.Unlock()
		got[worker] = r
		total += r.Len()
	}, cfg)

	require.Len(t, got, 3)
	assert.Equal(t, 10, total)
	assert.Equal(t, Range{0, 4}, got[0])
	assert.Equal(t, Range{4, 7}, got[1])
	assert.Equal(t, Range{7, 10}, got[2])
}

func TestForRanges_Disabled(t *testing.T) {
	var calls []Range
	ForRanges(5, func(worker int, r Range) {
		assert.Equal(t, 0, worker)
		calls = append(calls, r)
	}, Config{Enabled: false, NumWorkers: 8})

	assert.Equal(t, []Range{{0, 5}}, calls)
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		cfgSeq := cfg
		cfgSeq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfgSeq)
		}
	})
}
