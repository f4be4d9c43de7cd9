package perf

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Entry{Kind: KindRequest, Path: "GET /api/{kind}", StatusCode: 200, DurationMs: 10, Timestamp: now})
	c.Record(Entry{Kind: KindRequest, Path: "GET /api/{kind}", StatusCode: 500, DurationMs: 30, Timestamp: now})
	c.Record(Entry{Kind: KindQuery, Path: "query members", DurationMs: 5, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	assert.Equal(t, int64(3), snap.TotalRecorded)
	assert.Equal(t, 2, snap.Requests)
	assert.Equal(t, 1, snap.ServerErrors)
	require.Len(t, snap.SlowestRoutes, 1)
	assert.Equal(t, 20.0, snap.SlowestRoutes[0].AvgMs)
	assert.Equal(t, 30.0, snap.SlowestRoutes[0].MaxMs)
	assert.Equal(t, 1, snap.SlowestRoutes[0].Errors)
	require.Len(t, snap.SlowestQueries, 1)
	assert.Equal(t, "query members", snap.SlowestQueries[0].Path)
}

func TestCollector_RingBufferOverwrites(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()
	for i := 0; i < 5; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /x", DurationMs: float64(i), Timestamp: now})
	}

	assert.Equal(t, int64(5), c.TotalRecorded())
	snap := c.Snapshot(now.Add(-time.Minute), 10)
	require.Len(t, snap.SlowestRoutes, 1)
	assert.Equal(t, 3, snap.SlowestRoutes[0].Count, "ring buffer keeps the last 3")
	assert.Equal(t, 3.0, snap.SlowestRoutes[0].AvgMs)
}

func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /p", DurationMs: float64(i), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 10)
	assert.InDelta(t, 50, snap.RequestP50Ms, 1)
	assert.InDelta(t, 95, snap.RequestP95Ms, 1)
	assert.InDelta(t, 99, snap.RequestP99Ms, 1)
}

func TestCollector_SnapshotFiltersBySince(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()
	c.Record(Entry{Kind: KindRequest, Path: "GET /old", DurationMs: 100, Timestamp: now.Add(-2 * time.Hour)})
	c.Record(Entry{Kind: KindRequest, Path: "GET /new", DurationMs: 10, Timestamp: now})

	snap := c.Snapshot(now.Add(-time.Hour), 10)
	require.Len(t, snap.SlowestRoutes, 1)
	assert.Equal(t, "GET /new", snap.SlowestRoutes[0].Path)
}

func TestCollector_TopNOrdering(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()
	for i, p := range []string{"GET /a", "GET /b", "GET /c"} {
		c.Record(Entry{Kind: KindRequest, Path: p, DurationMs: float64(10 * (i + 1)), Timestamp: now})
	}

	snap := c.Snapshot(now.Add(-time.Minute), 2)
	require.Len(t, snap.SlowestRoutes, 2)
	assert.Equal(t, "GET /c", snap.SlowestRoutes[0].Path)
	assert.Equal(t, "GET /b", snap.SlowestRoutes[1].Path)
}

func TestCollector_ConcurrentWrites(t *testing.T) {
	c := NewCollector(1000)
	now := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				c.Record(Entry{Kind: KindRequest, Path: "GET /c", DurationMs: float64(n), Timestamp: now})
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int64(1000), c.TotalRecorded())
}

func BenchmarkCollectorRecord(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	e := Entry{Kind: KindRequest, Path: "GET /bench", StatusCode: 200, DurationMs: 1.5, Timestamp: time.Now()}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Record(e)
	}
}

func BenchmarkCollectorSnapshot(b *testing.B) {
	c := NewCollector(DefaultRingSize)
	now := time.Now()
	for i := 0; i < DefaultRingSize; i++ {
		c.Record(Entry{Kind: KindRequest, Path: "GET /bench", StatusCode: 200, DurationMs: float64(i % 100), Timestamp: now})
	}
	since := now.Add(-time.Hour)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Snapshot(since, 10)
	}
}
