package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordTiming(t *testing.T) {
	c := NewCollector()

	c.RecordTiming("conversations", 10*time.Millisecond)
	c.RecordTiming("conversations", 30*time.Millisecond)
	c.RecordTiming("sendMessage", 5*time.Millisecond)

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 2)

	// Sorted by name.
	assert.Equal(t, "conversations", snap.Operations[0].Name)
	assert.Equal(t, "sendMessage", snap.Operations[1].Name)

	conv := snap.Operations[0]
	assert.Equal(t, int64(2), conv.Count)
	assert.Equal(t, int64(40), conv.TotalTimeMs)
	assert.Equal(t, float64(20), conv.AvgTimeMs)
	assert.Equal(t, int64(10), conv.MinTimeMs)
	assert.Equal(t, int64(30), conv.MaxTimeMs)
}

func TestSnapshotEmpty(t *testing.T) {
	c := NewCollector()

	snap := c.Snapshot()
	assert.Empty(t, snap.Operations)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, float64(0))
}

func TestRecordTimingConcurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RecordTiming("op", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	require.Len(t, snap.Operations, 1)
	assert.Equal(t, int64(1000), snap.Operations[0].Count)
}
