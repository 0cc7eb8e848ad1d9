package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/desktop-replay/internal/model"
	"github.com/mj1618/desktop-replay/internal/recording"
)

func TestRecordingCache_Disabled(t *testing.T) {
	c, err := NewRecordingCache(0, discard)
	require.NoError(t, err)
	defer c.Close()

	path := writeRecording(t)
	steps, err := c.Load(path)
	require.NoError(t, err)
	assert.Len(t, steps, 2)
	assert.False(t, c.Cached(path))
}

func TestRecordingCache_TTL(t *testing.T) {
	c, err := NewRecordingCache(time.Minute, discard)
	require.NoError(t, err)
	defer c.Close()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	path := writeRecording(t)
	steps, err := c.Load(path)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.True(t, c.Cached(path))

	// Callers get copies.
	steps[0].Title = "changed"
	again, err := c.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Send", again[0].Title)

	c.mu.Lock()
	c.entries[cacheKey(path)] = cacheEntry{steps: again[:1], timestamp: now}
	c.mu.Unlock()
	fresh, err := c.Load(path)
	require.NoError(t, err)
	assert.Len(t, fresh, 1, "served from cache within the TTL")

	now = now.Add(2 * time.Minute)
	expired, err := c.Load(path)
	require.NoError(t, err)
	assert.Len(t, expired, 2, "reloaded after the TTL")
}

func TestRecordingCache_InvalidatesOnWrite(t *testing.T) {
	c, err := NewRecordingCache(time.Hour, discard)
	require.NoError(t, err)
	defer c.Close()

	path := writeRecording(t)
	_, err = c.Load(path)
	require.NoError(t, err)
	require.True(t, c.Cached(path))

	require.NoError(t, os.WriteFile(path, []byte(`{"role": "AXButton", "title": "Only"}`), 0o644))
	assert.Eventually(t, func() bool { return !c.Cached(path) }, 5*time.Second, 20*time.Millisecond)

	steps, err := c.Load(path)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "Only", steps[0].Title)
}

func TestRecordingCache_InvalidateAll(t *testing.T) {
	c, err := NewRecordingCache(time.Hour, discard)
	require.NoError(t, err)
	defer c.Close()

	a := writeRecording(t)
	_, err = c.Load(a)
	require.NoError(t, err)
	b := filepath.Join(filepath.Dir(a), "other.json")
	require.NoError(t, os.WriteFile(b, []byte(sendRecording), 0o644))
	_, err = c.Load(b)
	require.NoError(t, err)

	c.InvalidateAll()
	assert.False(t, c.Cached(a))
	assert.False(t, c.Cached(b))
}

func TestRecordingCache_WriteDuringReadIsNotStored(t *testing.T) {
	c, err := NewRecordingCache(time.Hour, discard)
	require.NoError(t, err)
	defer c.Close()

	path := writeRecording(t)
	reads := 0
	c.load = func(p string) ([]model.RecordedSignature, error) {
		reads++
		steps, err := recording.LoadAll(p)
		if reads == 1 {
			// The file changes after it was read but before the entry lands.
			c.Invalidate(p)
		}
		return steps, err
	}

	steps, err := c.Load(path)
	require.NoError(t, err)
	assert.Len(t, steps, 2)
	assert.False(t, c.Cached(path), "a read that raced with a change is not cached")

	_, err = c.Load(path)
	require.NoError(t, err)
	assert.True(t, c.Cached(path))
	assert.Equal(t, 2, reads)

	c.load = func(p string) ([]model.RecordedSignature, error) {
		c.InvalidateAll()
		return recording.LoadAll(p)
	}
	c.Invalidate(path)
	_, err = c.Load(path)
	require.NoError(t, err)
	assert.False(t, c.Cached(path))
}
