package container

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheWriteAndLoadLatest(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 4)

	base := time.Unix(1700000000, 0)
	var lastPath string
	for i := 0; i < 3; i++ {
		r := testResponse(t)
		r.Data[0] = complex(float64(i), 0) // tag each realization
		path, err := c.Write(r, base.Add(time.Duration(i)*time.Second), i)
		require.NoError(t, err)
		lastPath = path
	}

	require.FileExists(t, lastPath)

	got, ts, err := c.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Second).Unix(), ts.Unix())
	assert.Equal(t, complex(2.0, 0), got.Data[0])
}

func TestCachePrunesOldFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 2)

	base := time.Unix(1700000000, 0)
	for i := 0; i < 5; i++ {
		_, err := c.Write(testResponse(t), base.Add(time.Duration(i)*time.Second), i)
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "cache kept more files than maxFiles")

	// The survivors are the two newest.
	_, ts, err := c.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, base.Add(4*time.Second).Unix(), ts.Unix())
}

// Same-second writes fall back to the sequence number for ordering.
func TestCacheSequenceOrdering(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, 10)

	ts := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		r := testResponse(t)
		r.Data[0] = complex(float64(i), 0)
		_, err := c.Write(r, ts, i)
		require.NoError(t, err)
	}

	got, _, err := c.LoadLatest()
	require.NoError(t, err)
	assert.Equal(t, complex(2.0, 0), got.Data[0])
}

func TestCacheLoadLatestEmpty(t *testing.T) {
	c := NewCache(t.TempDir(), 4)
	_, _, err := c.LoadLatest()
	assert.Error(t, err)
}
