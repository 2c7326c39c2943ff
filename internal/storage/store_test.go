package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := NewStore()
	s.Set("k", "v", nil)
	v, ok := s.Get("k")
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestGetExpiredKeyIsAbsent(t *testing.T) {
	s := NewStore()
	past := time.Now().Add(-time.Second)
	s.Set("k", "v", &past)

	_, ok := s.Get("k")
	require.False(t, ok)
	require.Equal(t, 0, s.Len())
}

func TestDeleteReportsPriorExistence(t *testing.T) {
	s := NewStore()
	require.False(t, s.Delete("missing"))

	s.Set("k", "v", nil)
	require.True(t, s.Delete("k"))
	require.False(t, s.Exists("k"))
}

func TestFlushAllClearsEverything(t *testing.T) {
	s := NewStore()
	s.Set("a", "1", nil)
	s.Set("b", "2", nil)
	s.FlushAll()
	require.Equal(t, 0, s.Len())
}

func TestSnapshotAndLoadRoundTrip(t *testing.T) {
	s := NewStore()
	s.Set("a", "1", nil)
	s.Set("b", "2", nil)
	snap := s.Snapshot()

	s2 := NewStore()
	s2.Load(snap)
	v, ok := s2.Get("a")
	require.True(t, ok)
	require.Equal(t, "1", v)
}
