package binlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAdvancesCursor(t *testing.T) {
	k, err := Open(t.TempDir())
	require.NoError(t, err)
	defer k.Close()

	c1, err := k.Append([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, Cursor{Filenum: 0, Offset: 3}, c1)

	c2, err := k.Append([]byte("de"))
	require.NoError(t, err)
	require.Equal(t, Cursor{Filenum: 0, Offset: 5}, c2)
	require.True(t, c1.Less(c2))
}

func TestReopenResumesAtLatestSegment(t *testing.T) {
	dir := t.TempDir()
	k1, err := Open(dir)
	require.NoError(t, err)
	_, err = k1.Append([]byte("xyz"))
	require.NoError(t, err)
	require.NoError(t, k1.Close())

	k2, err := Open(dir)
	require.NoError(t, err)
	defer k2.Close()
	require.Equal(t, Cursor{Filenum: 0, Offset: 3}, k2.Producer())
}

func TestPurgeToRespectsSafetyMargin(t *testing.T) {
	k, err := Open(t.TempDir())
	require.NoError(t, err)
	defer k.Close()

	purged, err := k.PurgeTo(Cursor{Filenum: 5}, 10)
	require.NoError(t, err)
	require.Equal(t, 0, purged, "producer has not advanced past the safety margin yet")
}

func TestCursorLess(t *testing.T) {
	require.True(t, Cursor{Filenum: 1, Offset: 0}.Less(Cursor{Filenum: 2, Offset: 0}))
	require.True(t, Cursor{Filenum: 1, Offset: 10}.Less(Cursor{Filenum: 1, Offset: 20}))
	require.False(t, Cursor{Filenum: 2, Offset: 0}.Less(Cursor{Filenum: 1, Offset: 100}))
}
