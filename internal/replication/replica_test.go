package replication

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestFanoutBroadcastReachesEveryReplica(t *testing.T) {
	f := NewFanout()
	var bufA, bufB bytes.Buffer
	f.Register(&ReplicaStream{ID: "a", Writer: &bufA})
	f.Register(&ReplicaStream{ID: "b", Writer: &bufB})

	f.Broadcast([]byte("payload"))

	require.Equal(t, "payload", bufA.String())
	require.Equal(t, "payload", bufB.String())
	require.Equal(t, 2, f.Count())
}

func TestFanoutUnregisterDropsReplica(t *testing.T) {
	f := NewFanout()
	var buf bytes.Buffer
	f.Register(&ReplicaStream{ID: "a", Writer: &buf})
	f.Unregister("a")

	require.Equal(t, 0, f.Count())
}

func TestFanoutBroadcastDropsFailingReplica(t *testing.T) {
	f := NewFanout()
	f.Register(&ReplicaStream{ID: "dead", Writer: failingWriter{}})
	var buf bytes.Buffer
	f.Register(&ReplicaStream{ID: "alive", Writer: &buf})

	f.Broadcast([]byte("x"))

	require.Equal(t, 1, f.Count())
	list := f.List()
	require.Len(t, list, 1)
	require.Equal(t, "alive", list[0].ID)
}
