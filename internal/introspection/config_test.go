package introspection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pika/internal/binlog"
	"pika/internal/replication"
)

func TestConfigGetWildcard(t *testing.T) {
	c := NewConfigStore()
	kv := c.Get("*")
	require.NotEmpty(t, kv)
	require.Equal(t, 0, len(kv)%2)
}

func TestConfigSetRejectsUnknownItem(t *testing.T) {
	c := NewConfigStore()
	err := c.Set("not-a-real-item", "x")
	require.Error(t, err)
}

func TestConfigSetValidatesYesNo(t *testing.T) {
	c := NewConfigStore()
	require.Error(t, c.Set("slave-read-only", "maybe"))
	require.NoError(t, c.Set("slave-read-only", "no"))
	kv := c.Get("slave-read-only")
	require.Equal(t, []string{"slave-read-only", "no"}, kv)
}

func TestSafetyPurge(t *testing.T) {
	require.Equal(t, "none", SafetyPurge(5, 10))
	require.Equal(t, "write2file2", SafetyPurge(12, 10))
}

func TestConsumerMaxFallsBackToProducerWithNoReplicas(t *testing.T) {
	require.Equal(t, uint32(7), ConsumerMax(binlog.Cursor{Filenum: 7}, replication.NewFanout()))
}

func TestConsumerMaxTracksSlowestReplica(t *testing.T) {
	f := replication.NewFanout()
	f.Register(&replication.ReplicaStream{ID: "fast", Acked: binlog.Cursor{Filenum: 9}})
	f.Register(&replication.ReplicaStream{ID: "slow", Acked: binlog.Cursor{Filenum: 3}})
	require.Equal(t, uint32(3), ConsumerMax(binlog.Cursor{Filenum: 9}, f))
}
