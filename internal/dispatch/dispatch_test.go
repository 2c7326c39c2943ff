package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pika/internal/binlog"
	"pika/internal/command"
	"pika/internal/executor"
	"pika/internal/introspection"
	"pika/internal/replication"
	"pika/internal/serverstate"
	"pika/internal/storage"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	table, err := command.NewTable(command.Defaults())
	require.NoError(t, err)

	registry := executor.NewRegistry(executor.DefaultFactories())
	keeper, err := binlog.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { keeper.Close() })

	ctx := &executor.Context{
		Store:  storage.NewStore(),
		State:  serverstate.New(),
		Config: introspection.NewConfigStore(),
		Fanout: replication.NewFanout(),
		Keeper: keeper,
	}
	return New(table, registry, ctx)
}

func TestDispatchUnknownCommand(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Dispatch([]string{"bogus"})
	require.Contains(t, string(reply), "unknown command")
}

func TestDispatchWrongArity(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Dispatch([]string{"get"})
	require.Contains(t, string(reply), "wrong number of arguments")
}

func TestDispatchSetThenGet(t *testing.T) {
	d := newTestDispatcher(t)
	require.Equal(t, "+OK\r\n", string(d.Dispatch([]string{"set", "k", "v"})))
	require.Equal(t, "$1\r\nv\r\n", string(d.Dispatch([]string{"get", "k"})))
}

func TestDispatchRejectsWritesWhenReadonly(t *testing.T) {
	d := newTestDispatcher(t)
	d.ctx.State.SetReadonly(true)
	reply := d.Dispatch([]string{"set", "k", "v"})
	require.Equal(t, "-ERR You can't write against a read only slave.\r\n", string(reply))
}

func TestDispatchFromMasterBypassesReadonly(t *testing.T) {
	d := newTestDispatcher(t)
	d.ctx.State.SetReadonly(true)
	reply := d.DispatchFromMaster([]string{"set", "k", "v"})
	require.Equal(t, "+OK\r\n", string(reply))
}

func TestDispatchRejectsEverythingAfterShutdown(t *testing.T) {
	d := newTestDispatcher(t)
	d.ctx.State.RequestShutdown()
	reply := d.Dispatch([]string{"ping"})
	require.Contains(t, string(reply), "shutting down")
}

func TestDispatchIsCaseInsensitive(t *testing.T) {
	d := newTestDispatcher(t)
	reply := d.Dispatch([]string{"PING"})
	require.Equal(t, "+PONG\r\n", string(reply))
}
