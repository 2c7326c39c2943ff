package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pika/internal/binlog"
	"pika/internal/command"
	"pika/internal/introspection"
	"pika/internal/serverstate"
)

type fakeKeeper struct {
	producer binlog.Cursor
	purged   int
}

func (f *fakeKeeper) Append(payload []byte) (binlog.Cursor, error) {
	f.producer.Offset += uint64(len(payload))
	return f.producer, nil
}
func (f *fakeKeeper) Producer() binlog.Cursor { return f.producer }
func (f *fakeKeeper) PurgeTo(target binlog.Cursor, keepMargin int) (int, error) {
	return f.purged, nil
}
func (f *fakeKeeper) SetProducer(target binlog.Cursor) error {
	f.producer = target
	return nil
}
func (f *fakeKeeper) Close() error { return nil }

func newAdminContext() *Context {
	return &Context{
		Store:  nil,
		State:  serverstate.New(),
		Config: introspection.NewConfigStore(),
		Keeper: &fakeKeeper{producer: binlog.Cursor{Filenum: 3, Offset: 42}},
	}
}

func TestPingBareRepliesPong(t *testing.T) {
	ctx := newAdminContext()
	p := NewPing()
	var res command.Result
	require.True(t, p.DoInitial([]string{"ping"}, &res))
	p.Do(ctx, nil, &res)
	require.Equal(t, "+PONG\r\n", string(res.Render()))
}

func TestPingWithMessageEchoesIt(t *testing.T) {
	ctx := newAdminContext()
	p := NewPing()
	var res command.Result
	require.True(t, p.DoInitial([]string{"ping", "hello"}, &res))
	p.Do(ctx, nil, &res)
	require.Equal(t, "$5\r\nhello\r\n", string(res.Render()))
}

func TestAuthWithNoPasswordSetAcceptsAnything(t *testing.T) {
	ctx := newAdminContext()
	a := NewAuth()
	var res command.Result
	require.True(t, a.DoInitial([]string{"auth", "secret"}, &res))
	a.Do(ctx, nil, &res)
	require.Equal(t, "+OK\r\n", string(res.Render()))
}

func TestAuthSucceedsWithMatchingPassword(t *testing.T) {
	ctx := newAdminContext()
	require.NoError(t, ctx.Config.Set("requirepass", "secret"))

	a := NewAuth()
	var res command.Result
	require.True(t, a.DoInitial([]string{"auth", "secret"}, &res))
	a.Do(ctx, nil, &res)
	require.Equal(t, "+OK\r\n", string(res.Render()))
}

func TestSelectAcceptsAnyIndex(t *testing.T) {
	ctx := newAdminContext()
	s := NewSelect()
	var res command.Result
	require.True(t, s.DoInitial([]string{"select", "1"}, &res))
	s.Do(ctx, nil, &res)
	require.Equal(t, "+OK\r\n", string(res.Render()))
}

func TestReadonlyTogglesState(t *testing.T) {
	ctx := newAdminContext()
	r := NewReadonly()
	var res command.Result
	require.True(t, r.DoInitial([]string{"readonly", "set", "on"}, &res))
	r.Do(ctx, nil, &res)
	require.True(t, ctx.State.IsReadonly())
	require.Equal(t, "+OK\r\n", string(res.Render()))
}

func TestConfigGetSetRoundTrip(t *testing.T) {
	ctx := newAdminContext()

	set := NewConfig()
	var setRes command.Result
	require.True(t, set.DoInitial([]string{"config", "set", "maxmemory", "100"}, &setRes))
	set.Do(ctx, nil, &setRes)
	require.Equal(t, "+OK\r\n", string(setRes.Render()))

	get := NewConfig()
	var getRes command.Result
	require.True(t, get.DoInitial([]string{"config", "get", "maxmemory"}, &getRes))
	get.Do(ctx, nil, &getRes)
	require.Equal(t, "*2\r\n$9\r\nmaxmemory\r\n$3\r\n100\r\n", string(getRes.Render()))
}

func TestDumpRejectsConcurrentWindow(t *testing.T) {
	ctx := newAdminContext()

	first := NewDump()
	var firstRes command.Result
	require.True(t, first.DoInitial([]string{"dump"}, &firstRes))
	first.Do(ctx, nil, &firstRes)
	require.Contains(t, string(firstRes.Render()), " : 3 : 42\r\n")

	second := NewDump()
	var secondRes command.Result
	require.True(t, second.DoInitial([]string{"dump"}, &secondRes))
	second.Do(ctx, nil, &secondRes)
	require.Contains(t, string(secondRes.Render()), "already in progress")
}
