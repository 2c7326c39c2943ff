package executor

import (
	"strconv"
	"strings"

	"pika/internal/binlog"
	"pika/internal/command"
	"pika/internal/introspection"
)

// Ping implements PING [message], matching pika_admin.cc PingCmd::Do:
// bare PING replies +PONG, PING with an argument echoes it back as a
// bulk string.
type Ping struct{ message string }

func NewPing() Executor { return &Ping{} }

func (p *Ping) Clear() { p.message = "" }

func (p *Ping) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) > 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	if len(argv) == 2 {
		p.message = argv[1]
	}
	return true
}

func (p *Ping) Do(ctx *Context, argv []string, res *command.Result) {
	if p.message == "" {
		res.AppendContent("+PONG")
		return
	}
	res.AppendBulkLen(len(p.message))
	res.AppendContent(p.message)
}

// Echo implements ECHO message, the one admin command original_source
// doesn't have (Pika routes it through the Kv group) but that
// pika_admin.cc's PingCmd shares its reply-building shape with.
type Echo struct{ message string }

func NewEcho() Executor { return &Echo{} }

func (e *Echo) Clear() { e.message = "" }

func (e *Echo) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	e.message = argv[1]
	return true
}

func (e *Echo) Do(ctx *Context, argv []string, res *command.Result) {
	res.AppendBulkLen(len(e.message))
	res.AppendContent(e.message)
}

// Auth implements AUTH password, matching pika_admin.cc AuthCmd::Do: an
// unset requirepass accepts any password, a set one rejects a mismatched
// one.
type Auth struct{ password string }

func NewAuth() Executor { return &Auth{} }

func (a *Auth) Clear() { a.password = "" }

func (a *Auth) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	a.password = argv[1]
	return true
}

func (a *Auth) Do(ctx *Context, argv []string, res *command.Result) {
	required, _ := ctx.Config.GetOne("requirepass")
	if required == "" || a.password == required {
		res.SetResult(command.KindOk)
		return
	}
	res.SetResult(command.KindErrOther, "invalid password")
}

// Slaveauth implements SLAVEAUTH password, the replica-side counterpart
// checking masterauth instead of requirepass, matching
// pika_admin.cc SlaveauthCmd::Do.
type Slaveauth struct{ password string }

func NewSlaveauth() Executor { return &Slaveauth{} }

func (a *Slaveauth) Clear() { a.password = "" }

func (a *Slaveauth) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	a.password = argv[1]
	return true
}

func (a *Slaveauth) Do(ctx *Context, argv []string, res *command.Result) {
	required, _ := ctx.Config.GetOne("masterauth")
	if required == "" || a.password == required {
		res.SetResult(command.KindOk)
		return
	}
	res.SetResult(command.KindErrOther, "invalid password")
}

// Select implements SELECT index, matching pika_admin.cc SelectCmd::Do:
// multiple logical databases are a feature this server doesn't carry (a
// single keyspace only), so any syntactically valid integer is accepted
// and always replies +OK — there is no second database to reject into.
type Select struct{ index int }

func NewSelect() Executor { return &Select{} }

func (s *Select) Clear() { s.index = 0 }

func (s *Select) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	n, err := strconv.Atoi(argv[1])
	if err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	s.index = n
	return true
}

func (s *Select) Do(ctx *Context, argv []string, res *command.Result) {
	res.SetResult(command.KindOk)
}

// Shutdown implements SHUTDOWN, matching pika_admin.cc ShutdownCmd::Do:
// it marks the server as shutting down and emits an empty reply. The
// connection stays open; the dispatcher refuses every later command.
type Shutdown struct{}

func NewShutdown() Executor { return &Shutdown{} }

func (s *Shutdown) Clear() {}

func (s *Shutdown) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 1 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	return true
}

func (s *Shutdown) Do(ctx *Context, argv []string, res *command.Result) {
	ctx.State.RequestShutdown()
}

// Flushall implements FLUSHALL, matching pika_admin.cc FlushallCmd::Do.
type Flushall struct{}

func NewFlushall() Executor { return &Flushall{} }

func (f *Flushall) Clear() {}

func (f *Flushall) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 1 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	return true
}

func (f *Flushall) Do(ctx *Context, argv []string, res *command.Result) {
	ctx.Store.FlushAll()
	res.SetResult(command.KindOk)
}

// Loaddb implements LOADDB path, matching pika_admin.cc LoaddbCmd::Do. A
// binary RDB loader is out of scope (spec.md §1), so this records the
// path and reports success without doing work: nothing is read from
// disk and the keyspace is left unchanged.
type Loaddb struct{ path string }

func NewLoaddb() Executor { return &Loaddb{} }

func (l *Loaddb) Clear() { l.path = "" }

func (l *Loaddb) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	l.path = argv[1]
	return true
}

func (l *Loaddb) Do(ctx *Context, argv []string, res *command.Result) {
	res.SetResult(command.KindOk)
}

// Dump implements DUMP, matching pika_admin.cc DumpCmd::Do: it opens a
// consistency window (refusing a second concurrent DUMP) and replies
// "+<time> : <filenum> : <offset>" with the window's start time and the
// binlog position the snapshot is consistent as-of, rather than an RDB
// payload (out of scope per spec.md §1).
type Dump struct{}

func NewDump() Executor { return &Dump{} }

func (d *Dump) Clear() {}

func (d *Dump) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 1 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	return true
}

func (d *Dump) Do(ctx *Context, argv []string, res *command.Result) {
	if !ctx.State.BeginDump() {
		res.SetResult(command.KindErrOther, "dump already in progress")
		return
	}
	cursor := ctx.Keeper.Producer()
	_, startedAt := ctx.State.DumpInProgress()
	res.AppendContent("+" + startedAt.Format("20060102150405") + " : " +
		strconv.FormatUint(uint64(cursor.Filenum), 10) + " : " +
		strconv.FormatUint(cursor.Offset, 10))
}

// Dumpoff implements DUMPOFF, closing the window DUMP opened.
type Dumpoff struct{}

func NewDumpoff() Executor { return &Dumpoff{} }

func (d *Dumpoff) Clear() {}

func (d *Dumpoff) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 1 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	return true
}

func (d *Dumpoff) Do(ctx *Context, argv []string, res *command.Result) {
	ctx.State.EndDump()
	res.SetResult(command.KindOk)
}

// Readonly implements READONLY SET on|off, matching pika_admin.cc
// ReadonlyCmd::Do's on/off toggle; the arity-3 shape (SET subcommand plus
// value) follows spec.md §6's command table literally rather than the
// original's bare 2-token form.
type Readonly struct{ arg string }

func NewReadonly() Executor { return &Readonly{} }

func (r *Readonly) Clear() { r.arg = "" }

func (r *Readonly) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 3 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	if !strings.EqualFold(argv[1], "set") {
		res.SetResult(command.KindSyntaxErr)
		return false
	}
	arg := strings.ToLower(argv[2])
	if arg != "on" && arg != "off" {
		res.SetResult(command.KindSyntaxErr)
		return false
	}
	r.arg = arg
	return true
}

func (r *Readonly) Do(ctx *Context, argv []string, res *command.Result) {
	ctx.State.SetReadonly(r.arg == "on")
	res.SetResult(command.KindOk)
}

// Purgelogsto implements PURGELOGSTO write2file<num>, matching
// pika_admin.cc PurgelogstoCmd::Do: it queries the binlog's
// consumer-acknowledged max (not the producer's current position),
// refuses when fewer than the safety margin's worth of segments have
// been acknowledged, and otherwise purges up to whichever of the
// requested target and max-margin is lower.
type Purgelogsto struct{ target uint32 }

func NewPurgelogsto() Executor { return &Purgelogsto{} }

func (p *Purgelogsto) Clear() { p.target = 0 }

func (p *Purgelogsto) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(argv[1], "write2file"), 10, 32)
	if err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	p.target = uint32(n)
	return true
}

func (p *Purgelogsto) Do(ctx *Context, argv []string, res *command.Result) {
	margin := marginOrDefault(ctx.SafetyMargin)
	max := introspection.ConsumerMax(ctx.Keeper.Producer(), ctx.Fanout)
	if max < uint32(margin) {
		res.SetResult(command.KindErrOther, "write2file may in use or non_exist or already in purging...")
		return
	}
	target := p.target
	if limit := max - uint32(margin); limit < target {
		target = limit
	}
	if _, err := ctx.Keeper.PurgeTo(binlog.Cursor{Filenum: target}, margin); err != nil {
		res.SetResult(command.KindErrOther, err.Error())
		return
	}
	res.SetResult(command.KindOk)
}

// Config implements CONFIG GET/SET/REWRITE, matching
// pika_admin.cc ConfigCmd::Do's subcommand dispatch. The table's arity
// of -3 means the dispatcher rejects the 2-token CONFIG REWRITE before
// it reaches this executor.
type Config struct {
	sub   string
	name  string
	value string
}

func NewConfig() Executor { return &Config{} }

func (c *Config) Clear() { c.sub, c.name, c.value = "", "", "" }

func (c *Config) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) < 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	c.sub = strings.ToLower(argv[1])
	switch c.sub {
	case "get":
		if len(argv) != 3 {
			res.SetResult(command.KindWrongNum, argv[0])
			return false
		}
		c.name = argv[2]
	case "set":
		if len(argv) != 4 {
			res.SetResult(command.KindWrongNum, argv[0])
			return false
		}
		c.name = argv[2]
		c.value = argv[3]
	case "rewrite":
		if len(argv) != 2 {
			res.SetResult(command.KindWrongNum, argv[0])
			return false
		}
	default:
		res.SetResult(command.KindErrOther, "unknown CONFIG subcommand")
		return false
	}
	return true
}

func (c *Config) Do(ctx *Context, argv []string, res *command.Result) {
	switch c.sub {
	case "get":
		kv := ctx.Config.Get(c.name)
		res.AppendArrayLen(len(kv))
		for _, v := range kv {
			res.AppendBulkLen(len(v))
			res.AppendContent(v)
		}
	case "set":
		if err := ctx.Config.Set(c.name, c.value); err != nil {
			res.SetResult(command.KindErrOther, err.Error())
			return
		}
		res.SetResult(command.KindOk)
	case "rewrite":
		if err := ctx.Config.Rewrite(); err != nil {
			res.SetResult(command.KindErrOther, err.Error())
			return
		}
		res.SetResult(command.KindOk)
	}
}

// Client implements CLIENT LIST/KILL, matching pika_admin.cc
// ClientCmd::Do.
type Client struct {
	sub  string
	addr string
}

func NewClient() Executor { return &Client{} }

func (c *Client) Clear() { c.sub, c.addr = "", "" }

func (c *Client) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) < 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	c.sub = strings.ToLower(argv[1])
	switch c.sub {
	case "list":
		if len(argv) != 2 {
			res.SetResult(command.KindSyntaxErr)
			return false
		}
	case "kill":
		if len(argv) != 3 {
			res.SetResult(command.KindSyntaxErr)
			return false
		}
		c.addr = argv[2]
	default:
		res.SetResult(command.KindSyntaxErr)
		return false
	}
	return true
}

func (c *Client) Do(ctx *Context, argv []string, res *command.Result) {
	switch c.sub {
	case "list":
		listing := introspection.ClientList(ctx.State.Registry())
		res.AppendBulkLen(len(listing))
		res.AppendContent(listing)
	case "kill":
		if !introspection.ClientKill(ctx.State.Registry(), c.addr) {
			res.SetResult(command.KindErrOther, "No such client")
			return
		}
		res.SetResult(command.KindOk)
	}
}

// Info implements INFO [section], matching pika_admin.cc InfoCmd::Do.
type Info struct{ section string }

func NewInfo() Executor { return &Info{} }

func (i *Info) Clear() { i.section = "" }

func (i *Info) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) > 2 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	if len(argv) == 2 {
		i.section = argv[1]
	}
	return true
}

func (i *Info) Do(ctx *Context, argv []string, res *command.Result) {
	producer := ctx.Keeper.Producer()
	max := introspection.ConsumerMax(producer, ctx.Fanout)
	snapshot := introspection.Snapshot{
		Version:     ctx.Version,
		RunID:       ctx.RunID,
		Uptime:      ctx.State.Uptime(),
		ListenAddr:  ctx.ListenAddr,
		State:       ctx.State,
		Store:       ctx.Store,
		Producer:    producer,
		Fanout:      ctx.Fanout,
		SafetyPurge: introspection.SafetyPurge(max, marginOrDefault(ctx.SafetyMargin)),
	}
	body := introspection.Render(i.section, snapshot)
	res.AppendBulkLen(len(body))
	res.AppendContent(body)
}

func marginOrDefault(m int) int {
	if m == 0 {
		return 10
	}
	return m
}
