package executor

import (
	"context"
	"strconv"
	"strings"

	"pika/internal/binlog"
	"pika/internal/command"
	"pika/internal/replication"
	"pika/internal/serverstate"
)

// Slaveof implements SLAVEOF host port [filenum offset], grounded on
// original_source/src/pika_admin.cc's SlaveofCmd::Do. The psync-resume
// tail is range-checked here (filenum is unsigned by construction;
// offset must fit within one mmap segment) before handing off to
// replication.Plane, which owns the state-machine preconditions.
type Slaveof struct {
	noOne  bool
	host   string
	port   int
	resume *binlog.Cursor
}

func NewSlaveof() Executor { return &Slaveof{} }

func (s *Slaveof) Clear() { *s = Slaveof{} }

func (s *Slaveof) DoInitial(argv []string, res *command.Result) bool {
	switch len(argv) {
	case 3, 5:
	default:
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}

	if strings.EqualFold(argv[1], "no") && strings.EqualFold(argv[2], "one") {
		if len(argv) != 3 {
			res.SetResult(command.KindWrongNum, argv[0])
			return false
		}
		s.noOne = true
		return true
	}

	port, err := strconv.Atoi(argv[2])
	if err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	s.host = argv[1]
	s.port = port

	if len(argv) == 5 {
		filenum, err := strconv.ParseUint(argv[3], 10, 32)
		if err != nil {
			res.SetResult(command.KindOutOfRange)
			return false
		}
		offset, err := strconv.ParseUint(argv[4], 10, 64)
		if err != nil || offset > binlog.MmapSize {
			res.SetResult(command.KindOutOfRange)
			return false
		}
		s.resume = &binlog.Cursor{Filenum: uint32(filenum), Offset: offset}
	}
	return true
}

func (s *Slaveof) Do(ctx *Context, argv []string, res *command.Result) {
	if s.noOne {
		if err := ctx.Plane.SlaveofNoOne(); err != nil {
			res.SetResult(command.KindErrOther, err.Error())
			return
		}
		res.SetResult(command.KindOk)
		return
	}

	outcome, err := ctx.Plane.Slaveof(context.Background(), ctx.SelfHost, ctx.SelfPort, s.host, s.port, s.resume)
	if err != nil {
		res.SetResult(command.KindErrOther, err.Error())
		return
	}
	if outcome == replication.SlaveofAlreadyConnected {
		res.AppendContent("+OK Already connected to specified master")
		return
	}
	res.SetResult(command.KindOk)
}

// trysyncReply builds the master-side handshake reply PikasyncCmd::Do and
// TrysyncCmd share: a RESP array command, "ucanpsync" or "syncerror",
// prefixed with an "auth <pwd>" command when requirepass is set. Both are
// ordinary dispatchable commands in this rewrite, not a reply literally
// re-parsed off the wire by the slave's own dispatcher.
func trysyncReply(ctx *Context, from binlog.Cursor, res *command.Result) {
	if pass, ok := ctx.Config.GetOne("requirepass"); ok && pass != "" {
		appendCommand(res, []string{"auth", pass})
	}
	if ctx.Plane.CanPartialSync(from) {
		appendCommand(res, []string{"ucanpsync"})
	} else {
		appendCommand(res, []string{"syncerror"})
	}
}

func appendCommand(res *command.Result, argv []string) {
	res.AppendArrayLen(len(argv))
	for _, a := range argv {
		res.AppendBulkLen(len(a))
		res.AppendContent(a)
	}
}

// Trysync implements TRYSYNC filenum offset fd, the primary master-side
// handshake a connecting slave issues, grounded on pika_admin.cc's
// TrysyncCmd::Do. fd is accepted and validated as an integer (original_source
// threads it through to TrySync as the slave's listening socket) but this
// rewrite has no socket-fd concept of its own, so it is parsed and discarded.
type Trysync struct {
	from binlog.Cursor
}

func NewTrysync() Executor { return &Trysync{} }

func (t *Trysync) Clear() { *t = Trysync{} }

func (t *Trysync) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 4 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	filenum, err := strconv.ParseUint(argv[1], 10, 32)
	if err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	offset, err := strconv.ParseUint(argv[2], 10, 64)
	if err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	if _, err := strconv.ParseInt(argv[3], 10, 64); err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	t.from = binlog.Cursor{Filenum: uint32(filenum), Offset: offset}
	return true
}

func (t *Trysync) Do(ctx *Context, argv []string, res *command.Result) {
	trysyncReply(ctx, t.from, res)
}

// Pikasync implements PIKASYNC, the legacy-compatible replication channel
// request pika_admin.cc's PikasyncCmd::Do accepts: it shares TRYSYNC's
// decision and reply logic but tolerates the variable trailing shape the
// original's commented-out ip/port prefix left behind (filenum offset fd,
// optionally preceded by extra tokens this rewrite ignores).
type Pikasync struct {
	from binlog.Cursor
}

func NewPikasync() Executor { return &Pikasync{} }

func (p *Pikasync) Clear() { *p = Pikasync{} }

func (p *Pikasync) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) < 4 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	n := len(argv)
	filenum, err := strconv.ParseUint(argv[n-3], 10, 32)
	if err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	offset, err := strconv.ParseUint(argv[n-2], 10, 64)
	if err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	if _, err := strconv.ParseInt(argv[n-1], 10, 64); err != nil {
		res.SetResult(command.KindOutOfRange)
		return false
	}
	p.from = binlog.Cursor{Filenum: uint32(filenum), Offset: offset}
	return true
}

func (p *Pikasync) Do(ctx *Context, argv []string, res *command.Result) {
	trysyncReply(ctx, p.from, res)
}

// Ucanpsync is the slave-internal command a master's handshake reply
// invokes: it transitions Connecting -> Connected and marks the
// connection read-only, matching pika_admin.cc's UcanpsyncCmd::Do. The
// reply is empty, matching the original's ret = "".
type Ucanpsync struct{}

func NewUcanpsync() Executor { return &Ucanpsync{} }

func (u *Ucanpsync) Clear() {}

func (u *Ucanpsync) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 1 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	return true
}

func (u *Ucanpsync) Do(ctx *Context, argv []string, res *command.Result) {
	if ctx.State.MasterSlaveState() == serverstate.StateConnecting {
		ctx.State.SetMasterSlaveState(serverstate.StateConnected)
		ctx.State.SetReadonly(true)
	}
}

// Syncerror is the slave-internal command a failed handshake reply
// invokes: it drops the replication plane to Offline without forgetting
// the configured master, matching pika_admin.cc's SyncerrorCmd::Do. The
// reply is empty, matching the original's ret = "".
type Syncerror struct{}

func NewSyncerror() Executor { return &Syncerror{} }

func (s *Syncerror) Clear() {}

func (s *Syncerror) DoInitial(argv []string, res *command.Result) bool {
	if len(argv) != 1 {
		res.SetResult(command.KindWrongNum, argv[0])
		return false
	}
	return true
}

func (s *Syncerror) Do(ctx *Context, argv []string, res *command.Result) {
	ctx.Plane.DisconnectFromMaster()
}
