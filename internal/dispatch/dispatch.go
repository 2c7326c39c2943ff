// Package dispatch is the pipeline every inbound command argv runs
// through: descriptor lookup, arity check, admission policy (readonly
// and shutdown gating), executor invocation, and binlog replication for
// writes. Grounded on the teacher's CommandHandler.executeCommand, with
// the admission-policy and binlog-append steps pulled in from
// original_source's pika_dispatch_thread.cc / pika_binlog.cc behavior
// that the teacher's flatter dispatch doesn't model.
package dispatch

import (
	"strings"

	"pika/internal/command"
	"pika/internal/executor"
	"pika/internal/wire"
)

// Dispatcher binds the immutable command/executor tables to one live
// server Context.
type Dispatcher struct {
	table     *command.Table
	executors *executor.Registry
	ctx       *executor.Context
}

// New builds a Dispatcher. table and executors are process-wide
// singletons built once at startup; ctx is the live component set they
// operate against.
func New(table *command.Table, executors *executor.Registry, ctx *executor.Context) *Dispatcher {
	return &Dispatcher{table: table, executors: executors, ctx: ctx}
}

// Dispatch runs one command argv through the full pipeline and returns
// the rendered RESP reply. argv[0] need not be lowercased by the caller.
// Equivalent to DispatchFromMaster(argv, false).
func (d *Dispatcher) Dispatch(argv []string) []byte {
	return d.dispatch(argv, false)
}

// DispatchFromMaster runs argv through the same pipeline but exempt from
// the read-only admission gate, matching the admission rule's
// "connection.role ≠ Master" clause: writes a connected replica applies
// from its own master must never be rejected as read-only. No caller in
// this rewrite currently routes replicated application through the
// dispatcher (runLoop appends straight to the binlog), but the exemption
// is part of the dispatch contract regardless of which path exercises it.
func (d *Dispatcher) DispatchFromMaster(argv []string) []byte {
	return d.dispatch(argv, true)
}

func (d *Dispatcher) dispatch(argv []string, fromMaster bool) []byte {
	var res command.Result
	if len(argv) == 0 {
		res.SetResult(command.KindErrOther, "empty command")
		return res.Render()
	}

	name := strings.ToLower(argv[0])
	desc, ok := d.table.Lookup(name)
	if !ok {
		res.SetResult(command.KindErrOther, "unknown command '"+argv[0]+"'")
		return res.Render()
	}

	if !desc.CheckArity(len(argv)) {
		res.SetResult(command.KindWrongNum, argv[0])
		return res.Render()
	}

	if d.ctx.State.IsShuttingDown() {
		res.SetResult(command.KindErrOther, "server is shutting down")
		return res.Render()
	}

	if desc.IsWrite() && d.ctx.State.IsReadonly() && !fromMaster {
		res.SetResult(command.KindErrOther, "You can't write against a read only slave.")
		return res.Render()
	}

	ex, ok := d.executors.New(name)
	if !ok {
		res.SetResult(command.KindErrOther, "command '"+name+"' has no registered executor")
		return res.Render()
	}

	ex.Clear()
	if !ex.DoInitial(argv, &res) {
		return res.Render()
	}
	ex.Do(d.ctx, argv, &res)

	if res.Ok() && desc.IsReplicated() {
		if _, err := d.ctx.Keeper.Append(wire.EncodeArgs(argv)); err == nil {
			d.ctx.Fanout.Broadcast(wire.EncodeArgs(argv))
		}
	}

	return res.Render()
}
