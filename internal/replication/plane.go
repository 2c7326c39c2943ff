// Package replication drives the replica-side connection state machine
// (SLAVEOF / trysync / ucanpsync / syncerror) and the master-side replica
// registry. The state transitions are grounded on
// original_source/src/pika_admin.cc's SlaveofCmd, PikasyncCmd,
// UcanpsyncCmd, and SyncerrorCmd; the background connect loop is adapted
// from the teacher's internal/replication.ReplicationManager, trimmed to
// the control-plane concerns the expanded command surface actually needs.
package replication

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pika/internal/binlog"
	"pika/internal/logging"
	"pika/internal/serverstate"
)

// Connector opens a connection to a master and speaks the trysync
// handshake, returning the Cursor to resume streaming from. It is an
// interface so the state machine can be tested without a real socket.
type Connector interface {
	Connect(ctx context.Context, host string, port int) error
	Trysync(ctx context.Context, from binlog.Cursor) (binlog.Cursor, error)
	Stream(ctx context.Context, apply func(payload []byte) error) error
	Close() error
}

// Plane owns the replica-side state machine. One Plane per server
// process; SLAVEOF/PIKASYNC/SYNCERROR executors call into it, and it runs
// the connect/trysync/stream loop on a background goroutine group.
type Plane struct {
	state  *serverstate.State
	keeper binlog.Keeper
	log    *logging.Logger
	dial   func() Connector

	mu        sync.Mutex
	cancel    context.CancelFunc
	group     *errgroup.Group
	lastError string
}

// New builds a Plane bound to the server's control state and binlog, with
// dial constructing a fresh Connector for each connect attempt (real
// callers pass a constructor that opens a net.Conn; tests pass a fake).
func New(state *serverstate.State, keeper binlog.Keeper, log *logging.Logger, dial func() Connector) *Plane {
	return &Plane{state: state, keeper: keeper, log: log, dial: dial}
}

// SlaveofOutcome distinguishes a freshly started replication attempt from
// a no-op short-circuit, so the executor can render the original's
// distinct "+OK Already connected..." text instead of a bare +OK.
type SlaveofOutcome int

const (
	SlaveofStarted SlaveofOutcome = iota
	SlaveofAlreadyConnected
)

// ErrNotInSingleState is the exact wire text for a SLAVEOF issued outside
// ms_state == Single, matching spec.md's boundary-case literal.
var ErrNotInSingleState = errors.New("State is not in PIKA_REP_SINGLE")

// ErrSelfConnect is the exact wire text for a self-connect attempt.
var ErrSelfConnect = errors.New("you fucked up")

// Slaveof implements SLAVEOF host port [filenum offset], matching
// pika_admin.cc SlaveofCmd::Do. Preconditions, in original order: a
// repeat SLAVEOF naming the already-configured master is a no-op success
// (checked first, since it is valid from any non-Single state); otherwise
// ms_state must be Single; otherwise (host, port) must not name this
// server itself. resume, when non-nil, is the psync-tail (filenum,
// offset) pair already range-validated by the caller; it purges the
// binlog up to filenum and overwrites the producer cursor outright
// instead of letting trysync negotiate a resume point.
func (p *Plane) Slaveof(ctx context.Context, selfHost string, selfPort int, host string, port int, resume *binlog.Cursor) (SlaveofOutcome, error) {
	storedPort := port + 100

	curHost, curPort := p.state.Master()
	if p.state.MasterSlaveState() != serverstate.StateSingle && curHost == host && curPort == storedPort {
		return SlaveofAlreadyConnected, nil
	}

	if p.state.MasterSlaveState() != serverstate.StateSingle {
		return 0, ErrNotInSingleState
	}

	if (host == selfHost || host == "127.0.0.1") && port == selfPort {
		return 0, ErrSelfConnect
	}

	p.stopLocked()

	if resume != nil {
		if _, err := p.keeper.PurgeTo(binlog.Cursor{Filenum: resume.Filenum}, 0); err != nil {
			p.log.Warningf("replication: purge before psync resume: %v", err)
		}
		if err := p.keeper.SetProducer(*resume); err != nil {
			return 0, err
		}
	}

	p.state.SetMaster(host, storedPort)
	p.startLocked(host, storedPort)
	return SlaveofStarted, nil
}

// SlaveofNoOne implements SLAVEOF NO ONE, matching pika_admin.cc's
// promote-to-master path: idempotent, always succeeds even when already
// Single.
func (p *Plane) SlaveofNoOne() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLockedNoMu()
	p.state.ClearMaster()
	p.state.SetMasterSlaveState(serverstate.StateSingle)
	p.state.SetReadonly(false)
	return nil
}

// DisconnectFromMaster implements the slave-side effect of SYNCERROR,
// matching pika_admin.cc SyncerrorCmd::Do: stop the connect/stream loop
// and drop to Offline without clearing the recorded master coordinates,
// so only an explicit SLAVEOF NO ONE returns this replica to Single.
func (p *Plane) DisconnectFromMaster() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLockedNoMu()
	p.state.SetMasterSlaveState(serverstate.StateOffline)
}

func (p *Plane) startLocked(host string, port int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	p.group = g
	g.Go(func() error { return p.runLoop(gctx, host, port) })
}

func (p *Plane) stopLocked() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLockedNoMu()
}

func (p *Plane) stopLockedNoMu() {
	if p.cancel != nil {
		p.cancel()
		if p.group != nil {
			p.group.Wait()
		}
	}
	p.cancel = nil
	p.group = nil
}

// runLoop is the background connect/trysync/stream cycle: on any error it
// records the failure (readable through LastError) and retries after a
// backoff, exactly the shape of the teacher's propagateCommands loop
// turned inside-out for the consumer side.
func (p *Plane) runLoop(ctx context.Context, host string, port int) error {
	p.state.SetMasterSlaveState(serverstate.StateConnecting)
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn := p.dial()
		if err := conn.Connect(ctx, host, port); err != nil {
			p.recordError(err)
			if !sleepOrDone(ctx, backoff) {
				return nil
			}
			continue
		}

		from := p.keeper.Producer()
		resumed, err := conn.Trysync(ctx, from)
		if err != nil {
			p.recordError(err)
			conn.Close()
			if !sleepOrDone(ctx, backoff) {
				return nil
			}
			continue
		}

		p.state.SetMasterSlaveState(serverstate.StateConnected)
		p.state.SetReadonly(true)
		p.log.Infof("replication: connected to master %s:%d at %s", host, port, resumed)

		err = conn.Stream(ctx, func(payload []byte) error {
			_, err := p.keeper.Append(payload)
			return err
		})
		conn.Close()
		if err != nil {
			p.recordError(err)
			p.state.SetMasterSlaveState(serverstate.StateConnecting)
			if !sleepOrDone(ctx, backoff) {
				return nil
			}
			continue
		}
		return nil
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (p *Plane) recordError(err error) {
	p.mu.Lock()
	p.lastError = err.Error()
	p.mu.Unlock()
}

// LastError returns the most recent connect/sync failure the connect loop
// recorded. The SYNCERROR command does not read or report it.
func (p *Plane) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

// CanPartialSync answers whether a replica at from can resume via partial
// sync rather than a full resync: the TrySync(fd, filenum, offset)
// decision pika_admin.cc's PikasyncCmd::Do makes before replying ucanpsync
// or syncerror. The requested Cursor must not be ahead of the producer.
func (p *Plane) CanPartialSync(from binlog.Cursor) bool {
	producer := p.keeper.Producer()
	return !producer.Less(from)
}
